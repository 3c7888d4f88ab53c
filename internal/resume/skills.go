package resume

import (
	"regexp"
	"strings"
)

// knownSkills is the vocabulary the parse job recognizes. Matching is
// case-insensitive on word boundaries so "Go," and "go." both count.
var knownSkills = []string{
	"go", "golang", "python", "java", "javascript", "typescript", "rust",
	"c++", "c#", "sql", "mongodb", "postgresql", "mysql", "redis",
	"docker", "kubernetes", "terraform", "aws", "gcp", "azure",
	"react", "vue", "angular", "node", "django", "spring",
	"grpc", "graphql", "rest", "kafka", "rabbitmq",
	"linux", "git", "jenkins", "prometheus", "grafana",
}

var wordSplit = regexp.MustCompile(`[\s,;:()\[\]{}|/"']+`)

// ScanSkills returns the known skills found in the text, deduplicated, in
// vocabulary order.
func ScanSkills(text string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]struct{})

	for _, tok := range wordSplit.Split(strings.ToLower(text), -1) {
		tok = strings.Trim(tok, ".!?-")
		if tok != "" {
			seen[tok] = struct{}{}
		}
	}

	var found []string

	for _, skill := range knownSkills {
		if _, ok := seen[skill]; ok {
			found = append(found, skill)
		}
	}

	return found
}

// MergeSkills unions found skills into the existing list without reordering
// what the user already has.
func MergeSkills(existing, found []string) []string {
	out := make([]string, 0, len(existing)+len(found))
	seen := make(map[string]struct{}, len(existing))

	for _, s := range existing {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}

	for _, s := range found {
		key := strings.ToLower(strings.TrimSpace(s))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}

	return out
}
