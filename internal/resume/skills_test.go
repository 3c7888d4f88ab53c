package resume_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/jobhubhq/jobhub/internal/resume"
)

func TestScanSkills(t *testing.T) {
	text := "Senior engineer. Shipped Go services on Kubernetes, with Redis caching; some Python."

	got := resume.ScanSkills(text)
	want := []string{"go", "python", "redis", "kubernetes"}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestScanSkillsEmptyText(t *testing.T) {
	if got := resume.ScanSkills(""); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestMergeSkillsKeepsExistingOrder(t *testing.T) {
	existing := []string{"Leadership", "go"}
	found := []string{"go", "redis"}

	got := resume.MergeSkills(existing, found)
	want := []string{"Leadership", "go", "redis"}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractTextPlain(t *testing.T) {
	got, err := resume.ExtractText("text/plain", []byte("go and redis"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != "go and redis" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractTextUnsupported(t *testing.T) {
	_, err := resume.ExtractText("image/png", []byte{1, 2, 3})

	if !errors.Is(err, resume.ErrUnsupportedType) {
		t.Fatalf("got %v, want ErrUnsupportedType", err)
	}
}

func TestTypeByName(t *testing.T) {
	cases := map[string]string{
		"resume.pdf":  "application/pdf",
		"Resume.PDF":  "application/pdf",
		"resume.docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"notes.txt":   "text/plain",
		"photo.png":   "",
	}

	for name, want := range cases {
		if got := resume.TypeByName(name); got != want {
			t.Fatalf("TypeByName(%q) = %q, want %q", name, got, want)
		}
	}
}
