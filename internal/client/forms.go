package client

import (
	"net/mail"
	"strings"
)

// Issue is one local validation failure, reported before anything hits the
// network. The checks mirror what the server enforces so a valid form never
// bounces on shape alone.
type Issue struct {
	Field   string
	Message string
}

type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "form validation failed"
	}

	parts := make([]string, 0, len(e.Issues))

	for _, iss := range e.Issues {
		parts = append(parts, iss.Field+" "+iss.Message)
	}

	return "form validation failed: " + strings.Join(parts, "; ")
}

type LoginForm struct {
	Email    string
	Password string
	Role     string
}

func (f LoginForm) Validate() []Issue {
	var issues []Issue

	issues = appendEmailIssues(issues, f.Email)

	if f.Password == "" {
		issues = append(issues, Issue{Field: "password", Message: "is required"})
	}

	issues = appendRoleIssues(issues, f.Role, true)

	return issues
}

type RegisterForm struct {
	FullName string
	Email    string
	Password string
	Role     string
}

func (f RegisterForm) Validate() []Issue {
	var issues []Issue

	name := strings.TrimSpace(f.FullName)

	if len(name) < 2 {
		issues = append(issues, Issue{Field: "fullName", Message: "must be at least 2 characters"})
	}

	issues = appendEmailIssues(issues, f.Email)

	if len(f.Password) < 6 {
		issues = append(issues, Issue{Field: "password", Message: "must be at least 6 characters"})
	}

	issues = appendRoleIssues(issues, f.Role, false)

	return issues
}

func appendEmailIssues(issues []Issue, email string) []Issue {
	email = strings.TrimSpace(email)

	if email == "" {
		return append(issues, Issue{Field: "email", Message: "is required"})
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return append(issues, Issue{Field: "email", Message: "must be a valid email address"})
	}

	return issues
}

// login additionally accepts the ops role; registration never does
func appendRoleIssues(issues []Issue, role string, allowAdmin bool) []Issue {
	switch role {
	case "student", "recruiter":
		return issues
	case "admin":
		if allowAdmin {
			return issues
		}
	}

	return append(issues, Issue{Field: "role", Message: "must be one of student, recruiter"})
}
