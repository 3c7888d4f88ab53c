package jobs

// SendWelcomeEmailPayload carries what the notifier needs after a
// registration. Keep payloads minimal and ID-based; the worker can load
// anything else from the store.
type SendWelcomeEmailPayload struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// ParseResumePayload points the worker at a stored resume so it can extract
// text and merge recognized skills back onto the profile.
type ParseResumePayload struct {
	UserID       string `json:"userId"`
	Resume       string `json:"resume"` // stored file reference
	OriginalName string `json:"originalName"`
	RequestID    string `json:"requestId,omitempty"` // optional: correlation
}
