package jobs

import "strings"

// ValidatePayload performs minimal validation on decoded payloads before a
// job is enqueued.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	trim := func(s string) string { return strings.TrimSpace(s) }

	switch t {
	case JobSendWelcomeEmail:
		var p SendWelcomeEmailPayload
		switch v := payload.(type) {
		case SendWelcomeEmailPayload:
			p = v
		case *SendWelcomeEmailPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.UserID) == "" || trim(p.Email) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	case JobParseResume:
		var p ParseResumePayload
		switch v := payload.(type) {
		case ParseResumePayload:
			p = v
		case *ParseResumePayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.UserID) == "" || trim(p.Resume) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
