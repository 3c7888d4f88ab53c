package jobs

type JobType string

const (
	JobSendWelcomeEmail JobType = "send_welcome_email"
	JobParseResume      JobType = "parse_resume"
)

// check to see if the job type is a known constant

func (t JobType) IsValid() bool {
	switch t {
	case JobSendWelcomeEmail, JobParseResume:
		return true
	default:
		return false
	}
}
