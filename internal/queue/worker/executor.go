package worker

import (
	"context"
	"fmt"
	"io"

	"github.com/jobhubhq/jobhub/internal/domain/job"
	"github.com/jobhubhq/jobhub/internal/domain/user"
	"github.com/jobhubhq/jobhub/internal/jobs"
	"github.com/jobhubhq/jobhub/internal/notifications"
	"github.com/jobhubhq/jobhub/internal/resume"
)

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	t := jobs.JobType(j.Type)

	decoded, err := jobs.DecodePayload(t, j.Payload)

	if err != nil {
		return err
	}

	if err := jobs.ValidatePayload(t, decoded); err != nil {
		return err
	}

	switch t {
	case jobs.JobSendWelcomeEmail:
		return w.sendWelcomeEmail(ctx, decoded.(jobs.SendWelcomeEmailPayload))

	case jobs.JobParseResume:
		return w.parseResume(ctx, decoded.(jobs.ParseResumePayload))

	default:
		return fmt.Errorf("%w: %s", jobs.ErrInvalidJobType, j.Type)
	}
}

func (w *Worker) sendWelcomeEmail(ctx context.Context, p jobs.SendWelcomeEmailPayload) error {
	return w.notifier.SendWelcomeEmail(ctx, notifications.SendWelcomeEmailInput{
		Email:    p.Email,
		FullName: p.FullName,
		Role:     p.Role,
	})
}

// parseResume pulls the stored resume back out of the file store, extracts
// its text and merges any recognized skills onto the owner's profile.
func (w *Worker) parseResume(ctx context.Context, p jobs.ParseResumePayload) error {
	rc, err := w.files.Open(ctx, p.Resume)

	if err != nil {
		return fmt.Errorf("open resume %s: %w", p.Resume, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)

	if err != nil {
		return fmt.Errorf("read resume %s: %w", p.Resume, err)
	}

	name := p.OriginalName

	if name == "" {
		name = p.Resume
	}

	contentType := resume.TypeByName(name)

	text, err := resume.ExtractText(contentType, data)

	if err != nil {
		return fmt.Errorf("extract text from %s: %w", name, err)
	}

	found := resume.ScanSkills(text)

	if len(found) == 0 {
		w.log.Info("no skills recognized in resume", "user_id", p.UserID, "resume", p.Resume)
		return nil
	}

	u, err := w.users.GetByID(ctx, p.UserID)

	if err != nil {
		return fmt.Errorf("load user %s: %w", p.UserID, err)
	}

	merged := resume.MergeSkills(u.Profile.Skills, found)

	_, err = w.users.UpdateProfile(ctx, p.UserID, user.UpdateParams{Skills: merged})

	if err != nil {
		return fmt.Errorf("update skills for user %s: %w", p.UserID, err)
	}

	w.log.Info("resume parsed",
		"user_id", p.UserID,
		"resume", p.Resume,
		"skills_found", len(found),
		"skills_total", len(merged),
	)

	return nil
}
