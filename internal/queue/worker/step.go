package worker

import (
	"context"
	"errors"
	"time"

	"github.com/jobhubhq/jobhub/internal/domain/job"
)

// ProcessOne claims and executes at most one job. It returns whether a job
// was claimed; a failed execution still counts as processed because the job
// was rescheduled or dead-lettered.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}

		return false, err
	}

	w.metrics.IncClaimed()
	w.log.Info("claimed job",
		"job_id", j.ID,
		"job_type", j.Type,
		"attempt", j.Attempts,
		"worker_id", w.cfg.WorkerID,
	)

	start := time.Now()
	err = w.execute(ctx, j)
	w.metrics.ObserveDuration(time.Since(start))

	if err != nil {
		w.handleFailure(ctx, j, err)
		return true, nil
	}

	if err := w.repo.MarkDone(ctx, j.ID); err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		w.metrics.IncFailed()
		return true, err
	}

	w.metrics.IncDone()
	return true, nil
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, execErr error) {
	// Attempts was already incremented by the claim.
	if j.Attempts >= j.MaxAttempts {
		w.log.Error("job dead-lettered",
			"job_id", j.ID,
			"job_type", j.Type,
			"attempts", j.Attempts,
			"error", execErr,
		)

		if err := w.repo.MarkFailed(ctx, j.ID, execErr.Error()); err != nil {
			w.log.Error("mark failed error", "job_id", j.ID, "error", err)
		}

		w.metrics.IncFailed()
		w.metrics.IncDeadLettered()
		return
	}

	delay := ExponentialBackoff(j.Attempts)
	runAt := time.Now().UTC().Add(delay)

	w.log.Warn("job rescheduled",
		"job_id", j.ID,
		"job_type", j.Type,
		"attempt", j.Attempts,
		"delay", delay.String(),
		"error", execErr,
	)

	if err := w.repo.Reschedule(ctx, j.ID, runAt, execErr.Error()); err != nil {
		w.log.Error("reschedule error", "job_id", j.ID, "error", err)
	}

	w.metrics.IncRetried()
}
