package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jobhubhq/jobhub/internal/domain/job"
	"github.com/jobhubhq/jobhub/internal/domain/user"
	"github.com/jobhubhq/jobhub/internal/notifications"
	"github.com/jobhubhq/jobhub/internal/observability"
	"github.com/jobhubhq/jobhub/internal/upload"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, lastError string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, lastError string) error
}

type UsersRepository interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateProfile(ctx context.Context, id string, p user.UpdateParams) (user.User, error)
}

type Config struct {
	WorkerID     string
	PollInterval time.Duration
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	users    UsersRepository
	notifier notifications.Notifier
	files    upload.Store
	log      *slog.Logger
	metrics  *observability.JobMetrics

	readyMu sync.RWMutex
	ready   bool
}

func New(
	cfg Config,
	repo JobsRepository,
	users UsersRepository,
	notifier notifications.Notifier,
	files upload.Store,
	log *slog.Logger,
	metrics *observability.JobMetrics,
) *Worker {
	if cfg.WorkerID == "" {
		host, _ := os.Hostname()
		cfg.WorkerID = fmt.Sprintf("%s-%d", host, os.Getpid())
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}

	if log == nil {
		log = slog.Default()
	}

	if metrics == nil {
		metrics = observability.NewJobMetrics()
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		users:    users,
		notifier: notifier,
		files:    files,
		log:      log,
		metrics:  metrics,
	}
}

func (w *Worker) Metrics() *observability.JobMetrics {
	return w.metrics
}

// Run polls for claimable jobs until ctx is cancelled. Each tick drains the
// queue: it keeps processing until a claim comes back empty.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	w.log.Info("worker started",
		"worker_id", w.cfg.WorkerID,
		"poll_interval", w.cfg.PollInterval.String(),
	)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker received shutdown signal", "worker_id", w.cfg.WorkerID)
			return nil

		case <-ticker.C:
			for {
				processed, err := w.ProcessOne(ctx)

				if err != nil {
					w.log.Error("process error", "worker_id", w.cfg.WorkerID, "error", err)
				}

				if !processed || ctx.Err() != nil {
					break
				}
			}
		}
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}
