package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jobhubhq/jobhub/internal/config"
	"github.com/jobhubhq/jobhub/internal/db"
	"github.com/jobhubhq/jobhub/internal/notifications"
	"github.com/jobhubhq/jobhub/internal/observability"
	"github.com/jobhubhq/jobhub/internal/queue/worker"
	"github.com/jobhubhq/jobhub/internal/repo/mongodb"
	"github.com/jobhubhq/jobhub/internal/upload"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	client, database, err := db.Connect(cfg.MongoURI, cfg.MongoDB)

	if err != nil {
		log.Error("mongo connect failed", "err", err)
		os.Exit(1)
	}

	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	jobsRepo := mongodb.NewJobsRepo(database, prom)
	usersRepo := mongodb.NewUsersRepo(database, prom)

	store, err := buildUploadStore(cfg)

	if err != nil {
		log.Error("upload store init failed", "err", err, "backend", cfg.UploadBackend)
		os.Exit(1)
	}

	// the breaker keeps a flapping mail provider from eating every attempt
	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(),
		notifications.ProtectedNotifierConfig{
			Timeout:          5 * time.Second,
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
			HalfOpenMaxCalls: 2,
		},
	)

	w := worker.New(
		worker.Config{PollInterval: cfg.WorkerPollInterval},
		jobsRepo,
		usersRepo,
		notifier,
		store,
		log,
		observability.NewJobMetrics(),
	)

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           w.HealthHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server failed", "err", err)
		}
	}()

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}

func buildUploadStore(cfg config.Config) (upload.Store, error) {
	if cfg.UploadBackend == "s3" {
		ctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()

		return upload.NewS3Store(ctx, upload.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}

	return upload.NewDiskStore(cfg.UploadDir)
}
