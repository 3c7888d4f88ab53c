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

	"github.com/jobhubhq/jobhub/internal/auth"
	"github.com/jobhubhq/jobhub/internal/cache"
	"github.com/jobhubhq/jobhub/internal/config"
	"github.com/jobhubhq/jobhub/internal/db"
	"github.com/jobhubhq/jobhub/internal/domain/user"
	httpx "github.com/jobhubhq/jobhub/internal/http"
	"github.com/jobhubhq/jobhub/internal/http/handlers"
	"github.com/jobhubhq/jobhub/internal/http/middlewares"
	"github.com/jobhubhq/jobhub/internal/observability"
	"github.com/jobhubhq/jobhub/internal/redisclient"
	"github.com/jobhubhq/jobhub/internal/repo/mongodb"
	"github.com/jobhubhq/jobhub/internal/upload"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), "jobhub-api", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = shutdownTracer(ctx)
			}()
		}
	}

	client, database, err := db.Connect(cfg.MongoURI, cfg.MongoDB)

	if err != nil {
		log.Error("mongo connect failed", "err", err)
		os.Exit(1)
	}

	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	setupCtx, cancelSetup := config.WithTimeout(10 * time.Second)
	defer cancelSetup()

	if err := db.EnsureIndexes(setupCtx, database); err != nil {
		log.Error("index setup failed", "err", err)
		os.Exit(1)
	}

	if err := db.EnsureAdminUser(setupCtx, database, cfg); err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	usersRepo := mongodb.NewUsersRepo(database, prom)
	jobsRepo := mongodb.NewJobsRepo(database, prom)

	store, err := buildUploadStore(cfg)

	if err != nil {
		log.Error("upload store init failed", "err", err, "backend", cfg.UploadBackend)
		os.Exit(1)
	}

	mgr := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.SessionTTLHours)*time.Hour)

	var verifier middlewares.TokenVerifier = mgr
	var revoker handlers.SessionRevoker
	var pingRedis func(context.Context) error

	if cfg.RevocationEnabled {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		list := auth.NewRevocationList(mgr, rdb.Raw())
		verifier = list
		revoker = list
		pingRedis = rdb.Ping
	}

	usersHandler := handlers.NewUsersHandler(
		usersRepo,
		jobsRepo,
		mgr,
		revoker,
		cache.New[user.User](5*time.Second),
		cfg.Env == "production",
	)

	router := httpx.NewRouter(cfg, httpx.RouterDeps{
		Users:     usersHandler,
		AdminJobs: handlers.NewAdminJobsHandler(jobsRepo),
		Auth:      middlewares.NewAuthMiddleware(verifier),
		Uploads:   store,
		Prom:      prom,
		PingMongo: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		PingRedis: pingRedis,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "upload_backend", store.Backend())
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
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
