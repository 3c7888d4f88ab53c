package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jobhubhq/jobhub/internal/config"
	"github.com/jobhubhq/jobhub/internal/http/handlers"
	"github.com/jobhubhq/jobhub/internal/http/middlewares"
	"github.com/jobhubhq/jobhub/internal/observability"
	"github.com/jobhubhq/jobhub/internal/upload"
)

const maxUploadBytes = 10 << 20 // multipart bodies carry resumes

type RouterDeps struct {
	Users     *handlers.UsersHandler
	AdminJobs *handlers.AdminJobsHandler
	Auth      *middlewares.AuthMiddleware
	Uploads   upload.Store
	Prom      *observability.Prom

	// readiness probes; nil entries are skipped
	PingMongo func(context.Context) error
	PingRedis func(context.Context) error
}

func NewRouter(cfg config.Config, deps RouterDeps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(otelgin.Middleware("jobhub-api"))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxUploadBytes))

	// health + metrics
	health := handlers.NewHealthHandler(map[string]func(context.Context) error{
		"mongo": deps.PingMongo,
		"redis": deps.PingRedis,
	})
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// stored resumes and photos are served straight off disk
	if deps.Uploads != nil && deps.Uploads.Backend() == "disk" && cfg.UploadDir != "" {
		r.Static("/uploads", cfg.UploadDir)
	}

	rl := middlewares.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)

	api := r.Group("/api/v1/user")
	{
		api.POST("/register",
			rl.RateLimiterMiddleware(middlewares.KeyByIP),
			upload.SingleUpload(deps.Uploads, deps.Prom, "file"),
			deps.Users.Register,
		)

		api.POST("/login",
			rl.RateLimiterMiddleware(middlewares.KeyByIP),
			middlewares.RequireJSON(),
			deps.Users.Login,
		)

		api.GET("/logout", deps.Auth.RequireAuth(), deps.Users.Logout)

		api.GET("/profile", deps.Auth.RequireAuth(), deps.Users.GetProfile)

		api.PUT("/profile",
			deps.Auth.RequireAuth(),
			rl.RateLimiterMiddleware(middlewares.KeyByUserOrIP),
			upload.SingleUpload(deps.Uploads, deps.Prom, "file"),
			deps.Users.UpdateProfile,
		)
	}

	admin := r.Group("/admin", deps.Auth.RequireAuth(), deps.Auth.RequireRole("admin"))
	{
		admin.GET("/jobs", deps.AdminJobs.List)
		admin.GET("/jobs/:id", deps.AdminJobs.GetByID)
		admin.POST("/jobs/:id/retry", deps.AdminJobs.Retry)
		admin.POST("/jobs/reprocess-dead", deps.AdminJobs.ReprocessDead)
	}

	return r
}
