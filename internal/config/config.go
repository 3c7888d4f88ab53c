package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env  string
	Port int

	// Credential store
	MongoURI string
	MongoDB  string

	// File intake
	UploadDir     string
	UploadBackend string // "disk" | "s3"
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string

	// Sessions
	JWTSecret         string
	SessionTTLHours   int
	RevocationEnabled bool

	// Redis (revocation list, readiness)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Seeded ops account
	AdminEmail    string
	AdminPassword string
	AdminName     string

	AllowedOrigins []string
	OTLPEndpoint   string

	// Rate limiting on the credential endpoints
	RateLimit       int
	RateLimitWindow time.Duration

	// Background worker
	WorkerPollInterval time.Duration
	WorkerHealthPort   int
}

func Load() Config {
	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		MongoURI: getEnv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:  getEnv("MONGODB_DB", "jobhub"),

		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		UploadBackend: getEnv("UPLOAD_BACKEND", "disk"),
		S3Bucket:      getEnv("S3_BUCKET", ""),
		S3Region:      getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		S3AccessKey:   getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:   getEnv("S3_SECRET_KEY", ""),

		JWTSecret:         getEnv("JWT_SECRET", "dev-only-secret"),
		SessionTTLHours:   getEnvInt("SESSION_TTL_HOURS", 24),
		RevocationEnabled: getEnvBool("SESSION_REVOCATION", false),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Ops Admin"),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", ""),

		RateLimit:       getEnvInt("RATE_LIMIT", 20),
		RateLimitWindow: time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,

		WorkerPollInterval: time.Duration(getEnvInt("WORKER_POLL_MS", 500)) * time.Millisecond,
		WorkerHealthPort:   getEnvInt("WORKER_HEALTH_PORT", 8081),
	}
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)

		if err != nil {
			return fallback
		}

		return b
	}
	return fallback
}
