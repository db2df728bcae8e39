package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the core runtime configuration for the control API.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	DatabaseURL string

	ListenAddr string

	// WorkerSharedSecret authenticates the enforcement worker on the
	// /internal endpoints (X-Control-Secret header). If empty, those
	// endpoints reject every request.
	WorkerSharedSecret string

	// DashboardTokenHash is the bcrypt hash of the operator bearer token
	// for the /v1 analysis endpoints. Token issuance lives in the auth
	// service; this service only verifies. If empty, /v1 rejects every
	// request.
	DashboardTokenHash string

	// RetentionDays bounds how long raw traffic log rows are kept.
	RetentionDays int

	// BucketRetentionDays bounds how long hourly metric buckets are kept.
	// Must comfortably exceed the 7-day baseline window.
	BucketRetentionDays int

	// IngestTimeout bounds the ingestion commit so a slow database can
	// never stall the enforcement point's reporting path.
	IngestTimeout time.Duration

	// Bootstrap* seed one project (with an API key hash and a verified
	// domain) on startup, since project CRUD belongs to the management
	// plane and a fresh deployment would otherwise have nothing to
	// ingest into. All empty means no bootstrap.
	BootstrapProjectName string
	BootstrapUpstreamURL string
	BootstrapAPIKey      string
	BootstrapDomain      string
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	cfg := &Config{
		DatabaseURL:          os.Getenv("APP_DATABASE_URL"),
		ListenAddr:           getenv("APP_LISTEN_ADDR", ":8080"),
		WorkerSharedSecret:   os.Getenv("APP_WORKER_SHARED_SECRET"),
		DashboardTokenHash:   os.Getenv("APP_DASHBOARD_TOKEN_HASH"),
		RetentionDays:        30,
		BucketRetentionDays:  90,
		IngestTimeout:        3 * time.Second,
		BootstrapProjectName: os.Getenv("APP_BOOTSTRAP_PROJECT_NAME"),
		BootstrapUpstreamURL: os.Getenv("APP_BOOTSTRAP_UPSTREAM_URL"),
		BootstrapAPIKey:      os.Getenv("APP_BOOTSTRAP_API_KEY"),
		BootstrapDomain:      os.Getenv("APP_BOOTSTRAP_DOMAIN"),
	}

	if v := os.Getenv("APP_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.RetentionDays = days
		}
	}
	if v := os.Getenv("APP_BUCKET_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.BucketRetentionDays = days
		}
	}
	if v := os.Getenv("APP_INGEST_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.IngestTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
