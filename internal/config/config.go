package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress          string
	DatabaseURI         string
	CatalogAddress      string
	NotifierAddress     string
	PublicBaseURL       string
	ReviewerLogin       string
	ReviewerAPIKey      string
	DefaultMaxDownloads int
	AccessTTL           time.Duration
	PendingOrderTTL     time.Duration
	SweepInterval       time.Duration
	SweepBatchSize      int
	WorkerPoolSize      int
	ShutdownTimeout     time.Duration
}

const (
	defaultRunAddress    = ":8080"
	defaultMaxDownloads  = 5
	defaultSweepInterval = time.Minute
	defaultSweepBatch    = 32
	defaultWorkerPool    = 4
	defaultShutdown      = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:          getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:         getString(lookup, "DATABASE_URI", ""),
		CatalogAddress:      getString(lookup, "CATALOG_ADDRESS", ""),
		NotifierAddress:     getString(lookup, "NOTIFIER_ADDRESS", ""),
		PublicBaseURL:       getString(lookup, "PUBLIC_BASE_URL", "http://localhost:8080"),
		ReviewerLogin:       getString(lookup, "REVIEWER_LOGIN", ""),
		ReviewerAPIKey:      getString(lookup, "REVIEWER_API_KEY", ""),
		DefaultMaxDownloads: getInt(lookup, "DEFAULT_MAX_DOWNLOADS", defaultMaxDownloads),
		AccessTTL:           getDuration(lookup, "ACCESS_TTL", 0),
		PendingOrderTTL:     getDuration(lookup, "PENDING_ORDER_TTL", 0),
		SweepInterval:       getDuration(lookup, "SWEEP_INTERVAL", defaultSweepInterval),
		SweepBatchSize:      getInt(lookup, "SWEEP_BATCH_SIZE", defaultSweepBatch),
		WorkerPoolSize:      getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPool),
		ShutdownTimeout:     getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdown),
	}

	fs := flag.NewFlagSet("fulfillment", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		accessTTLStr     = cfg.AccessTTL.String()
		pendingTTLStr    = cfg.PendingOrderTTL.String()
		sweepIntervalStr = cfg.SweepInterval.String()
		shutdownStr      = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.CatalogAddress, "catalog", cfg.CatalogAddress, "Plan catalog base URL")
	fs.StringVar(&cfg.NotifierAddress, "notifier", cfg.NotifierAddress, "Notification dispatcher base URL")
	fs.StringVar(&cfg.PublicBaseURL, "public-url", cfg.PublicBaseURL, "Public base URL used in download links")
	fs.StringVar(&cfg.ReviewerLogin, "reviewer-login", cfg.ReviewerLogin, "Bootstrap reviewer login")
	fs.StringVar(&cfg.ReviewerAPIKey, "reviewer-key", cfg.ReviewerAPIKey, "Bootstrap reviewer API key")
	fs.IntVar(&cfg.DefaultMaxDownloads, "max-downloads", cfg.DefaultMaxDownloads, "Default download quota per order")
	fs.StringVar(&accessTTLStr, "access-ttl", accessTTLStr, "Download window opened at approval (0 = no expiration)")
	fs.StringVar(&pendingTTLStr, "pending-ttl", pendingTTLStr, "Age after which pending orders are failed (0 = sweep disabled)")
	fs.StringVar(&sweepIntervalStr, "sweep-interval", sweepIntervalStr, "Interval between pending order sweeps")
	fs.IntVar(&cfg.SweepBatchSize, "sweep-batch", cfg.SweepBatchSize, "Maximum orders per sweep batch")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent sweep workers")
	fs.StringVar(&shutdownStr, "shutdown-timeout", shutdownStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.AccessTTL, err = time.ParseDuration(accessTTLStr); err != nil {
		return nil, fmt.Errorf("invalid access ttl: %w", err)
	}

	if cfg.PendingOrderTTL, err = time.ParseDuration(pendingTTLStr); err != nil {
		return nil, fmt.Errorf("invalid pending ttl: %w", err)
	}

	if cfg.SweepInterval, err = time.ParseDuration(sweepIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid sweep interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if keyFile, ok := lookup("REVIEWER_API_KEY_FILE"); ok && keyFile != "" {
		content, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("read reviewer key file: %w", err)
		}
		cfg.ReviewerAPIKey = string(content)
	}

	if cfg.DefaultMaxDownloads <= 0 {
		cfg.DefaultMaxDownloads = defaultMaxDownloads
	}

	if cfg.AccessTTL < 0 {
		cfg.AccessTTL = 0
	}

	if cfg.PendingOrderTTL < 0 {
		cfg.PendingOrderTTL = 0
	}

	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = defaultSweepBatch
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPool
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdown
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.CatalogAddress == "" {
		return nil, fmt.Errorf("catalog address must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
