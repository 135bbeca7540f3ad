package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string `env:"DATABASE_URL"`

	// HTTP API configuration
	HTTPAddr       string   `env:"HTTP_ADDR" envDefault:":8080"`
	JWTSecret      string   `env:"JWT_SECRET"`
	AdminUsernames []string `env:"ADMIN_USERNAMES" envSeparator:","`

	// NATS configuration; empty disables event publishing
	NATSServers string `env:"NATS_SERVERS"`

	// Account configuration
	StartingCredits int64 `env:"STARTING_CREDITS" envDefault:"1000"`

	// Settlement configuration
	PlatformFeeBps int `env:"PLATFORM_FEE_BPS" envDefault:"500"`

	// Dispute configuration
	DisputeWindow       time.Duration `env:"DISPUTE_WINDOW" envDefault:"24h"`
	EvidenceGraceWindow time.Duration `env:"EVIDENCE_GRACE_WINDOW" envDefault:"1h"`

	// Environment: "development", "production", or "test"
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// SetTestConfig replaces the global instance, for tests
func SetTestConfig(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// NewTestConfig returns a config with deterministic defaults for tests
func NewTestConfig() *Config {
	return &Config{
		HTTPAddr:            ":0",
		JWTSecret:           "test-secret",
		StartingCredits:     1000,
		PlatformFeeBps:      500,
		DisputeWindow:       24 * time.Hour,
		EvidenceGraceWindow: time.Hour,
		Environment:         "test",
		LogLevel:            "debug",
	}
}

// load loads configuration from the environment, with .env as a fallback
func load() (*Config, error) {
	// Missing .env is fine; real deployments set variables directly
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.Environment != "test" {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	}
	if cfg.PlatformFeeBps < 0 || cfg.PlatformFeeBps >= 10000 {
		return nil, fmt.Errorf("PLATFORM_FEE_BPS must be in [0, 10000)")
	}

	return cfg, nil
}
