// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port               string
	LogLevel           string
	FrontendURL        string
	AdminToken         string
	RateLimitPerMinute int
	SeedRiddles        bool
	GRPCHealthPort     string // empty disables the gRPC health server
	HealthCheckTimeout time.Duration
	LLM                LLMConfig
	Store              StoreConfig
	Sweep              SweepConfig
}

// LLMConfig selects the language model provider.
type LLMConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// StoreConfig selects the riddle store backend.
type StoreConfig struct {
	Driver        string
	DBPath        string
	SupabaseURL   string
	SupabaseKey   string
	SupabaseTable string
}

// SweepConfig controls scheduled regeneration.
type SweepConfig struct {
	Schedule string
	Timezone string
	OnStart  bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", "openai"))

	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		FrontendURL:        getEnv("FRONTEND_URL", ""),
		AdminToken:         getEnv("ADMIN_TOKEN", ""),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		SeedRiddles:        getEnvBool("SEED_RIDDLES", true),
		GRPCHealthPort:     getEnv("GRPC_HEALTH_PORT", ""),
		HealthCheckTimeout: getEnvDuration("HEALTH_CHECK_TIMEOUT", 5*time.Second),
		LLM: LLMConfig{
			Provider: provider,
			APIKey:   apiKeyFor(provider),
			Model:    getEnv("LLM_MODEL", ""),
			BaseURL:  getEnv("LLM_BASE_URL", ""),
			Timeout:  getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(getEnv("STORE_DRIVER", "memory")),
			DBPath:        getEnv("DB_PATH", "./data/riddles.db"),
			SupabaseURL:   getEnv("SUPABASE_URL", ""),
			SupabaseKey:   getEnv("SUPABASE_KEY", ""),
			SupabaseTable: getEnv("SUPABASE_TABLE", "riddles"),
		},
		Sweep: SweepConfig{
			Schedule: getEnv("SWEEP_SCHEDULE", "0 0 * * *"),
			Timezone: getEnv("SWEEP_TIMEZONE", ""),
			OnStart:  getEnvBool("SWEEP_ON_START", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// apiKeyFor resolves the credential for provider. LLM_API_KEY wins over provider-specific keys.
func apiKeyFor(provider string) string {
	if key := getEnv("LLM_API_KEY", ""); key != "" {
		return key
	}
	if provider == "gemini" {
		return getEnv("GEMINI_API_KEY", "")
	}
	return getEnv("DEEPSEEK_API_KEY", "")
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	if c.LLM.APIKey == "" {
		return errors.New("an LLM API key is required (LLM_API_KEY, DEEPSEEK_API_KEY or GEMINI_API_KEY)")
	}
	switch c.LLM.Provider {
	case "openai", "deepseek", "gemini":
	default:
		return fmt.Errorf("LLM_PROVIDER %q is not supported", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return errors.New("LLM_TIMEOUT must be > 0")
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.DBPath == "" {
			return errors.New("DB_PATH cannot be empty when STORE_DRIVER=sqlite")
		}
	case "supabase":
		if c.Store.SupabaseURL == "" || c.Store.SupabaseKey == "" {
			return errors.New("SUPABASE_URL and SUPABASE_KEY are required when STORE_DRIVER=supabase")
		}
	default:
		return fmt.Errorf("STORE_DRIVER %q is not supported", c.Store.Driver)
	}
	if c.RateLimitPerMinute < 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be >= 0")
	}
	if c.Sweep.Schedule == "" {
		return errors.New("SWEEP_SCHEDULE cannot be empty")
	}
	if c.HealthCheckTimeout <= 0 {
		return errors.New("HEALTH_CHECK_TIMEOUT must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AllowedOrigins lists the origins accepted by CORS and the sweep feed.
func (c *Config) AllowedOrigins() []string {
	if c.FrontendURL == "" {
		return []string{"*"}
	}
	return []string{c.FrontendURL}
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
