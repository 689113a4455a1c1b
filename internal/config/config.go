// Package config loads and validates environment variables at startup.
// Fail-fast: if a variable is malformed, the process exits with an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIBaseURL is the local development backend.
const DefaultAPIBaseURL = "http://localhost:8000/api/v1"

// Config holds all runtime configuration for the dashboard service.
type Config struct {
	Port                 string
	GRPCPort             string
	APIBaseURL           string
	RedisURL             string // optional: enables caching and shared theme storage
	DatabaseURL          string // optional: enables persistent summary snapshots
	SummaryIntervalHours int
	SummaryDays          int
	Debounce             time.Duration
	GatewayRPS           float64
	GatewayTimeout       time.Duration
	CacheTTL             time.Duration
	LogLevel             string
	AllowedOrigins       []string
}

// Load reads .env (when present) and the environment, and returns a
// validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:           orDefault(getenv("DASHBOARD_PORT"), "8083"),
		GRPCPort:       orDefault(getenv("GRPC_PORT"), "9093"),
		APIBaseURL:     strings.TrimRight(orDefault(getenv("API_BASE_URL"), DefaultAPIBaseURL), "/"),
		RedisURL:       getenv("REDIS_URL"),
		DatabaseURL:    getenv("DATABASE_URL"),
		LogLevel:       orDefault(getenv("LOG_LEVEL"), "info"),
		AllowedOrigins: splitList(orDefault(getenv("ALLOWED_ORIGINS"), "*")),
	}

	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", cfg.APIBaseURL)
	}

	if cfg.SummaryIntervalHours, err = positiveInt(getenv, "SUMMARY_INTERVAL_HOURS", 6); err != nil {
		return nil, err
	}
	if cfg.SummaryDays, err = positiveInt(getenv, "SUMMARY_DAYS", 7); err != nil {
		return nil, err
	}
	if cfg.SummaryDays > 30 {
		return nil, fmt.Errorf("SUMMARY_DAYS must be at most 30, got %d", cfg.SummaryDays)
	}

	debounceMS, err := positiveInt(getenv, "DEBOUNCE_MS", 500)
	if err != nil {
		return nil, err
	}
	cfg.Debounce = time.Duration(debounceMS) * time.Millisecond

	timeout, err := positiveInt(getenv, "GATEWAY_TIMEOUT_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	cfg.GatewayTimeout = time.Duration(timeout) * time.Second

	ttl, err := positiveInt(getenv, "CACHE_TTL_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.CacheTTL = time.Duration(ttl) * time.Second

	cfg.GatewayRPS = 5
	if s := getenv("GATEWAY_RPS"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("GATEWAY_RPS must be a non-negative number, got %q", s)
		}
		cfg.GatewayRPS = v
	}

	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func positiveInt(getenv func(string) string, key string, def int) (int, error) {
	s := getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, s)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
