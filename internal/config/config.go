package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"tasker/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	DatabaseURL   string
	JWTSecret     string
	TokenAudience string
	AllowedOrigin string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel  string
	LogFormat string

	LoginPath string
	// CookieSecure forces the Secure cookie attribute. When nil it follows
	// the request scheme.
	CookieSecure *bool

	DashboardCacheTTL time.Duration

	// Requests per minute
	AuthRateLimit int
	APIRateLimit  int
}

// Load reads the configuration from the environment (and .env if present).
// Missing required values are fatal.
func Load() *Config {
	_ = godotenv.Load()

	cfg, missing := FromEnv(os.Getenv)
	if missing != "" {
		logger.Fatal(missing + " is not set")
	}
	return cfg
}

// FromEnv builds a Config from getenv and reports the first missing
// required key.
func FromEnv(getenv func(string) string) (*Config, string) {
	cfg := &Config{
		AppPort:           str(getenv, "APP_PORT", "8080"),
		DatabaseURL:       getenv("DATABASE_URL"),
		JWTSecret:         getenv("JWT_SECRET"),
		TokenAudience:     str(getenv, "TOKEN_AUDIENCE", "tasker"),
		AllowedOrigin:     getenv("ALLOWED_ORIGIN"),
		RedisAddr:         getenv("REDIS_ADDR"),
		RedisPassword:     getenv("REDIS_PASSWORD"),
		RedisDB:           positive(getenv, "REDIS_DB", 0),
		LogLevel:          str(getenv, "LOG_LEVEL", "info"),
		LogFormat:         str(getenv, "LOG_FORMAT", "text"),
		LoginPath:         str(getenv, "LOGIN_PATH", "/login"),
		DashboardCacheTTL: 30 * time.Second,
		AuthRateLimit:     positive(getenv, "AUTH_RATE_LIMIT", 5),
		APIRateLimit:      positive(getenv, "API_RATE_LIMIT", 120),
	}

	if v := getenv("DASHBOARD_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.DashboardCacheTTL = d
		}
	}
	if v := getenv("COOKIE_SECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CookieSecure = &b
		}
	}

	switch {
	case cfg.DatabaseURL == "":
		return cfg, "DATABASE_URL"
	case cfg.JWTSecret == "":
		return cfg, "JWT_SECRET"
	}
	return cfg, ""
}

func str(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func positive(getenv func(string) string, key string, def int) int {
	if v := getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
