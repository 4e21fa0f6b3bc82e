package config

import (
	"testing"
	"time"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, missing := FromEnv(env(map[string]string{
		"DATABASE_URL": "postgres://localhost/tasker",
		"JWT_SECRET":   "s3cret",
	}))
	if missing != "" {
		t.Fatalf("unexpected missing key %q", missing)
	}
	if cfg.AppPort != "8080" || cfg.TokenAudience != "tasker" || cfg.LoginPath != "/login" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DashboardCacheTTL != 30*time.Second {
		t.Fatalf("cache ttl = %s", cfg.DashboardCacheTTL)
	}
	if cfg.AuthRateLimit != 5 || cfg.APIRateLimit != 120 {
		t.Fatalf("rate limits = %d/%d", cfg.AuthRateLimit, cfg.APIRateLimit)
	}
	if cfg.CookieSecure != nil {
		t.Fatal("cookie secure should follow the request by default")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, _ := FromEnv(env(map[string]string{
		"DATABASE_URL":        "postgres://db/tasker",
		"JWT_SECRET":          "k",
		"APP_PORT":            "9000",
		"REDIS_ADDR":          "redis:6379",
		"REDIS_DB":            "2",
		"DASHBOARD_CACHE_TTL": "1m",
		"COOKIE_SECURE":       "true",
		"API_RATE_LIMIT":      "not-a-number",
	}))
	if cfg.AppPort != "9000" || cfg.RedisAddr != "redis:6379" || cfg.RedisDB != 2 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.DashboardCacheTTL != time.Minute {
		t.Fatalf("cache ttl = %s", cfg.DashboardCacheTTL)
	}
	if cfg.CookieSecure == nil || !*cfg.CookieSecure {
		t.Fatal("cookie secure not parsed")
	}
	if cfg.APIRateLimit != 120 {
		t.Fatalf("invalid value should keep default, got %d", cfg.APIRateLimit)
	}
}

func TestFromEnvMissing(t *testing.T) {
	if _, missing := FromEnv(env(nil)); missing != "DATABASE_URL" {
		t.Fatalf("missing = %q", missing)
	}
	if _, missing := FromEnv(env(map[string]string{"DATABASE_URL": "x"})); missing != "JWT_SECRET" {
		t.Fatalf("missing = %q", missing)
	}
}
