package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "SERVER_PORT", "SERVER_HOST", "SERVER_ENABLE_TLS", "SERVER_CERT_FILE", "SERVER_KEY_FILE",
		"DATABASE_DRIVER", "DATABASE_DSN", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_ACQUIRE_TIMEOUT",
		"LISTING_DEFAULT_LIMIT", "LISTING_MAX_LIMIT", "LISTING_WINDOW_DAYS",
		"LISTING_CACHE_ENABLED", "LISTING_CACHE_TTL", "CACHE_REFRESH_CRON", "MANUAL_CACHE_REFRESH",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "ALLOWED_ORIGINS",
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_RATE", "RATE_LIMIT_WINDOW", "TRACING_ENABLED", "TRACING_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Server.Port != "8080" || cfg.Database.Driver != "sqlite3" {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.Database.MaxOpenConns != 10 || cfg.Database.AcquireTimeout.Std() != 10*time.Second {
		t.Errorf("Unexpected pool defaults: %+v", cfg.Database)
	}
	if cfg.Listing.DefaultLimit != 3 || cfg.Listing.MaxLimit != 50 || cfg.Listing.WindowDays != 7 {
		t.Errorf("Unexpected listing defaults: %+v", cfg.Listing)
	}
	if cfg.Cache.RefreshCron != "" || cfg.Cache.ManualRefresh || cfg.Cache.ListingCacheEnabled {
		t.Errorf("Unexpected cache defaults: %+v", cfg.Cache)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"server": {"port": "9000"},
		"database": {"driver": "mysql", "dsn": "user:pw@tcp(db:3306)/villas", "acquire_timeout": "3s"},
		"cache": {"listing_cache_enabled": true, "listing_cache_ttl": "45s"},
		"villa_names": {"v-9": "Villa Nine"}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("CACHE_REFRESH_CRON", "*/10 * * * *")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Server.Port != "9100" {
		t.Errorf("Expected env to win for port, got %s", cfg.Server.Port)
	}
	if cfg.Database.Driver != "mysql" || cfg.Database.AcquireTimeout.Std() != 3*time.Second {
		t.Errorf("Expected file database settings, got %+v", cfg.Database)
	}
	if !cfg.Cache.ListingCacheEnabled || cfg.Cache.ListingCacheTTL.Std() != 45*time.Second {
		t.Errorf("Expected file cache settings, got %+v", cfg.Cache)
	}
	if cfg.Cache.RefreshCron != "*/10 * * * *" {
		t.Errorf("Expected cron from env, got %q", cfg.Cache.RefreshCron)
	}
	if cfg.VillaNames["v-9"] != "Villa Nine" {
		t.Errorf("Expected villa name override, got %v", cfg.VillaNames)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Unexpected validation error: %v", err)
	}
}

func TestLoadConfig_BadFile(t *testing.T) {
	clearEnv(t)

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte(`{"database": {"acquire_timeout": 10}}`), 0o644)
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected error for numeric duration")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no port", func(c *Config) { c.Server.Port = "" }},
		{"tls without files", func(c *Config) { c.Server.EnableTLS = true }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "postgres" }},
		{"no dsn", func(c *Config) { c.Database.DSN = "" }},
		{"zero pool", func(c *Config) { c.Database.MaxOpenConns = 0 }},
		{"zero default limit", func(c *Config) { c.Listing.DefaultLimit = 0 }},
		{"max below default", func(c *Config) { c.Listing.MaxLimit = 2 }},
		{"negative window", func(c *Config) { c.Listing.WindowDays = -1 }},
		{"cache without ttl", func(c *Config) { c.Cache.ListingCacheEnabled = true; c.Cache.ListingCacheTTL = 0 }},
		{"bad cron", func(c *Config) { c.Cache.RefreshCron = "every hour" }},
		{"zero rate", func(c *Config) { c.RateLimit.Rate = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig("")
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestBusinessLocation(t *testing.T) {
	_, offset := time.Date(2025, 6, 1, 0, 0, 0, 0, BusinessLocation()).Zone()
	if offset != BusinessUTCOffsetHours*3600 {
		t.Errorf("Expected offset %d, got %d", BusinessUTCOffsetHours*3600, offset)
	}
}
