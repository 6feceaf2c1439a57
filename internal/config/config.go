package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// BusinessUTCOffsetHours is the fixed offset of the storefront's business day.
// Default listing windows are computed in this zone.
const BusinessUTCOffsetHours = 8

// BusinessLocation returns the fixed business timezone.
func BusinessLocation() *time.Location {
	return time.FixedZone("UTC+8", BusinessUTCOffsetHours*60*60)
}

// Config holds all application configuration.
type Config struct {
	App        AppConfig         `json:"app"`
	Server     ServerConfig      `json:"server"`
	Database   DatabaseConfig    `json:"database"`
	Listing    ListingConfig     `json:"listing"`
	Cache      CacheConfig       `json:"cache"`
	Redis      RedisConfig       `json:"redis"`
	Security   SecurityConfig    `json:"security"`
	RateLimit  RateLimitConfig   `json:"rate_limit"`
	Tracing    TracingConfig     `json:"tracing"`
	VillaNames map[string]string `json:"villa_names"`
}

// AppConfig holds process-level settings.
type AppConfig struct {
	Environment string `json:"environment"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port      string `json:"port"`
	Host      string `json:"host"`
	EnableTLS bool   `json:"enable_tls"`
	CertFile  string `json:"cert_file"`
	KeyFile   string `json:"key_file"`
}

// DatabaseConfig holds the offer store connection settings.
type DatabaseConfig struct {
	// Driver is "sqlite3" or "mysql".
	Driver         string   `json:"driver"`
	DSN            string   `json:"dsn"`
	MaxOpenConns   int      `json:"max_open_conns"`
	MaxIdleConns   int      `json:"max_idle_conns"`
	AcquireTimeout Duration `json:"acquire_timeout"`
}

// ListingConfig holds defaults for the last-minute listing.
type ListingConfig struct {
	DefaultLimit int `json:"default_limit"`
	MaxLimit     int `json:"max_limit"`
	// WindowDays is the length of the default date window starting tomorrow.
	WindowDays int `json:"window_days"`
}

// CacheConfig holds offer snapshot and listing response cache settings.
type CacheConfig struct {
	ListingCacheEnabled bool     `json:"listing_cache_enabled"`
	ListingCacheTTL     Duration `json:"listing_cache_ttl"`
	// RefreshCron schedules snapshot rebuilds. Empty disables periodic refresh.
	RefreshCron   string `json:"refresh_cron"`
	ManualRefresh bool   `json:"manual_refresh"`
}

// RedisConfig selects the Redis backend for the listing cache. An empty Addr
// keeps the cache in process memory.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	// Allowed CORS origins (comma-separated)
	AllowedOrigins string `json:"allowed_origins"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool `json:"enabled"`
	Rate    int  `json:"rate"`
	Window  int  `json:"window"` // in seconds
}

// TracingConfig holds OpenTelemetry exporter settings.
type TracingConfig struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint"`
}

// Duration is a time.Duration that reads "10s"-style strings from JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"10s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// LoadConfig loads configuration from environment variables and/or config file.
// Environment variables take precedence over config file values.
func LoadConfig(configFile string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:      getEnv("SERVER_PORT", "8080"),
			Host:      getEnv("SERVER_HOST", ""),
			EnableTLS: getEnvBool("SERVER_ENABLE_TLS", false),
			CertFile:  getEnv("SERVER_CERT_FILE", ""),
			KeyFile:   getEnv("SERVER_KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:         getEnv("DATABASE_DRIVER", "sqlite3"),
			DSN:            getEnv("DATABASE_DSN", "./villa_offers.db"),
			MaxOpenConns:   getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:   getEnvInt("DB_MAX_IDLE_CONNS", 5),
			AcquireTimeout: Duration(getEnvDuration("DB_ACQUIRE_TIMEOUT", 10*time.Second)),
		},
		Listing: ListingConfig{
			DefaultLimit: getEnvInt("LISTING_DEFAULT_LIMIT", 3),
			MaxLimit:     getEnvInt("LISTING_MAX_LIMIT", 50),
			WindowDays:   getEnvInt("LISTING_WINDOW_DAYS", 7),
		},
		Cache: CacheConfig{
			ListingCacheEnabled: getEnvBool("LISTING_CACHE_ENABLED", false),
			ListingCacheTTL:     Duration(getEnvDuration("LISTING_CACHE_TTL", 30*time.Second)),
			RefreshCron:         getEnv("CACHE_REFRESH_CRON", ""),
			ManualRefresh:       getEnvBool("MANUAL_CACHE_REFRESH", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Security: SecurityConfig{
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvBool("RATE_LIMIT_ENABLED", true),
			Rate:    getEnvInt("RATE_LIMIT_RATE", 100),
			Window:  getEnvInt("RATE_LIMIT_WINDOW", 60),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvBool("TRACING_ENABLED", false),
			Endpoint: getEnv("TRACING_ENDPOINT", "http://localhost:14268/api/traces"),
		},
	}

	// Load from config file if provided
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables (they take precedence)
	overrideFromEnv(cfg)

	return cfg, nil
}

// loadFromFile loads configuration from a JSON file.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, cfg)
}

// overrideFromEnv re-applies any variable that is explicitly set so it wins
// over the config file.
func overrideFromEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = parseBool(v)
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				*dst = i
			}
		}
	}
	setDuration := func(key string, dst *Duration) {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = Duration(d)
			}
		}
	}

	setString("APP_ENV", &cfg.App.Environment)
	setString("SERVER_PORT", &cfg.Server.Port)
	setString("SERVER_HOST", &cfg.Server.Host)
	setBool("SERVER_ENABLE_TLS", &cfg.Server.EnableTLS)
	setString("SERVER_CERT_FILE", &cfg.Server.CertFile)
	setString("SERVER_KEY_FILE", &cfg.Server.KeyFile)
	setString("DATABASE_DRIVER", &cfg.Database.Driver)
	setString("DATABASE_DSN", &cfg.Database.DSN)
	setInt("DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	setInt("DB_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns)
	setDuration("DB_ACQUIRE_TIMEOUT", &cfg.Database.AcquireTimeout)
	setInt("LISTING_DEFAULT_LIMIT", &cfg.Listing.DefaultLimit)
	setInt("LISTING_MAX_LIMIT", &cfg.Listing.MaxLimit)
	setInt("LISTING_WINDOW_DAYS", &cfg.Listing.WindowDays)
	setBool("LISTING_CACHE_ENABLED", &cfg.Cache.ListingCacheEnabled)
	setDuration("LISTING_CACHE_TTL", &cfg.Cache.ListingCacheTTL)
	setString("CACHE_REFRESH_CRON", &cfg.Cache.RefreshCron)
	setBool("MANUAL_CACHE_REFRESH", &cfg.Cache.ManualRefresh)
	setString("REDIS_ADDR", &cfg.Redis.Addr)
	setString("REDIS_PASSWORD", &cfg.Redis.Password)
	setInt("REDIS_DB", &cfg.Redis.DB)
	setString("ALLOWED_ORIGINS", &cfg.Security.AllowedOrigins)
	setBool("RATE_LIMIT_ENABLED", &cfg.RateLimit.Enabled)
	setInt("RATE_LIMIT_RATE", &cfg.RateLimit.Rate)
	setInt("RATE_LIMIT_WINDOW", &cfg.RateLimit.Window)
	setBool("TRACING_ENABLED", &cfg.Tracing.Enabled)
	setString("TRACING_ENDPOINT", &cfg.Tracing.Endpoint)
}

// getEnv gets an environment variable or returns the default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns the default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return parseBool(value)
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable or returns the default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseBool(v string) bool {
	return strings.ToLower(v) == "true" || v == "1"
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.EnableTLS && (c.Server.CertFile == "" || c.Server.KeyFile == "") {
		return fmt.Errorf("cert and key files are required when TLS is enabled")
	}
	switch c.Database.Driver {
	case "sqlite3", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database pool size must be positive")
	}
	if c.Listing.DefaultLimit < 1 {
		return fmt.Errorf("listing default limit must be at least 1")
	}
	if c.Listing.MaxLimit < c.Listing.DefaultLimit {
		return fmt.Errorf("listing max limit must not be below the default limit")
	}
	if c.Listing.WindowDays < 0 {
		return fmt.Errorf("listing window days must be non-negative")
	}
	if c.Cache.ListingCacheEnabled && c.Cache.ListingCacheTTL <= 0 {
		return fmt.Errorf("listing cache ttl must be positive")
	}
	if c.Cache.RefreshCron != "" {
		if _, err := cron.ParseStandard(c.Cache.RefreshCron); err != nil {
			return fmt.Errorf("invalid cache refresh cron %q: %w", c.Cache.RefreshCron, err)
		}
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Rate <= 0 {
			return fmt.Errorf("rate limit rate must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate limit window must be positive")
		}
	}
	return nil
}
