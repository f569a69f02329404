// Package config loads the service configuration from environment
// variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Rent      RentConfig
	Geocoder  GeocoderConfig
	Redis     RedisConfig
	Logging   LoggingConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds Postgres configuration. An empty URL leaves the
// property store unavailable.
type DatabaseConfig struct {
	URL         string
	MaxConns    int
	AutoMigrate bool
}

// RentConfig locates the rent table workbook
type RentConfig struct {
	IndexPath string
	Sheet     string
}

// GeocoderConfig holds Nominatim client configuration
type GeocoderConfig struct {
	URL               string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// RedisConfig holds the geocode cache connection. An empty Addr disables
// the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// TelemetryConfig holds OTLP export configuration
type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

// Enabled reports whether OTLP export is configured.
func (t TelemetryConfig) Enabled() bool {
	return t.OTLPEndpoint != ""
}

// LoadDotEnv loads variables from path (".env" when empty). A missing file
// is not an error and existing variables are never overridden.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// Load reads the configuration from the environment. Malformed numeric,
// boolean or duration values are reported together.
func Load() (*Config, error) {
	p := &envParser{}

	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: p.asDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Database: DatabaseConfig{
			URL:         getEnv("DATABASE_URL", ""),
			MaxConns:    p.asInt("DB_MAX_CONNS", 10),
			AutoMigrate: p.asBool("DB_AUTO_MIGRATE", false),
		},
		Rent: RentConfig{
			IndexPath: getEnv("RENT_INDEX_PATH", "fairmarketrent.xlsx"),
			Sheet:     getEnv("RENT_INDEX_SHEET", ""),
		},
		Geocoder: GeocoderConfig{
			URL:               getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:         getEnv("GEOCODER_USER_AGENT", "fair_market_rent_app"),
			Timeout:           p.asDuration("GEOCODER_TIMEOUT", 5*time.Second),
			RequestsPerSecond: p.asFloat("GEOCODER_RPS", 1),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       p.asInt("REDIS_DB", 0),
			CacheTTL: p.asDuration("GEOCODE_CACHE_TTL", 24*time.Hour),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "brrrr-analyzer"),
		},
	}

	if err := p.err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that parsing alone cannot.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if c.Database.MaxConns < 1 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be at least 1"))
	}
	if c.Geocoder.Timeout <= 0 {
		errs = append(errs, errors.New("GEOCODER_TIMEOUT must be positive"))
	}
	if c.Geocoder.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("GEOCODER_RPS must be positive"))
	}
	if c.Redis.CacheTTL <= 0 {
		errs = append(errs, errors.New("GEOCODE_CACHE_TTL must be positive"))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envParser collects conversion errors so every bad variable is reported.
type envParser struct {
	errs []error
}

func (p *envParser) fail(key, value string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (p *envParser) err() error {
	return errors.Join(p.errs...)
}

func (p *envParser) asInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		p.fail(key, valueStr, err)
		return defaultValue
	}
	return value
}

func (p *envParser) asFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		p.fail(key, valueStr, err)
		return defaultValue
	}
	return value
}

func (p *envParser) asBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		p.fail(key, valueStr, err)
		return defaultValue
	}
	return value
}

func (p *envParser) asDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		p.fail(key, valueStr, err)
		return defaultValue
	}
	return value
}
