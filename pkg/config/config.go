package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Storage backends selectable with STORE_DRIVER.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the process configuration, read from the environment.
type Config struct {
	AppEnv      string
	Port        string
	StoreDriver string

	Mongo    MongoConfig
	Postgres PostgresConfig

	// RedisAddr is optional. Without it the product listing cache is
	// disabled and rate limiting is per process.
	RedisAddr       string
	RedisPassword   string
	ProductCacheTTL time.Duration

	UploadDir string

	RateLimitMax    int
	RateLimitWindow time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the lib/pq connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// IsLocal reports whether the process runs against a developer machine.
func (c *Config) IsLocal() bool {
	return c.AppEnv == "local"
}

// Load builds a Config from the environment. Call LoadEnv first.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:      getenv("APP_ENV", "development"),
		Port:        getenv("PORT", "3000"),
		StoreDriver: getenv("STORE_DRIVER", DriverMongo),
		Mongo: MongoConfig{
			URI:      getenv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getenv("MONGO_DB", "pos_system"),
		},
		Postgres: PostgresConfig{
			Host:     getenv("DB_HOST", "localhost"),
			Port:     getenv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getenv("DB_NAME", "pos_system"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
		},
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		UploadDir:     getenv("UPLOAD_DIR", "./public/uploads"),
	}

	var err error
	if cfg.RateLimitMax, err = getenvInt("RATE_LIMIT_MAX", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = getenvDuration("RATE_LIMIT_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ProductCacheTTL, err = getenvDuration("PRODUCT_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case DriverMongo, DriverPostgres, DriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.RateLimitMax < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", cfg.RateLimitMax)
	}
	if cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", cfg.RateLimitWindow)
	}
	if cfg.ProductCacheTTL < 0 {
		return nil, fmt.Errorf("PRODUCT_CACHE_TTL must not be negative, got %s", cfg.ProductCacheTTL)
	}
	return cfg, nil
}

func getenv(key, d string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return d
}

func getenvInt(key string, d int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return d, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}

func getenvDuration(key string, d time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return d, nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return dur, nil
}
