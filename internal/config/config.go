package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// DefaultJWTSecret is only acceptable when APP_ENV=dev.
const DefaultJWTSecret = "dev-secret-change-me"

type Config struct {
	Port        string        `env:"APP_PORT, default=8080"`
	Env         string        `env:"APP_ENV, default=dev"`
	LogLevel    string        `env:"LOG_LEVEL, default=info"`
	FrontendURL string        `env:"FRONTEND_URL, default=http://localhost:4200"`
	JWTSecret   string        `env:"JWT_SECRET, default=dev-secret-change-me"`
	AccessTTL   time.Duration `env:"JWT_EXPIRES_IN, default=24h"`

	// AdminEmail may self-register as admin; every other requested admin role is capped.
	AdminEmail string `env:"ADMIN_EMAIL"`

	Database DatabaseConfig
	Redis    RedisConfig
	Limits   RateLimitConfig
	Deadline DeadlineConfig
}

type DatabaseConfig struct {
	Driver string `env:"DATABASE_DRIVER, default=postgres"`
	DSN    string `env:"DATABASE_DSN, default=host=localhost user=postgres password=postgres dbname=projecthub port=5432 sslmode=disable TimeZone=UTC"`
}

// RedisConfig enables cross-instance fan-out when Addr is set.
type RedisConfig struct {
	Addr    string `env:"REDIS_ADDR"`
	DB      int    `env:"REDIS_DB, default=0"`
	Channel string `env:"REDIS_CHANNEL, default=projecthub:events"`
}

type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS, default=20"`
	Burst int     `env:"RATE_LIMIT_BURST, default=40"`
}

type DeadlineConfig struct {
	Interval time.Duration `env:"DEADLINE_SWEEP_INTERVAL, default=15m"`
	Window   time.Duration `env:"DEADLINE_WARNING_WINDOW, default=24h"`
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("APP_PORT must not be empty")
	}
	if cfg.Database.DSN == "" {
		return errors.New("DATABASE_DSN must not be empty")
	}
	switch cfg.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.AccessTTL <= 0 {
		return errors.New("JWT_EXPIRES_IN must be positive")
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if cfg.Env != "dev" && cfg.JWTSecret == DefaultJWTSecret {
		return errors.New("JWT_SECRET must be changed outside dev")
	}
	return nil
}
