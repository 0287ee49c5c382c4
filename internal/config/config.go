package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	AppEnv            string        `env:"APP_ENV" envDefault:"development"`
	Port              string        `env:"PORT" envDefault:"8080"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	RedisURL          string        `env:"REDIS_URL"` // empty selects the in-memory bus (single-process)
	JWTSecret         string        `env:"JWT_SECRET"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat         string        `env:"LOG_FORMAT" envDefault:"text"`
	MaxClientsPerRoom int           `env:"MAX_CLIENTS_PER_ROOM" envDefault:"200"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	InstanceHeartbeat time.Duration `env:"INSTANCE_HEARTBEAT" envDefault:"15s"`

	MaxConnections      int64   `env:"MAX_CONNECTIONS" envDefault:"5000"`
	MaxConnectionsPerIP int     `env:"MAX_CONNECTIONS_PER_IP" envDefault:"50"`
	ConnectionRate      float64 `env:"CONNECTION_RATE" envDefault:"10"`
	ConnectionBurst     int     `env:"CONNECTION_BURST" envDefault:"20"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(c.JWTSecret))
	}
	if c.MaxClientsPerRoom < 1 {
		return fmt.Errorf("MAX_CLIENTS_PER_ROOM must be positive, got %d", c.MaxClientsPerRoom)
	}
	if c.MaxConnections < 1 {
		return fmt.Errorf("MAX_CONNECTIONS must be positive, got %d", c.MaxConnections)
	}
	if c.MaxConnectionsPerIP < 1 {
		return fmt.Errorf("MAX_CONNECTIONS_PER_IP must be positive, got %d", c.MaxConnectionsPerIP)
	}
	return nil
}
