package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Debug       bool   `yaml:"debug"`
	Logger      struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logger"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Postgres struct {
		DSN          string        `yaml:"dsn"`
		QueryTimeout time.Duration `yaml:"query_timeout"`
	} `yaml:"postgres"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Webhook struct {
		Secret             string        `yaml:"secret"`
		TimestampTolerance time.Duration `yaml:"timestamp_tolerance"`
		AllowedSymbols     []string      `yaml:"allowed_symbols"`
	} `yaml:"webhook"`
	Stats struct {
		Window int `yaml:"window"`
	} `yaml:"stats"`
	Cache struct {
		SignalTTL      time.Duration `yaml:"signal_ttl"`
		IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"kafka"`
	Generator struct {
		Enabled     bool          `yaml:"enabled"`
		Symbols     []string      `yaml:"symbols"`
		Timeframes  []string      `yaml:"timeframes"`
		MinInterval time.Duration `yaml:"min_interval"`
		MaxInterval time.Duration `yaml:"max_interval"`
	} `yaml:"generator"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("TV_WEBHOOK_SECRET"); v != "" {
		c.Webhook.Secret = v
	}
	if v := os.Getenv("ALLOWED_SYMBOLS"); v != "" {
		c.Webhook.AllowedSymbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	return c, nil
}

// Validate checks required fields and applies defaults for optional ones.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required")
	}
	if c.Webhook.Secret == "" {
		return fmt.Errorf("webhook.secret is required")
	}
	if len(c.Webhook.AllowedSymbols) == 0 {
		return fmt.Errorf("webhook.allowed_symbols cannot be empty")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.Webhook.TimestampTolerance == 0 {
		c.Webhook.TimestampTolerance = 10 * time.Minute
	}
	if c.Stats.Window == 0 {
		c.Stats.Window = 200
	}
	if c.Cache.SignalTTL == 0 {
		c.Cache.SignalTTL = 5 * time.Minute
	}
	if c.Cache.IdempotencyTTL == 0 {
		c.Cache.IdempotencyTTL = time.Hour
	}
	if c.Postgres.QueryTimeout == 0 {
		c.Postgres.QueryTimeout = 5 * time.Second
	}
	return nil
}
