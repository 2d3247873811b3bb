package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is postgres, pgx or sqlite3.
	Driver       string        `yaml:"driver"`
	DSN          string        `yaml:"dsn"`
	LockTimeout  time.Duration `yaml:"lock_timeout"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	AutoMigrate  bool          `yaml:"auto_migrate"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// RedisConfig enables token revocation when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// KafkaConfig enables domain events when Broker is set.
type KafkaConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
}

type TelemetryConfig struct {
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	ServiceName  string  `yaml:"service_name"`
	SampleRate   float64 `yaml:"sample_rate"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "0.0.0.0:8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       "postgres",
			LockTimeout:  5 * time.Second,
			MaxOpenConns: 20,
			AutoMigrate:  true,
		},
		Auth: AuthConfig{
			TokenTTL: 30 * time.Minute,
		},
		Kafka: KafkaConfig{
			Topic: "officecrm.events",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "officecrm",
			SampleRate:  1,
		},
		Metrics: MetricsConfig{
			Namespace: "officecrm",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file and the process environment, later sources winning.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	// .env does not override variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv overrides cfg with the environment variables that are set.
func LoadFromEnv(cfg *Config) error {
	str := map[string]*string{
		"SERVER_ADDRESS":              &cfg.Server.Addr,
		"DB_DRIVER":                   &cfg.Database.Driver,
		"POSTGRES_CONN":               &cfg.Database.DSN,
		"JWT_SECRET":                  &cfg.Auth.JWTSecret,
		"REDIS_ADDR":                  &cfg.Redis.Addr,
		"REDIS_PASSWORD":              &cfg.Redis.Password,
		"KAFKA_BROKER":                &cfg.Kafka.Broker,
		"KAFKA_TOPIC":                 &cfg.Kafka.Topic,
		"OTEL_EXPORTER_OTLP_ENDPOINT": &cfg.Telemetry.OTLPEndpoint,
		"LOG_LEVEL":                   &cfg.Log.Level,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"DB_LOCK_TIMEOUT": &cfg.Database.LockTimeout,
		"TOKEN_TTL":       &cfg.Auth.TokenTTL,
	}
	for key, dst := range durations {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DB_AUTO_MIGRATE: %w", err)
		}
		cfg.Database.AutoMigrate = b
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "postgres", "pgx", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not one of postgres, pgx, sqlite3", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required (POSTGRES_CONN)"))
	}
	if c.Database.LockTimeout <= 0 {
		errs = append(errs, errors.New("database.lock_timeout must be positive"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required (JWT_SECRET)"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	return errors.Join(errs...)
}
