package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	redisbroker "github.com/jwalitptl/flow-api/pkg/messaging/redis"
	"github.com/jwalitptl/flow-api/pkg/worker"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Model    ModelConfig
	Clock    ClockConfig
	Worker   WorkerConfig
	Outbox   OutboxConfig
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL            string `mapstructure:"url"`
	MaxRetries     int    `mapstructure:"max_retries"`
	RetryBackoffMS int    `mapstructure:"retry_backoff_ms"`
	PoolSize       int    `mapstructure:"pool_size"`
	MinIdleConns   int    `mapstructure:"min_idle_conns"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

// ModelConfig tunes the regression forest. Defaults mirror the values the
// model was validated with; the prediction fallback of 30 minutes is part of
// the service contract and deliberately not configurable.
type ModelConfig struct {
	Trees           int     `mapstructure:"trees"`
	MaxDepth        int     `mapstructure:"max_depth"`
	MinLeafSize     int     `mapstructure:"min_leaf_size"`
	Seed            int64   `mapstructure:"seed"`
	HoldoutFraction float64 `mapstructure:"holdout_fraction"`
}

// ClockConfig seeds the simulated clock. An empty start time means the
// process boots on wall clock time.
type ClockConfig struct {
	StartTime string `mapstructure:"start_time"`
}

type WorkerConfig struct {
	SweepIntervalSeconds   int `mapstructure:"sweep_interval_seconds"`
	RetrainIntervalMinutes int `mapstructure:"retrain_interval_minutes"`
}

type OutboxConfig struct {
	Channel             string `mapstructure:"channel"`
	BatchSize           int    `mapstructure:"batch_size"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds"`
	RetryAttempts       int    `mapstructure:"retry_attempts"`
	RetryDelaySeconds   int    `mapstructure:"retry_delay_seconds"`
	RetentionDays       int    `mapstructure:"retention_days"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("FLOW")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeout_seconds", 30)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.name", "flow_db")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("redis.url", "redis://localhost:6379/0")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.retry_backoff_ms", 100)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 2)

	viper.SetDefault("jwt.secret", "dev-secret-do-not-use")
	viper.SetDefault("jwt.expiry_hours", 24)

	viper.SetDefault("model.trees", 100)
	viper.SetDefault("model.max_depth", 0)
	viper.SetDefault("model.min_leaf_size", 1)
	viper.SetDefault("model.seed", 42)
	viper.SetDefault("model.holdout_fraction", 0.2)

	viper.SetDefault("clock.start_time", "")

	viper.SetDefault("worker.sweep_interval_seconds", 60)
	viper.SetDefault("worker.retrain_interval_minutes", 0)

	viper.SetDefault("outbox.channel", "events")
	viper.SetDefault("outbox.batch_size", 100)
	viper.SetDefault("outbox.poll_interval_seconds", 5)
	viper.SetDefault("outbox.retry_attempts", 3)
	viper.SetDefault("outbox.retry_delay_seconds", 5)
	viper.SetDefault("outbox.retention_days", 7)
}

// ToBrokerConfig converts the redis section into broker settings.
func (c *Config) ToBrokerConfig() redisbroker.Config {
	return redisbroker.Config{
		URL:          c.Redis.URL,
		MaxRetries:   c.Redis.MaxRetries,
		RetryBackoff: time.Duration(c.Redis.RetryBackoffMS) * time.Millisecond,
		PoolSize:     c.Redis.PoolSize,
		MinIdleConns: c.Redis.MinIdleConns,
	}
}

// ToWorkerConfig converts the outbox section into processor settings.
func (c OutboxConfig) ToWorkerConfig() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		Channel:      c.Channel,
		BatchSize:    c.BatchSize,
		PollInterval: time.Duration(c.PollIntervalSeconds) * time.Second,
		MaxAttempts:  c.RetryAttempts,
		RetryDelay:   time.Duration(c.RetryDelaySeconds) * time.Second,
	}
}
