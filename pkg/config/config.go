package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		HistoryDatabase  string        `yaml:"history_database"`
		ForecastDatabase string        `yaml:"forecast_database"`
		ForecastTable    string        `yaml:"forecast_table"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		RunsTopic    string        `yaml:"runs_topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Forecast struct {
		Levels      []string `yaml:"levels"`
		Model       string   `yaml:"model"`
		Granularity string   `yaml:"granularity"`
		Horizon     int      `yaml:"horizon"`
		Parallel    bool     `yaml:"parallel"`
		Overwrite   bool     `yaml:"overwrite"`
		Reconcile   bool     `yaml:"reconcile"`
		SampleLimit int      `yaml:"sample_limit"`
		Workers     int      `yaml:"workers"` // 0 = available parallelism minus one
	} `yaml:"forecast"`
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

	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.ClickHouse.Port = p
		}
	}
	if v := os.Getenv("CLICKHOUSE_USER"); v != "" {
		c.ClickHouse.User = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Host = host
		if ok {
			if p, err := strconv.Atoi(port); err == nil {
				c.Redis.Port = p
			}
		}
	}
	if v := os.Getenv("FORECAST_MODEL"); v != "" {
		c.Forecast.Model = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.ClickHouse.HistoryDatabase == "" {
		return fmt.Errorf("clickhouse.history_database is required")
	}
	if c.ClickHouse.ForecastDatabase == "" {
		return fmt.Errorf("clickhouse.forecast_database is required")
	}
	if c.ClickHouse.ForecastTable == "" {
		return fmt.Errorf("clickhouse.forecast_table is required")
	}
	switch c.Forecast.Model {
	case "", "seasonal-regression", "seasonal-arima", "panel-gbm":
	default:
		return fmt.Errorf("forecast.model must be one of seasonal-regression, seasonal-arima, panel-gbm, got %q", c.Forecast.Model)
	}
	switch c.Forecast.Granularity {
	case "", "daily", "weekly":
	default:
		return fmt.Errorf("forecast.granularity must be 'daily' or 'weekly', got %q", c.Forecast.Granularity)
	}
	if c.Forecast.Horizon < 0 {
		return fmt.Errorf("forecast.horizon must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
