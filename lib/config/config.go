// Package config loads the toolkit's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skgsergio/bkp9151-toolkit/lib/bkp9151"
)

// EnvPrefix prefixes every environment override, e.g. BKP9151_PORT.
const EnvPrefix = "BKP9151_"

type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Redis   RedisConfig   `yaml:"redis"`
}

type SerialConfig struct {
	Port        string        `yaml:"port"`
	BaudRate    int           `yaml:"baud_rate"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"` // text or json
	Output   string `yaml:"output"` // stderr, stdout or file
	FilePath string `yaml:"file_path"`
	MaxSize  int    `yaml:"max_size_mb"`
	MaxAge   int    `yaml:"max_age_days"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
	History  int64  `yaml:"history"`
}

// GetDefaultConfig returns the configuration used when no file is given.
func GetDefaultConfig() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:        "/dev/ttyUSB0",
			BaudRate:    bkp9151.DefaultBaudRate,
			ReadTimeout: bkp9151.DefaultReadTimeout,
			SettleDelay: bkp9151.DefaultSettleDelay,
		},
		Log: LogConfig{
			Level:   "info",
			Format:  "text",
			Output:  "stderr",
			MaxSize: 10,
			MaxAge:  7,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9151",
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Channel: "bkp9151",
			History: 1000,
		},
	}
}

// LoadConfig reads path on top of the defaults, then applies environment
// overrides and validates the result. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := GetDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvPrefix + "PORT"); v != "" {
		cfg.Serial.Port = v
	}
	if v := os.Getenv(EnvPrefix + "BAUD"); v != "" {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sBAUD %q: %w", EnvPrefix, v, err)
		}
		cfg.Serial.BaudRate = baud
	}
	if v := os.Getenv(EnvPrefix + "SETTLE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sSETTLE_DELAY %q: %w", EnvPrefix, v, err)
		}
		cfg.Serial.SettleDelay = d
	}
	if v := os.Getenv(EnvPrefix + "READ_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sREAD_TIMEOUT %q: %w", EnvPrefix, v, err)
		}
		cfg.Serial.ReadTimeout = d
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvPrefix + "REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv(EnvPrefix + "REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	return nil
}

// Validate rejects settings that cannot work at all.
func (c *Config) Validate() error {
	var errs []error

	if c.Serial.Port == "" {
		errs = append(errs, errors.New("serial.port must be set"))
	}
	if c.Serial.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("serial.baud_rate must be positive, got %d", c.Serial.BaudRate))
	}
	if c.Serial.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("serial.read_timeout must be positive, got %v", c.Serial.ReadTimeout))
	}
	if c.Serial.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("serial.settle_delay must not be negative, got %v", c.Serial.SettleDelay))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	switch c.Log.Output {
	case "stderr", "stdout":
	case "file":
		if c.Log.FilePath == "" {
			errs = append(errs, errors.New("log.file_path is required when log.output is file"))
		}
	default:
		errs = append(errs, fmt.Errorf("log.output must be stderr, stdout or file, got %q", c.Log.Output))
	}

	if c.Redis.History < 0 {
		errs = append(errs, fmt.Errorf("redis.history must not be negative, got %d", c.Redis.History))
	}

	return errors.Join(errs...)
}

// Session returns the serial parameters in the form bkp9151.Dial expects.
func (c *Config) Session() bkp9151.SerialConfig {
	return bkp9151.SerialConfig{
		Device:      c.Serial.Port,
		BaudRate:    c.Serial.BaudRate,
		ReadTimeout: c.Serial.ReadTimeout,
	}
}
