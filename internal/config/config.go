// Package config loads CLI settings from flags, environment, an optional
// .env file and an optional config file, and parses saved views.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/datsun80zx/fieldboard.git/internal/daterange"
	"github.com/datsun80zx/fieldboard.git/internal/logger"
)

// EnvPrefix prefixes every environment variable, e.g. FIELDBOARD_DATABASE_URL
const EnvPrefix = "FIELDBOARD"

// Config holds runtime configuration
type Config struct {
	Data        string `mapstructure:"data"`
	DatabaseURL string `mapstructure:"database-url"`
	TablePrefix string `mapstructure:"table-prefix"`
	Timezone    string `mapstructure:"timezone"`
	WeekStart   string `mapstructure:"week-start"`
	CacheSize   int    `mapstructure:"cache-size"`
	Views       string `mapstructure:"views"`
	JSON        bool   `mapstructure:"json"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
	File  string `mapstructure:"file"`
}

// SetDefaults registers every key so environment variables resolve during Unmarshal
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data", "")
	v.SetDefault("database-url", "")
	v.SetDefault("table-prefix", "")
	v.SetDefault("timezone", "Local")
	v.SetDefault("week-start", "monday")
	v.SetDefault("cache-size", 128)
	v.SetDefault("views", "")
	v.SetDefault("json", false)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")
}

// New returns a viper instance reading FIELDBOARD_* variables
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// LoadEnv loads .env style files into the process environment. Missing files
// are skipped; variables already set are never overridden.
func LoadEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "failed to load %s", path)
		}
	}
	return nil
}

// ReadFile merges a YAML/TOML/JSON config file into v
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}
	return nil
}

// Load unmarshals and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every value that is parsed later
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Resolver(); err != nil {
		return err
	}
	if c.CacheSize < 0 {
		return errors.Newf("cache-size must not be negative, got %d", c.CacheSize)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Location loads the configured time zone; empty means local time
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "invalid timezone %q", c.Timezone),
			"use an IANA name such as America/Chicago, or Local",
		)
	}
	return loc, nil
}

// Resolver returns a date resolver honouring week-start
func (c *Config) Resolver() (daterange.Resolver, error) {
	if c.WeekStart == "" {
		return daterange.DefaultResolver, nil
	}
	day, err := daterange.ParseWeekday(c.WeekStart)
	if err != nil {
		return daterange.Resolver{}, errors.WithHint(err, "set week-start to a weekday name such as monday or sunday")
	}
	return daterange.Resolver{WeekStart: day}, nil
}

// LoggerOptions maps the log settings onto logger.Options
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level: c.Log.Level,
		JSON:  c.Log.JSON,
		File:  c.Log.File,
	}
}
