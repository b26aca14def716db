// Package config resolves run settings from flags, environment and an
// optional TOML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/loykin/dumbmem/internal/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DUMBMEM_INTERVAL.
const EnvPrefix = "DUMBMEM"

const (
	DefaultInterval = 60 // seconds
	DefaultWake     = 100 * time.Millisecond
)

var (
	ErrInvalidInterval = errors.New("interval must be a whole number of seconds >= 1")
	ErrMissingOutput   = errors.New("output file is required")
)

// Config is the resolved configuration of one run.
type Config struct {
	Command  string        `toml:"command" mapstructure:"command"`
	Interval int           `toml:"interval" mapstructure:"interval"` // seconds
	Output   string        `toml:"output" mapstructure:"output"`
	Wake     time.Duration `toml:"wake" mapstructure:"wake"`
	Log      logger.Config `toml:"log" mapstructure:"log"`
	Metrics  MetricsConfig `toml:"metrics" mapstructure:"metrics"`
}

type MetricsConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

// IntervalDuration is Interval as a time.Duration.
func (c Config) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// Validate checks the settings that must hold before anything is started.
// The command itself is checked when it is tokenized.
func (c *Config) Validate() error {
	if c.Interval < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidInterval, c.Interval)
	}
	if strings.TrimSpace(c.Output) == "" {
		return ErrMissingOutput
	}
	if c.Wake <= 0 {
		c.Wake = DefaultWake
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"interval":          "interval",
	"output":            "output",
	"log-level":         "log.level",
	"log-format":        "log.format",
	"log-file":          "log.file.path",
	"metrics-listen":    "metrics.listen",
	"metrics-base-path": "metrics.base_path",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("command", "")
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("output", "")
	v.SetDefault("wake", DefaultWake)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.color", true)
	v.SetDefault("log.show_time", false)
	v.SetDefault("log.file.path", "")
	v.SetDefault("log.file.max_size_mb", logger.DefaultMaxSizeMB)
	v.SetDefault("log.file.max_backups", logger.DefaultMaxBackups)
	v.SetDefault("log.file.max_age_days", logger.DefaultMaxAgeDays)
	v.SetDefault("log.file.compress", false)
	v.SetDefault("metrics.listen", "")
	v.SetDefault("metrics.base_path", "")
}

// Load resolves the configuration. Precedence, highest first: flags set on
// the command line, DUMBMEM_* environment variables, the TOML file at path
// (optional), then defaults. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
