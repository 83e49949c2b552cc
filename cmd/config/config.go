// Package config loads deck settings from defaults, an optional YAML file
// and DECK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gigurra/deck/cmd/common"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key for environment overrides.
const EnvPrefix = "DECK"

// Config holds every tunable of the player. Periods are in scheduler ticks.
type Config struct {
	MediaDir         string `mapstructure:"media_dir" validate:"required"`
	Extension        string `mapstructure:"extension" validate:"required,startswith=."`
	MaxSongs         int    `mapstructure:"max_songs" validate:"gt=0,lte=4096"`
	TickRate         int    `mapstructure:"tick_rate" validate:"gt=0,lte=10000"`
	EventQueueSize   int    `mapstructure:"event_queue_size" validate:"gt=0"`
	CommandQueueSize int    `mapstructure:"command_queue_size" validate:"gt=0"`
	TouchPeriod      int    `mapstructure:"touch_period" validate:"gt=0"`
	ReleaseTimeout   int    `mapstructure:"release_timeout" validate:"gt=0"`
	FramePeriod      int    `mapstructure:"frame_period" validate:"gt=0"`
	StreamPeriod     int    `mapstructure:"stream_period" validate:"gt=0"`
	IdlePeriod       int    `mapstructure:"idle_period" validate:"gt=0"`
	ChunkSize        string `mapstructure:"chunk_size" validate:"required"`
	BitRate          int    `mapstructure:"bit_rate" validate:"gt=0"`
	LogLevel         string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// DefaultConfig returns the values used when nothing else is configured.
func DefaultConfig() *Config {
	return &Config{
		MediaDir:         ".",
		Extension:        ".mp3",
		MaxSongs:         64,
		TickRate:         100,
		EventQueueSize:   32,
		CommandQueueSize: 8,
		TouchPeriod:      10,
		ReleaseTimeout:   4,
		FramePeriod:      20,
		StreamPeriod:     1,
		IdlePeriod:       20,
		ChunkSize:        "1k",
		BitRate:          128000,
		LogLevel:         "info",
	}
}

// ConfigDir returns the deck config directory (~/.deck).
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".deck")
}

// ConfigPath returns the default config file (~/.deck/config.yaml).
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Load reads the config file at path from fs, applies DECK_* environment
// overrides and validates the result. A missing file is not an error; an
// empty path means ConfigPath.
func Load(fs afero.Fs, path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	v := viper.New()
	v.SetFs(fs)

	defaults := DefaultConfig()
	v.SetDefault("media_dir", defaults.MediaDir)
	v.SetDefault("extension", defaults.Extension)
	v.SetDefault("max_songs", defaults.MaxSongs)
	v.SetDefault("tick_rate", defaults.TickRate)
	v.SetDefault("event_queue_size", defaults.EventQueueSize)
	v.SetDefault("command_queue_size", defaults.CommandQueueSize)
	v.SetDefault("touch_period", defaults.TouchPeriod)
	v.SetDefault("release_timeout", defaults.ReleaseTimeout)
	v.SetDefault("frame_period", defaults.FramePeriod)
	v.SetDefault("stream_period", defaults.StreamPeriod)
	v.SetDefault("idle_period", defaults.IdlePeriod)
	v.SetDefault("chunk_size", defaults.ChunkSize)
	v.SetDefault("bit_rate", defaults.BitRate)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and that the chunk size parses.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if _, err := c.ChunkBytes(); err != nil {
		return fmt.Errorf("configuration validation failed: chunk_size: %w", err)
	}
	return nil
}

// ChunkBytes returns the streaming chunk size in bytes.
func (c *Config) ChunkBytes() (int, error) {
	n, err := common.ParseSize(c.ChunkSize)
	if err != nil {
		return 0, err
	}
	if n <= 0 || n > common.MB {
		return 0, fmt.Errorf("chunk size %d out of range", n)
	}
	return int(n), nil
}
