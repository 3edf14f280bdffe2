package cmd

import (
	"strings"

	"github.com/spf13/viper"
	"github.com/trickstertwo/xlog"
)

// Config is the resolved CLI configuration.
type Config struct {
	Log struct {
		Level   string `mapstructure:"level"`
		Console bool   `mapstructure:"console"`
	} `mapstructure:"log"`
	Observer struct {
		Workers    int `mapstructure:"workers"`
		BufferSize int `mapstructure:"buffer_size"`
	} `mapstructure:"observer"`
	Demo struct {
		Emits int  `mapstructure:"emits"`
		Once  bool `mapstructure:"once"`
	} `mapstructure:"demo"`
}

// SetDefaults registers the default values with viper.
func SetDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.console", true)
	viper.SetDefault("observer.workers", 0)
	viper.SetDefault("observer.buffer_size", 1024)
	viper.SetDefault("demo.emits", 3)
	viper.SetDefault("demo.once", false)
}

// Load resolves the configuration from viper.
func Load() (Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if cfg.Demo.Emits < 1 {
		cfg.Demo.Emits = 1
	}
	return cfg, nil
}

func (c Config) minLevel() xlog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return xlog.LevelDebug
	case "warn", "warning":
		return xlog.LevelWarn
	case "error":
		return xlog.LevelError
	default:
		return xlog.LevelInfo
	}
}
