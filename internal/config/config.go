package config

import (
	"runtime"

	"github.com/spf13/viper"
)

// Config holds runtime configuration for a refinery run.
// Values are populated from .refinery.yaml, REFINERY_* env vars, and CLI
// flags.
type Config struct {
	SchemaDir string `mapstructure:"schema_dir"`
	Strict    bool   `mapstructure:"strict"`
	Workers   int    `mapstructure:"workers"`
	Verbose   bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() Config {
	viper.SetDefault("schema_dir", "schemas")
	viper.SetDefault("strict", false)
	viper.SetDefault("verbose", false)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	// A zero worker count means "pick for me": one parser per CPU.
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}
	return cfg
}
