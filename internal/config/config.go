// Package config loads cmd/jevent's CLI defaults the way
// _examples/malpanez-tempus configures its own CLI: a config file plus
// environment variable overrides via viper. Library code under convert/ical
// never reads this package directly — the converter always takes explicit
// parameters; only the CLI entry point wires config values into the converter.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the CLI's resolved defaults.
type Config struct {
	ProdID          string `mapstructure:"prod_id"`
	DefaultTimeZone string `mapstructure:"default_timezone"`
	DefaultLocale   string `mapstructure:"default_locale"`
}

// Defaults returns the built-in fallback configuration.
func Defaults() Config {
	return Config{
		ProdID:          "-//mailcore//jevent//EN",
		DefaultTimeZone: "Etc/UTC",
		DefaultLocale:   "en",
	}
}

// Load resolves Config from (in ascending priority) built-in defaults,
// ~/.config/jevent/config.yaml, and JEVENT_* environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	v := viper.New()
	v.SetEnvPrefix("JEVENT")
	v.AutomaticEnv()
	v.SetDefault("prod_id", cfg.ProdID)
	v.SetDefault("default_timezone", cfg.DefaultTimeZone)
	v.SetDefault("default_locale", cfg.DefaultLocale)

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "jevent"))
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return cfg, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: decoding config: %w", err)
	}
	return cfg, nil
}
