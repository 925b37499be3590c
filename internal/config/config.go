// Package config resolves settings from flags, FIELDTRACE_* environment
// variables, an optional .env file and an optional config file, in that
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. FIELDTRACE_DATABASE_URL.
const EnvPrefix = "FIELDTRACE"

type Config struct {
	DatabaseURL  string `mapstructure:"database_url"`
	LogLevel     string `mapstructure:"log_level"`
	Schema       string `mapstructure:"schema"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"db":        "database_url",
	"log-level": "log_level",
	"schema":    "schema",
}

// Load reads the configuration. configFile may be empty; flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Ignoring .env: %v", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("database_url", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("schema", "")
	v.SetDefault("max_open_conns", 20)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// RequireDatabase reports a helpful error when no database was configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("no database configured: pass --db or set %s_DATABASE_URL", EnvPrefix)
	}
	return nil
}
