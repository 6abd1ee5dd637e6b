package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config carries all runtime settings. It is built once in main and passed
// to components explicitly; there is no process-wide settings object.
type Config struct {
	AppName     string      `mapstructure:"app_name"`
	ListenAddr  string      `mapstructure:"listen_addr"`
	DatabaseURL string      `mapstructure:"database_url"`
	SchemaName  string      `mapstructure:"schema_name"`
	LogLevel    string      `mapstructure:"log_level"`
	Grant       GrantConfig `mapstructure:"grant"`
}

// GrantConfig controls the daily credit grant job. Hour and Minute are UTC.
type GrantConfig struct {
	Amount int64 `mapstructure:"amount"`
	Hour   int   `mapstructure:"hour"`
	Minute int   `mapstructure:"minute"`
}

// Load reads configuration from the environment (SCHEMAD_ prefix) and an
// optional config file.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app_name", "schemad")
	// Registered with an empty default so AutomaticEnv can supply it.
	v.SetDefault("database_url", "")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("schema_name", "public")
	v.SetDefault("log_level", "info")
	v.SetDefault("grant.amount", 5)
	v.SetDefault("grant.hour", 0)
	v.SetDefault("grant.minute", 0)

	v.SetEnvPrefix("SCHEMAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.Grant.Amount <= 0 {
		return fmt.Errorf("grant.amount must be positive, got %d", c.Grant.Amount)
	}
	if c.Grant.Hour < 0 || c.Grant.Hour > 23 {
		return fmt.Errorf("grant.hour must be in [0,23], got %d", c.Grant.Hour)
	}
	if c.Grant.Minute < 0 || c.Grant.Minute > 59 {
		return fmt.Errorf("grant.minute must be in [0,59], got %d", c.Grant.Minute)
	}
	return nil
}
