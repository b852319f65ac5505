// Package config loads application settings from an app.env file and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/MilanoDeveloper/FiapFintech/db"
	"github.com/MilanoDeveloper/FiapFintech/provider"
)

// DefaultEndpoint is the database the application was first deployed
// against. Account and secret have no defaults.
const DefaultEndpoint = "oracle:oracle.fiap.com.br:1521:orcl"

// Config holds all configuration for the application
type Config struct {
	DB     DatabaseConfig `mapstructure:",squash"`
	Logger LoggerConfig   `mapstructure:",squash"`
}

// DatabaseConfig holds configuration for the database
type DatabaseConfig struct {
	URL            string        `mapstructure:"DB_URL"`
	User           string        `mapstructure:"DB_USER"`
	Password       string        `mapstructure:"DB_PASSWORD"`
	ConnectTimeout time.Duration `mapstructure:"DB_CONNECT_TIMEOUT"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level     string        `mapstructure:"LOG_LEVEL"`
	Format    string        `mapstructure:"LOG_FORMAT"`
	SlowQuery time.Duration `mapstructure:"LOG_SLOW_QUERY"`
}

// Load reads configuration from <path>/app.env, if present, overlaid by
// environment variables. DB_USER and DB_PASSWORD are required unless the
// DB_URL scheme takes no credentials (sqlite3).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app") // Look for app.env
	v.SetConfigType("env")
	v.AutomaticEnv()
	// No defaults exist for these, so Unmarshal only sees them once bound.
	for _, key := range []string{"DB_USER", "DB_PASSWORD"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("fintech/config: bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("fintech/config: read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("fintech/config: decode: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_URL", DefaultEndpoint)
	v.SetDefault("DB_CONNECT_TIMEOUT", "10s")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_SLOW_QUERY", "200ms")
}

func (c *Config) validate() error {
	ep, err := db.ParseEndpoint(c.DB.URL)
	if err != nil {
		return fmt.Errorf("fintech/config: DB_URL: %w", err)
	}
	var missing []string
	if db.RequiresCredentials(ep) {
		if c.DB.User == "" {
			missing = append(missing, "DB_USER")
		}
		if c.DB.Password == "" {
			missing = append(missing, "DB_PASSWORD")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("fintech/config: required settings missing: %s", strings.Join(missing, ", "))
	}
	if _, err := ParseLevel(c.Logger.Level); err != nil {
		return err
	}
	switch c.Logger.Format {
	case "json", "text":
	default:
		return fmt.Errorf("fintech/config: LOG_FORMAT must be json or text, got %q", c.Logger.Format)
	}
	return nil
}

// Provider returns the connection settings in the shape the provider takes.
func (c *DatabaseConfig) Provider() provider.Config {
	return provider.Config{
		Endpoint: c.URL,
		Account:  c.User,
		Secret:   c.Password,
	}
}

// ParseLevel maps LOG_LEVEL onto a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("fintech/config: LOG_LEVEL: %w", err)
	}
	return lvl, nil
}
