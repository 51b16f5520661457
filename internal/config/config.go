// Package config loads the CLI configuration from an optional YAML file and
// PDVD_TRUST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigDir is the per-user configuration directory under $HOME
	DefaultConfigDir = ".pdvd-trust"
	// DefaultBackendURL is the public trust catalog
	DefaultBackendURL = "https://api-trusted.apps.sandbox.drogue.world"
	// EnvPrefix prefixes every environment override, e.g. PDVD_TRUST_BACKEND_URL
	EnvPrefix = "PDVD_TRUST"
)

// Config is the resolved CLI configuration
type Config struct {
	Backend  BackendConfig  `mapstructure:"backend"`
	Output   string         `mapstructure:"output"`
	Versions VersionsConfig `mapstructure:"versions"`
}

// BackendConfig locates the trust catalog
type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// VersionsConfig controls how version lists are ordered
type VersionsConfig struct {
	Order string `mapstructure:"order"`
}

// Load reads the config file and environment. configPath overrides the
// default location; a missing default file is not an error.
func Load(configPath string) (*Config, error) {
	return LoadFrom(New(), configPath)
}

// LoadFrom is Load on a caller supplied viper, typically one with command
// line flags already bound so that they take precedence over file and env.
func LoadFrom(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, DefaultConfigDir))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return Unmarshal(v)
}

// New returns a viper instance with defaults and environment binding applied.
// Callers may bind command line flags onto it before Unmarshal.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Unmarshal decodes and validates the configuration held by v
func Unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be fixed up later
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Backend.URL) == "" {
		return errors.New("backend.url must not be empty")
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout must not be negative, got %s", c.Backend.Timeout)
	}
	switch c.Output {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("output must be one of text, json, yaml; got %q", c.Output)
	}
	return nil
}

// setDefaults populates viper with sensible out-of-the-box values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", DefaultBackendURL)
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("output", "text")
	v.SetDefault("versions.order", "lexical")
}
