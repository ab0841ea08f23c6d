// Package config loads server settings from a YAML file with environment
// variable overrides.
package config

import (
	"errors"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/nickyhof/matview/remote"
)

// Config holds all settings for the matview server. Environment variables
// override YAML values. Secrets only come from the environment.
type Config struct {
	// Server
	Addr    string `yaml:"addr" env:"MATVIEW_ADDR" env-default:":3306"`
	DataDir string `yaml:"data_dir" env:"MATVIEW_DATA_DIR" env-default:""` // memory when empty
	Version string `yaml:"-"`

	// Session defaults for new connections
	Catalog string `yaml:"catalog" env:"MATVIEW_CATALOG" env-default:""`
	Schema  string `yaml:"schema" env:"MATVIEW_SCHEMA" env-default:""`

	// Rules is the location of the access rule file. Any location the remote
	// package can read is accepted. All access is allowed when empty.
	Rules string `yaml:"rules" env:"MATVIEW_RULES" env-default:""`

	TLS  TLSConfig  `yaml:"tls"`
	Auth AuthConfig `yaml:"auth"`
	Log  LogConfig  `yaml:"log"`

	S3 remote.S3Config `yaml:"s3"`
}

type TLSConfig struct {
	CertFile string `yaml:"cert_file" env:"MATVIEW_TLS_CERT" env-default:""`
	KeyFile  string `yaml:"key_file" env:"MATVIEW_TLS_KEY" env-default:""`
}

// Enabled reports whether both certificate and key are set.
func (c TLSConfig) Enabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// AuthConfig controls JWT authentication of connections.
type AuthConfig struct {
	Enabled    bool   `yaml:"enabled" env:"MATVIEW_AUTH_ENABLED" env-default:"false"`
	JWTSecret  string `yaml:"-" env:"MATVIEW_JWT_SECRET"` // Secret - not in YAML
	Issuer     string `yaml:"issuer" env:"MATVIEW_JWT_ISSUER" env-default:""`
	Audience   string `yaml:"audience" env:"MATVIEW_JWT_AUDIENCE" env-default:""`
	NameClaim  string `yaml:"name_claim" env:"MATVIEW_JWT_NAME_CLAIM" env-default:"name"`
	EmailClaim string `yaml:"email_claim" env:"MATVIEW_JWT_EMAIL_CLAIM" env-default:"email"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"MATVIEW_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"MATVIEW_LOG_FORMAT" env-default:"console"`
	Output string `yaml:"output" env:"MATVIEW_LOG_OUTPUT" env-default:"stderr"`
}

// Load reads path with environment overrides. An empty path reads the
// environment only.
func Load(path, version string) (*Config, error) {
	cfg := &Config{Version: version}

	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return errors.New("both tls cert_file and key_file must be provided together")
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return errors.New("auth is enabled but MATVIEW_JWT_SECRET is not set")
	}
	if c.Schema != "" && c.Catalog == "" {
		return errors.New("schema requires catalog")
	}
	return nil
}
