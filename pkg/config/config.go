package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/keygate/pkg/licensing"
)

// Config holds every operator-tunable setting. Values come from the
// environment, optionally overridden by a YAML file for deployments that
// prefer files over env vars.
type Config struct {
	Port        string `envconfig:"PORT" yaml:"port" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" yaml:"database_url"`
	DataDir     string `envconfig:"DATA_DIR" yaml:"data_dir" default:"./data/licenses"`

	AdminUsername     string `envconfig:"ADMIN_USERNAME" yaml:"admin_username"`
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" yaml:"admin_password_hash"`
	AdminSecretKey    string `envconfig:"ADMIN_SECRET_KEY" yaml:"admin_secret_key"`

	// FeatureMode selects grant keying: "license" (default) or "tier"
	// for deployments created before grants moved to per-license keys.
	FeatureMode string `envconfig:"FEATURE_MODE" yaml:"feature_mode" default:"license"`

	// SeedDemoData enables the one-time demo license seed on an empty
	// store. Development convenience only.
	SeedDemoData bool `envconfig:"SEED_DEMO_DATA" yaml:"seed_demo_data"`

	LogLevel string `envconfig:"LOG_LEVEL" yaml:"log_level" default:"info"`
}

// Load reads configuration from the environment, then applies the YAML file
// at configPath on top when one is given
func Load(configPath string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that have a constrained value set
func (c *Config) Validate() error {
	if !licensing.FeatureMode(c.FeatureMode).Valid() {
		return fmt.Errorf("invalid FEATURE_MODE %q: must be %q or %q",
			c.FeatureMode, licensing.FeatureModeLicense, licensing.FeatureModeTier)
	}
	return nil
}

// Mode returns the configured feature mode
func (c *Config) Mode() licensing.FeatureMode {
	return licensing.FeatureMode(c.FeatureMode)
}
