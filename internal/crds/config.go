package crds

import (
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
)

// Config locates the reference cache and server.
type Config struct {
	Path        string `env:"CRDS_PATH" envDefault:"crds_cache"`
	Context     string `env:"CRDS_CONTEXT" envDefault:"tmt_0001.pmap"`
	ServerURL   string `env:"CRDS_SERVER_URL" envDefault:"https://crds-serverless-mode.stsci.edu"`
	Observatory string `env:"CRDS_OBSERVATORY" envDefault:"tmt"`
}

// LoadConfig reads the CRDS settings from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings are usable.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("CRDS_PATH must not be empty")
	}
	if c.Context == "" {
		return fmt.Errorf("CRDS_CONTEXT must not be empty")
	}
	if c.Observatory == "" {
		return fmt.Errorf("CRDS_OBSERVATORY must not be empty")
	}
	if c.ServerURL != "" {
		u, err := url.Parse(c.ServerURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CRDS_SERVER_URL %q is not an absolute URL", c.ServerURL)
		}
	}
	return nil
}
