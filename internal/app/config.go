package app

import (
	"fmt"
	"strings"

	"github.com/vk/irispipe/internal/crds"
)

// DefaultProfile is the profile used when none is given.
const DefaultProfile = "image2_iris"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// AssociationPath is the descriptor to calibrate. Only Run needs it.
	AssociationPath string
	// Profile is a profile name or a path to a profile file.
	Profile string
	// OutputDir overrides the profile's output directory when set.
	OutputDir   string
	ProfileDirs []string

	CRDS crds.Config

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Profile == "" {
		cfg.Profile = DefaultProfile
	}
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	if err := cfg.CRDS.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
