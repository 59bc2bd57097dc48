package cmd

import (
	"github.com/mittwald/mittcheck/internal/config"
	"github.com/pkg/errors"
)

func loadConfig() (*config.Agent, error) {
	cfg := &config.Agent{}
	if err := cfg.GenerateFromConfigDir(configDir); err != nil {
		return nil, errors.Wrapf(err, "failed to load configuration from %q", configDir)
	}
	return cfg, nil
}
