package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// config holds CLI defaults that may come from a YAML file; flags override
// file values.
type config struct {
	FuncFilter string `yaml:"func_filter"`
	JSON       bool   `yaml:"json"`
	LogLevel   string `yaml:"log_level"`
}

func defaultConfig() *config {
	return &config{
		LogLevel: "info",
	}
}

func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return cfg, nil
}
