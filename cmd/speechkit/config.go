package main

import (
	"github.com/kbukum/speechkit/config"
	"github.com/kbukum/speechkit/observability"
)

// AppConfig is the speechkit configuration file.
//
//	name: speechkit
//	transcription:
//	  backend: whispercli
//	  fallback: [whisper]
//	  backends:
//	    whispercli:
//	      model_path: /models/ggml-base.en.bin
//	    whisper:
//	      url: http://localhost:8387
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Transcription        TranscriptionConfig  `yaml:"transcription" mapstructure:"transcription"`
	Observability        observability.Config `yaml:"observability" mapstructure:"observability"`
}

// TranscriptionConfig selects and configures backends.
type TranscriptionConfig struct {
	// Backend is tried first.
	Backend string `yaml:"backend" mapstructure:"backend"`
	// Fallback backends are tried in order when Backend is unavailable.
	Fallback []string `yaml:"fallback" mapstructure:"fallback"`
	// Backends holds each backend's own settings, keyed by backend name.
	Backends map[string]map[string]any `yaml:"backends" mapstructure:"backends"`
}

// ApplyDefaults fills unset fields.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Observability.ApplyDefaults()
	if c.Transcription.Backend == "" {
		c.Transcription.Backend = "whispercli"
	}
}

// Priority returns the backends to try, in order, without duplicates.
func (c TranscriptionConfig) Priority() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range append([]string{c.Backend}, c.Fallback...) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func loadConfig(path string, debug bool) (*AppConfig, error) {
	var cfg AppConfig
	opts := []config.LoaderOption{}
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if err := config.LoadConfig("speechkit", &cfg, opts...); err != nil {
		return nil, err
	}
	// The flag wins over any configured level.
	if debug {
		cfg.Debug = true
		cfg.Logging.Level = "debug"
	}
	cfg.ApplyDefaults()
	if err := cfg.ServiceConfig.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
