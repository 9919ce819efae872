// Package config loads speechkit configuration.
//
// Values come from a config.yml file, an optional .env file, and environment
// variables carrying the service prefix, in increasing order of precedence.
// Viper does the merging and mapstructure tags drive the unmarshal:
//
//	var cfg AppConfig
//	err := config.LoadConfig("speechkit", &cfg)
//
// With the default prefix, SPEECHKIT_TRANSCRIPTION_BACKEND=batch overrides
// transcription.backend. Project configs embed ServiceConfig with
// `mapstructure:",squash"` and call its ApplyDefaults and Validate first.
package config
