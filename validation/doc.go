// Package validation checks backend and CLI configuration.
//
// Struct tag validation uses go-playground/validator and reports fields by
// their mapstructure key, so messages match what users write in config.yml:
//
//	type Config struct {
//	    Binary    string `mapstructure:"binary" validate:"required"`
//	    ModelPath string `mapstructure:"model_path" validate:"required"`
//	}
//	err := validation.Validate(cfg)
//
// Checks that need the filesystem or PATH go through the collector:
//
//	v := validation.New()
//	v.Executable("binary", cfg.Binary).File("model_path", cfg.ModelPath)
//	err := v.Validate()
//
// Both return *errors.AppError with code INVALID_INPUT and the offending
// fields under Details["fields"].
package validation
