package batch

import (
	"github.com/kbukum/speechkit/audio"
	"github.com/kbukum/speechkit/config"
	"github.com/kbukum/speechkit/errors"
	"github.com/kbukum/speechkit/provider"
	"github.com/kbukum/speechkit/transcription"
	"github.com/kbukum/speechkit/validation"
)

// Config holds the batch transcriber settings.
type Config struct {
	// Model is a full model identifier or its short name.
	Model string                 `mapstructure:"model"`
	Audio audio.NormalizerConfig `mapstructure:"audio"`
}

// Factory returns a provider.Factory building batch transcribers around
// engine from a generic config map.
func Factory(engine Engine, opts ...Option) provider.Factory[transcription.Transcriber] {
	return func(cfg map[string]any) (transcription.Transcriber, error) {
		var bc Config
		if err := config.Decode(cfg, &bc); err != nil {
			return nil, errors.InvalidInput("config", err.Error())
		}
		if err := validation.Validate(bc); err != nil {
			return nil, err
		}
		model, err := transcription.ParseModel(bc.Model)
		if err != nil {
			return nil, err
		}
		all := append([]Option{
			WithModel(model),
			WithNormalizer(audio.NewNormalizer(bc.Audio)),
		}, opts...)
		return New(engine, all...), nil
	}
}
