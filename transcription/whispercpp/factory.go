//go:build whispercpp

package whispercpp

import (
	"github.com/kbukum/speechkit/config"
	"github.com/kbukum/speechkit/errors"
	"github.com/kbukum/speechkit/provider"
	"github.com/kbukum/speechkit/transcription"
	"github.com/kbukum/speechkit/transcription/batch"
)

// ProviderName is the registered name for the whisper.cpp transcriber.
const ProviderName = "whispercpp"

// Factory returns a provider.Factory building batch transcribers backed by
// whisper.cpp. The map carries the batch keys (model, audio) next to the
// engine keys (models, language, threads).
func Factory(opts ...batch.Option) provider.Factory[transcription.Transcriber] {
	return func(cfg map[string]any) (transcription.Transcriber, error) {
		var ec Config
		if err := config.Decode(cfg, &ec); err != nil {
			return nil, errors.InvalidInput("config", err.Error())
		}
		engine, err := New(ec)
		if err != nil {
			return nil, err
		}
		return batch.Factory(engine, append([]batch.Option{batch.WithName(ProviderName)}, opts...)...)(cfg)
	}
}
