package transcription

import (
	"context"

	"github.com/kbukum/speechkit/audio"
	"github.com/kbukum/speechkit/provider"
)

// Transcriber is implemented by every speech-to-text backend.
type Transcriber interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Transcribe converts the audio to text. Progress, when requested in
	// opts, is reported before Transcribe returns.
	Transcribe(ctx context.Context, in audio.Input, opts Options) (string, error)
}

// ProgressFunc receives the best-known transcript text so far.
//
// Batch backends call it once with the final transcript. Streaming backends
// call it once per output chunk with that chunk's parsed text, in arrival
// order; it is a contribution, not a cumulative replay.
type ProgressFunc func(textSoFar string)

// Options are per-call settings. The zero value is valid.
type Options struct {
	// OnProgress is optional. Nil disables progress reporting.
	OnProgress ProgressFunc
}

// Report calls OnProgress when it is set.
func (o Options) Report(text string) {
	if o.OnProgress != nil {
		o.OnProgress(text)
	}
}
