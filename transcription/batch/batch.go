// Package batch implements transcription.Transcriber on top of an
// in-process inference Engine that returns its whole transcript at once.
package batch

import (
	"context"
	"strings"

	"github.com/kbukum/speechkit/audio"
	"github.com/kbukum/speechkit/errors"
	"github.com/kbukum/speechkit/logger"
	"github.com/kbukum/speechkit/observability"
	"github.com/kbukum/speechkit/provider"
	"github.com/kbukum/speechkit/transcription"
)

// ProviderName is the registered name for the batch transcriber.
const ProviderName = "batch"

var (
	_ transcription.Transcriber = (*Transcriber)(nil)
	_ provider.Closeable        = (*Transcriber)(nil)
)

// Transcriber sends the normalized audio to an Engine in one call.
type Transcriber struct {
	name       string
	engine     Engine
	model      transcription.Model
	normalizer *audio.Normalizer
	onEvent    EventFunc
	log        *logger.Logger
}

// Option configures a Transcriber.
type Option func(*Transcriber)

// WithModel selects the model passed to the engine.
func WithModel(m transcription.Model) Option {
	return func(t *Transcriber) { t.model = m }
}

// WithNormalizer replaces the default audio normalizer.
func WithNormalizer(n *audio.Normalizer) Option {
	return func(t *Transcriber) { t.normalizer = n }
}

// WithName registers the transcriber under a backend name other than "batch".
func WithName(name string) Option {
	return func(t *Transcriber) { t.name = name }
}

// WithEventFunc receives engine events instead of the log.
func WithEventFunc(fn EventFunc) Option {
	return func(t *Transcriber) { t.onEvent = fn }
}

// New creates a batch Transcriber around engine.
func New(engine Engine, opts ...Option) *Transcriber {
	t := &Transcriber{
		name:   ProviderName,
		engine: engine,
		model:  transcription.DefaultModel,
	}
	for _, o := range opts {
		o(t)
	}
	t.log = logger.Get(t.name)
	if t.normalizer == nil {
		t.normalizer = audio.NewNormalizer(audio.NormalizerConfig{})
	}
	if t.onEvent == nil {
		t.onEvent = LogEvents(t.log)
	}
	return t
}

// Name returns the provider name.
func (t *Transcriber) Name() string { return t.name }

// IsAvailable defers to the engine when it can report availability.
func (t *Transcriber) IsAvailable(ctx context.Context) bool {
	if p, ok := t.engine.(interface{ IsAvailable(context.Context) bool }); ok {
		return p.IsAvailable(ctx)
	}
	return t.engine != nil
}

// Close releases engine resources when the engine holds any.
func (t *Transcriber) Close(ctx context.Context) error {
	if c, ok := t.engine.(provider.Closeable); ok {
		return c.Close(ctx)
	}
	return nil
}

// Transcribe runs one inference over the input's samples. The result texts
// are joined with newlines, reported once through opts, and returned.
func (t *Transcriber) Transcribe(ctx context.Context, in audio.Input, opts transcription.Options) (string, error) {
	nctx, span := observability.StartSpan(ctx, observability.SpanNormalize)
	samples, err := t.normalizer.Samples(nctx, in)
	span.End()
	if err != nil {
		return "", err
	}

	ictx, span := observability.StartSpan(ctx, observability.SpanInference)
	defer span.End()
	observability.SetSpanAttribute(ictx, observability.AttrModel, string(t.model))

	results, err := t.engine.Infer(ictx, t.model, samples, t.onEvent)
	if err != nil {
		err = inferenceError(t.engine.Name(), err)
		observability.SetSpanError(ictx, err)
		return "", err
	}

	text := Join(results)
	t.log.Debug("inference complete", logger.Fields(
		logger.FieldModel, string(t.model),
		"samples", len(samples),
		"results", len(results),
	))
	opts.Report(text)
	return text, nil
}

// Join newline-joins result texts in order.
func Join(results []Result) string {
	if len(results) == 1 {
		return results[0].Text
	}
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return strings.Join(texts, "\n")
}

// inferenceError keeps typed engine errors and wraps the rest.
func inferenceError(engine string, err error) error {
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	return errors.EngineInference(engine, err)
}
