//go:build whispercpp

package whispercpp

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/kbukum/speechkit/errors"
	"github.com/kbukum/speechkit/logger"
	"github.com/kbukum/speechkit/transcription"
	"github.com/kbukum/speechkit/transcription/batch"
	"github.com/kbukum/speechkit/transcription/whispercpp/models"
)

// EngineName identifies the engine in errors and logs.
const EngineName = "whispercpp"

var _ batch.Engine = (*Engine)(nil)

// Config holds the engine settings.
type Config struct {
	Models models.Config `mapstructure:"models"`
	// Language is a language code, or "auto" for detection.
	Language string `mapstructure:"language"`
	// Threads used for inference. Zero lets whisper.cpp decide.
	Threads uint `mapstructure:"threads"`
}

// Engine transcribes with whisper.cpp. Loaded models are shared between
// calls; every call gets its own inference context.
type Engine struct {
	cfg   Config
	cache *models.Cache
	log   *logger.Logger

	mu     sync.Mutex
	loaded map[transcription.Model]*slot
	closed bool
}

// slot guards loading of a single model.
type slot struct {
	mu    sync.Mutex
	model whisper.Model
}

// New creates an Engine. Nothing is loaded until the first Infer.
func New(cfg Config) (*Engine, error) {
	cache, err := models.NewCache(cfg.Models)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:    cfg,
		cache:  cache,
		log:    logger.Get(EngineName),
		loaded: make(map[transcription.Model]*slot),
	}, nil
}

// Name returns the engine name.
func (e *Engine) Name() string { return EngineName }

// IsAvailable reports whether the default model can be served: it is
// cached, or downloads are allowed.
func (e *Engine) IsAvailable(_ context.Context) bool {
	return !e.cfg.Models.Offline || e.cache.Cached(transcription.DefaultModel)
}

// Infer loads model if needed and transcribes samples. Each whisper
// segment becomes one Result. Canceling ctx aborts before the next
// encoder pass.
func (e *Engine) Infer(ctx context.Context, model transcription.Model, samples []float32, onEvent batch.EventFunc) ([]batch.Result, error) {
	m, err := e.load(ctx, model, onEvent)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Timeout("inference").WithCause(err)
	}

	wctx, err := m.NewContext()
	if err != nil {
		return nil, errors.EngineInference(EngineName, err)
	}
	e.configure(wctx)

	abort := func() bool { return ctx.Err() == nil }
	if err := wctx.Process(samples, abort, nil, nil); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Timeout("inference").WithCause(ctx.Err())
		}
		return nil, errors.EngineInference(EngineName, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Timeout("inference").WithCause(err)
	}

	var results []batch.Result
	for {
		seg, err := wctx.NextSegment()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.EngineInference(EngineName, err)
		}
		results = append(results, batch.Result{Text: strings.TrimSpace(seg.Text)})
	}
	e.log.Debug("inference complete", logger.Fields(logger.FieldModel, string(model), "samples", len(samples), "segments", len(results)))
	return results, nil
}

func (e *Engine) configure(wctx whisper.Context) {
	if lang := e.cfg.Language; lang != "" {
		if err := wctx.SetLanguage(lang); err != nil {
			e.log.Warn("language not supported by model", logger.Fields("language", lang, logger.FieldError, err.Error()))
		}
	}
	if e.cfg.Threads > 0 {
		wctx.SetThreads(e.cfg.Threads)
	}
	wctx.SetTranslate(false)
}

func (e *Engine) load(ctx context.Context, model transcription.Model, onEvent batch.EventFunc) (whisper.Model, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, errors.EngineUnavailable(EngineName, stderrors.New("engine closed"))
	}
	s, ok := e.loaded[model]
	if !ok {
		s = &slot{}
		e.loaded[model] = s
	}
	e.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model != nil {
		return s.model, nil
	}

	path, err := e.cache.Fetch(ctx, model, onEvent)
	if err != nil {
		return nil, err
	}
	m, err := whisper.New(path)
	if err != nil {
		return nil, errors.EngineUnavailable(EngineName, err).WithDetail(logger.FieldModel, string(model))
	}
	s.model = m
	e.log.Info("model loaded", logger.Fields(logger.FieldModel, string(model), "file", path, "multilingual", m.IsMultilingual()))
	onEvent.Emit(batch.Event{Kind: batch.EventReady, Model: model, File: path})
	return m, nil
}

// Close releases every loaded model. Later calls fail with ENGINE_UNAVAILABLE.
func (e *Engine) Close(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	var errs []error
	for model, s := range e.loaded {
		s.mu.Lock()
		if s.model != nil {
			errs = append(errs, s.model.Close())
			s.model = nil
		}
		s.mu.Unlock()
		delete(e.loaded, model)
	}
	return stderrors.Join(errs...)
}
