// Package whispercli implements transcription.Transcriber by running the
// whisper.cpp command line recognizer and parsing its output as it streams.
package whispercli

import (
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/kbukum/speechkit/audio"
	"github.com/kbukum/speechkit/config"
	"github.com/kbukum/speechkit/errors"
	"github.com/kbukum/speechkit/logger"
	"github.com/kbukum/speechkit/observability"
	"github.com/kbukum/speechkit/process"
	"github.com/kbukum/speechkit/provider"
	"github.com/kbukum/speechkit/resilience"
	"github.com/kbukum/speechkit/transcription"
)

// ProviderName is the registered name for the whisper-cli transcriber.
const ProviderName = "whispercli"

// Dump file names written to Config.DumpDir.
const (
	StdoutDumpFile = "whisper-cli.stdout"
	StderrDumpFile = "whisper-cli.stderr"
)

var (
	_ transcription.Transcriber = (*Transcriber)(nil)
	_ provider.Initializable    = (*Transcriber)(nil)
)

// Converter brings a file into the format whisper-cli reads. It returns the
// input path when nothing had to change and a new path otherwise.
type Converter interface {
	EnsureWAV(ctx context.Context, path string) (string, error)
}

// Transcriber runs whisper-cli once per call.
type Transcriber struct {
	cfg        Config
	normalizer *audio.Normalizer
	converter  Converter
	runner     *process.Runner
	metrics    *observability.Metrics
	log        *logger.Logger
}

// Option configures a Transcriber.
type Option func(*Transcriber)

// WithConverter replaces the ffmpeg converter. Nil disables conversion.
func WithConverter(c Converter) Option {
	return func(t *Transcriber) { t.converter = c }
}

// WithNormalizer replaces the default audio normalizer.
func WithNormalizer(n *audio.Normalizer) Option {
	return func(t *Transcriber) { t.normalizer = n }
}

// WithMetrics records per-chunk progress metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(t *Transcriber) { t.metrics = m }
}

// New creates a Transcriber. Defaults are applied to cfg.
func New(cfg Config, opts ...Option) *Transcriber {
	cfg.ApplyDefaults()
	log := logger.Get(ProviderName)

	var rc provider.ResilienceConfig
	if cfg.MaxConcurrent > 0 {
		rc.Bulkhead = &resilience.BulkheadConfig{
			Name:          ProviderName,
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       -1,
		}
	}
	if cfg.CircuitBreaker != nil {
		cb := *cfg.CircuitBreaker
		if cb.Name == "" {
			cb.Name = ProviderName
		}
		cb.OnStateChange = func(name string, from, to resilience.State) {
			log.Warn("circuit state changed", logger.Fields(logger.FieldBackend, name, "from", from.String(), logger.FieldState, to.String()))
		}
		rc.CircuitBreaker = &cb
	}

	t := &Transcriber{
		cfg:    cfg,
		runner: process.NewRunner(ProviderName, rc),
		log:    log,
	}
	if !cfg.SkipConversion {
		t.converter = audio.NewConverter(cfg.FFmpeg)
	}
	for _, o := range opts {
		o(t)
	}
	if t.normalizer == nil {
		t.normalizer = audio.NewNormalizer(cfg.Audio)
	}
	return t
}

// Name returns the provider name.
func (t *Transcriber) Name() string { return ProviderName }

// IsAvailable reports whether the binary resolves and the model exists.
func (t *Transcriber) IsAvailable(_ context.Context) bool {
	if _, err := exec.LookPath(t.cfg.Binary); err != nil {
		return false
	}
	info, err := os.Stat(t.cfg.ModelPath)
	return err == nil && info.Mode().IsRegular()
}

// Init validates the configuration and the installation.
func (t *Transcriber) Init(_ context.Context) error {
	if err := t.cfg.Validate(); err != nil {
		return err
	}
	return t.cfg.CheckInstalled()
}

// Transcribe materializes and converts the input as needed, then runs
// whisper-cli on it. Each stdout chunk is parsed and its text reported
// through opts. The result is the complete raw stdout. Temp and converted
// files are removed afterwards whatever the outcome.
func (t *Transcriber) Transcribe(ctx context.Context, in audio.Input, opts transcription.Options) (string, error) {
	path, cleanup, err := t.normalizer.Path(ctx, in)
	if err != nil {
		return "", err
	}
	defer cleanup()

	wav, err := t.convert(ctx, path)
	if err != nil {
		return "", err
	}
	if wav != path {
		defer t.remove(wav)
	}

	return t.run(ctx, wav, opts)
}

func (t *Transcriber) convert(ctx context.Context, path string) (string, error) {
	if t.converter == nil {
		return path, nil
	}
	cctx, span := observability.StartSpan(ctx, observability.SpanConvert)
	defer span.End()
	observability.SetSpanAttribute(cctx, observability.AttrAudioPath, path)

	wav, err := t.converter.EnsureWAV(cctx, path)
	if err != nil {
		observability.SetSpanError(cctx, err)
		return "", err
	}
	return wav, nil
}

func (t *Transcriber) run(ctx context.Context, wav string, opts transcription.Options) (string, error) {
	rctx, span := observability.StartSpan(ctx, observability.SpanInference)
	defer span.End()
	observability.SetSpanAttribute(rctx, observability.AttrModel, t.cfg.ModelPath)

	log := t.log.WithContext(rctx).WithFields(logger.Fields(logger.FieldAudioPath, wav))
	s := newSession(opts, log)
	if t.metrics != nil {
		s.onChunk = func(n int) { t.metrics.RecordChunk(rctx, ProviderName, n) }
	}

	args := append([]string{"-m", t.cfg.ModelPath, "-f", wav}, t.cfg.ExtraArgs...)
	result, err := t.runner.Stream(rctx, process.Command{
		Binary:      t.cfg.Binary,
		Args:        args,
		GracePeriod: t.cfg.GracePeriod,
		OnStart:     s.started,
	}, s.chunk)

	t.dump(result)
	if result != nil {
		observability.SetSpanAttribute(rctx, observability.AttrExitCode, result.ExitCode)
	}
	if err != nil {
		observability.SetSpanError(rctx, err)
	}
	return s.finish(err)
}

// dump writes the raw process output to DumpDir. Failures are logged only.
func (t *Transcriber) dump(result *process.Result) {
	if t.cfg.DumpDir == "" || result == nil {
		return
	}
	files := map[string][]byte{
		StdoutDumpFile: result.Stdout,
		StderrDumpFile: result.Stderr,
	}
	for name, data := range files {
		path := filepath.Join(t.cfg.DumpDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.log.Warn("dump write failed", logger.Fields(logger.FieldAudioPath, path, logger.FieldError, err.Error()))
		}
	}
}

// remove deletes a conversion artifact. Failures are logged and otherwise ignored.
func (t *Transcriber) remove(path string) {
	if err := os.Remove(path); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		t.log.Warn("conversion artifact cleanup failed", logger.Fields(logger.FieldAudioPath, path, logger.FieldError, err.Error()))
	}
}

// Factory returns a provider.Factory that builds whisper-cli transcribers
// from a generic config map.
func Factory(opts ...Option) provider.Factory[transcription.Transcriber] {
	return func(cfg map[string]any) (transcription.Transcriber, error) {
		wc, err := decodeConfig(cfg)
		if err != nil {
			return nil, err
		}
		return New(wc, opts...), nil
	}
}

func decodeConfig(cfg map[string]any) (Config, error) {
	var wc Config
	if err := config.Decode(cfg, &wc); err != nil {
		return Config{}, errors.InvalidInput("config", err.Error())
	}
	wc.ApplyDefaults()
	if err := wc.Validate(); err != nil {
		return Config{}, err
	}
	return wc, nil
}
