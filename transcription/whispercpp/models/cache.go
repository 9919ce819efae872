package models

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kbukum/speechkit/errors"
	"github.com/kbukum/speechkit/httpclient"
	"github.com/kbukum/speechkit/logger"
	"github.com/kbukum/speechkit/transcription"
	"github.com/kbukum/speechkit/transcription/batch"
	"github.com/kbukum/speechkit/validation"
)

const (
	downloadSuffix = ".download"
	// progressStep is the byte distance between progress events.
	progressStep = 4 << 20
)

// Config configures the model cache.
type Config struct {
	// Dir holds downloaded model files.
	Dir string `mapstructure:"dir" validate:"required"`
	// BaseURL is joined with Entry.File to download a model.
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	// Offline disables downloads; models must already be in Dir.
	Offline bool `mapstructure:"offline"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
}

// Cache downloads each model at most once. Concurrent fetches of the same
// model wait for the first one; different models proceed in parallel.
type Cache struct {
	cfg    Config
	client *httpclient.Client
	log    *logger.Logger

	mu    sync.Mutex
	locks map[transcription.Model]*sync.Mutex
}

// NewCache creates a Cache. Defaults are applied to cfg.
func NewCache(cfg Config) (*Cache, error) {
	cfg.ApplyDefaults()
	if err := validation.Validate(cfg); err != nil {
		return nil, err
	}
	client, err := httpclient.New(httpclient.Config{Name: "model host", BaseURL: cfg.BaseURL})
	if err != nil {
		return nil, err
	}
	return &Cache{
		cfg:    cfg,
		client: client,
		log:    logger.Get("whispercpp.models"),
		locks:  make(map[transcription.Model]*sync.Mutex),
	}, nil
}

// Path returns where m is stored, whether or not it is present.
func (c *Cache) Path(m transcription.Model) (string, error) {
	e, err := Lookup(m)
	if err != nil {
		return "", err
	}
	return filepath.Join(c.cfg.Dir, e.File), nil
}

// Cached reports whether m is present in the cache directory.
func (c *Cache) Cached(m transcription.Model) bool {
	path, err := c.Path(m)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Fetch returns the local path of m, downloading it first when missing.
// Downloads land in a temporary file renamed into place on completion, so
// an interrupted download never leaves a partial model behind.
func (c *Cache) Fetch(ctx context.Context, m transcription.Model, onEvent batch.EventFunc) (string, error) {
	e, err := Lookup(m)
	if err != nil {
		return "", err
	}
	path := filepath.Join(c.cfg.Dir, e.File)
	onEvent.Emit(batch.Event{Kind: batch.EventInitiate, Model: m, File: e.File})

	lock := c.lock(m)
	lock.Lock()
	defer lock.Unlock()

	if c.Cached(m) {
		return path, nil
	}
	if c.cfg.Offline {
		return "", errors.EngineUnavailable("whispercpp", fmt.Errorf("model %s not in %s and downloads are disabled", e.File, c.cfg.Dir)).
			WithDetail(logger.FieldModel, string(m))
	}
	if err := c.download(ctx, e, path, onEvent); err != nil {
		return "", err
	}
	onEvent.Emit(batch.Event{Kind: batch.EventDone, Model: m, File: e.File})
	return path, nil
}

func (c *Cache) lock(m transcription.Model) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[m]
	if !ok {
		l = &sync.Mutex{}
		c.locks[m] = l
	}
	return l
}

func (c *Cache) download(ctx context.Context, e Entry, path string, onEvent batch.EventFunc) error {
	fail := func(err error) error {
		if ctx.Err() != nil {
			return errors.Timeout("model download").WithCause(err)
		}
		return errors.EngineUnavailable("whispercpp", err).WithDetail(logger.FieldModel, string(e.Model))
	}

	if err := os.MkdirAll(c.cfg.Dir, 0o750); err != nil {
		return fail(fmt.Errorf("create model dir: %w", err))
	}

	start := time.Now()
	resp, err := c.client.DoStream(ctx, httpclient.Request{Method: http.MethodGet, Path: e.File})
	if err != nil {
		return fail(err)
	}
	defer func() { _ = resp.Close() }()

	total := resp.ContentLength
	if total <= 0 {
		total = e.SizeBytes
	}
	onEvent.Emit(batch.Event{Kind: batch.EventDownload, Model: e.Model, File: e.File, Total: total})
	c.log.Info("downloading model", logger.Fields(logger.FieldModel, string(e.Model), "file", e.File, "bytes", total))

	tmp := path + downloadSuffix
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fail(fmt.Errorf("create temp file: %w", err))
	}

	pw := &progressWriter{w: f, emit: func(loaded int64) {
		onEvent.Emit(batch.Event{Kind: batch.EventProgress, Model: e.Model, File: e.File, Loaded: loaded, Total: total})
	}}
	_, copyErr := io.Copy(pw, resp.Body)
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr == nil && pw.n == 0 {
		copyErr = stderrors.New("empty model file")
	}
	if copyErr != nil {
		_ = os.Remove(tmp)
		return fail(copyErr)
	}
	pw.flush()

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fail(fmt.Errorf("rename model file: %w", err))
	}
	fields := logger.DurationFields("model download", time.Since(start))
	fields[logger.FieldModel] = string(e.Model)
	fields["file"] = path
	c.log.Info("model downloaded", fields)
	return nil
}

// progressWriter reports bytes written every progressStep bytes.
type progressWriter struct {
	w        io.Writer
	n        int64
	reported int64
	emit     func(loaded int64)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.n += int64(n)
	if p.n-p.reported >= progressStep {
		p.flush()
	}
	return n, err
}

func (p *progressWriter) flush() {
	if p.n != p.reported {
		p.reported = p.n
		p.emit(p.n)
	}
}
