// Package whisper is a batch.Engine backed by a faster-whisper HTTP sidecar.
// Samples are uploaded as raw little-endian float32 PCM.
package whisper

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/speechkit/audio"
	"github.com/kbukum/speechkit/config"
	"github.com/kbukum/speechkit/errors"
	"github.com/kbukum/speechkit/httpclient"
	"github.com/kbukum/speechkit/provider"
	"github.com/kbukum/speechkit/transcription"
	"github.com/kbukum/speechkit/transcription/batch"
)

const (
	// ProviderName is the registered name for the Whisper sidecar transcriber.
	ProviderName = "whisper"

	defaultWhisperURL     = "http://localhost:8387"
	defaultWhisperTimeout = 120 * time.Second

	sampleRate = 16000
)

var _ batch.Engine = (*Engine)(nil)

// Config holds configuration for the Whisper sidecar.
type Config struct {
	URL         string        `mapstructure:"url" validate:"omitempty,url"`
	Language    string        `mapstructure:"language"`
	Device      string        `mapstructure:"device"`
	ComputeType string        `mapstructure:"compute_type"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// Retries is the number of extra attempts for transient failures.
	Retries int `mapstructure:"retries" validate:"gte=0"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = defaultWhisperURL
	}
	if c.Timeout == 0 {
		c.Timeout = defaultWhisperTimeout
	}
}

// Engine sends each inference to the sidecar's /transcribe endpoint.
type Engine struct {
	cfg    Config
	client *httpclient.Client
}

// NewEngine creates a sidecar Engine. Defaults are applied to cfg.
func NewEngine(cfg Config) (*Engine, error) {
	cfg.ApplyDefaults()
	hc := httpclient.Config{
		Name:    "whisper sidecar",
		BaseURL: cfg.URL,
		Timeout: cfg.Timeout,
	}
	if cfg.Retries > 0 {
		hc.Retry = httpclient.DefaultRetryConfig()
		hc.Retry.MaxAttempts = cfg.Retries + 1
	}
	client, err := httpclient.New(hc)
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, client: client}, nil
}

// Name returns the engine name.
func (e *Engine) Name() string { return ProviderName }

// IsAvailable checks if the Whisper sidecar is reachable.
func (e *Engine) IsAvailable(ctx context.Context) bool {
	resp, err := e.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
	return err == nil && resp.StatusCode == http.StatusOK
}

// Infer uploads samples and returns one Result per sidecar segment, or the
// whole text when the sidecar sends no segments.
func (e *Engine) Infer(ctx context.Context, model transcription.Model, samples []float32, _ batch.EventFunc) ([]batch.Result, error) {
	fields := map[string]string{
		"model":       model.ShortName(),
		"format":      "f32le",
		"sample_rate": strconv.Itoa(sampleRate),
	}
	if e.cfg.Language != "" {
		fields["language"] = e.cfg.Language
	}
	if e.cfg.Device != "" {
		fields["device"] = e.cfg.Device
	}
	if e.cfg.ComputeType != "" {
		fields["compute_type"] = e.cfg.ComputeType
	}

	resp, err := e.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/transcribe",
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files: []httpclient.FileField{{
				FieldName:   "audio",
				FileName:    "audio.f32",
				ContentType: "application/octet-stream",
				Data:        audio.EncodeFloat32LE(samples),
			}},
		},
	})
	if err != nil {
		return nil, err
	}

	var result whisperResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, errors.EngineInference(ProviderName, err)
	}
	return result.results(), nil
}

// Factory returns a provider.Factory building batch transcribers backed by
// the sidecar. The map carries the batch keys (model, audio) next to the
// sidecar keys.
func Factory(opts ...batch.Option) provider.Factory[transcription.Transcriber] {
	return func(cfg map[string]any) (transcription.Transcriber, error) {
		var wc Config
		if err := config.Decode(cfg, &wc); err != nil {
			return nil, errors.InvalidInput("config", err.Error())
		}
		engine, err := NewEngine(wc)
		if err != nil {
			return nil, err
		}
		return batch.Factory(engine, append([]batch.Option{batch.WithName(ProviderName)}, opts...)...)(cfg)
	}
}

// --- internal Whisper API response types ---

type whisperResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
}

type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r *whisperResponse) results() []batch.Result {
	if len(r.Segments) == 0 {
		if text := strings.TrimSpace(r.Text); text != "" {
			return []batch.Result{{Text: text}}
		}
		return nil
	}
	out := make([]batch.Result, len(r.Segments))
	for i, seg := range r.Segments {
		out[i] = batch.Result{Text: strings.TrimSpace(seg.Text)}
	}
	return out
}
