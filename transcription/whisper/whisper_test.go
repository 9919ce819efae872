package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/kbukum/speechkit/audio"
	"github.com/kbukum/speechkit/errors"
	"github.com/kbukum/speechkit/transcription"
)

func sidecar(t *testing.T, handler http.HandlerFunc) *Engine {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	e, err := NewEngine(Config{URL: srv.URL, Language: "en"})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestInferUploadsSamples(t *testing.T) {
	samples := []float32{0.25, -0.5, 1}
	e := sidecar(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-tiny" {
			t.Errorf("expected short model name, got %q", got)
		}
		if r.FormValue("language") != "en" || r.FormValue("format") != "f32le" || r.FormValue("sample_rate") != "16000" {
			t.Errorf("unexpected fields %v", r.MultipartForm.Value)
		}
		f, _, err := r.FormFile("audio")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		data, _ := io.ReadAll(f)
		got := audio.DecodeFloat32LE(data)
		if len(got) != len(samples) || got[1] != samples[1] {
			t.Errorf("samples not round-tripped: %v", got)
		}
		_ = json.NewEncoder(w).Encode(whisperResponse{
			Text: " Hello world. Again.",
			Segments: []whisperSegment{
				{Text: " Hello world.", Start: 0, End: 1.5},
				{Text: " Again.", Start: 1.5, End: 2},
			},
		})
	})

	results, err := e.Infer(context.Background(), transcription.ModelWhisperTiny, samples, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 || results[0].Text != "Hello world." || results[1].Text != "Again." {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestInferTextOnlyResponse(t *testing.T) {
	e := sidecar(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text":" just text "}`))
	})
	results, err := e.Infer(context.Background(), transcription.DefaultModel, []float32{0}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Text != "just text" {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestInferErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   errors.ErrorCode
	}{
		{"server error", http.StatusInternalServerError, "cuda oom", errors.ErrCodeExternalService},
		{"rejected", http.StatusUnprocessableEntity, "bad audio", errors.ErrCodeInvalidInput},
		{"bad json", http.StatusOK, "{not json", errors.ErrCodeEngineInference},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := sidecar(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := e.Infer(context.Background(), transcription.DefaultModel, []float32{0}, nil)
			if !errors.HasCode(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestInferRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	e, err := NewEngine(Config{URL: srv.URL, Retries: 2})
	if err != nil {
		t.Fatal(err)
	}
	results, err := e.Infer(context.Background(), transcription.DefaultModel, []float32{0}, nil)
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if results[0].Text != "ok" || calls.Load() != 2 {
		t.Errorf("unexpected results %+v after %d calls", results, calls.Load())
	}
}

func TestIsAvailable(t *testing.T) {
	healthy := sidecar(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	if !healthy.IsAvailable(context.Background()) {
		t.Error("expected available")
	}

	down := sidecar(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if down.IsAvailable(context.Background()) {
		t.Error("expected unavailable")
	}
}

func TestFactory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"segments":[{"text":"one"},{"text":"two"}]}`))
	}))
	defer srv.Close()

	tr, err := Factory()(map[string]any{"url": srv.URL, "model": "whisper-small", "timeout": "5s"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Name() != ProviderName {
		t.Errorf("expected name %q, got %q", ProviderName, tr.Name())
	}

	var progress []string
	pcm := audio.EncodeFloat32LE([]float32{0.1, 0.2})
	text, err := tr.Transcribe(context.Background(), audio.FromStream(bytes.NewReader(pcm)), transcription.Options{
		OnProgress: func(s string) { progress = append(progress, s) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if text != "one\ntwo" || len(progress) != 1 || progress[0] != text {
		t.Errorf("unexpected text %q progress %q", text, progress)
	}

	if _, err := Factory()(map[string]any{"url": "::bad"}); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for bad url, got %v", err)
	}
	if _, err := Factory()(map[string]any{"model": "nope"}); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for unknown model, got %v", err)
	}
}
