package models

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kbukum/speechkit/errors"
	"github.com/kbukum/speechkit/transcription"
	"github.com/kbukum/speechkit/transcription/batch"
)

func modelServer(t *testing.T, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/ggml-tiny.bin" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type eventLog struct {
	mu     sync.Mutex
	events []batch.Event
}

func (l *eventLog) record(e batch.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) kinds() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.events {
		out = append(out, string(e.Kind))
	}
	return out
}

func TestLookup(t *testing.T) {
	for _, m := range transcription.Models() {
		e, err := Lookup(m)
		if err != nil {
			t.Errorf("expected a catalog entry for %s: %v", m, err)
			continue
		}
		if !strings.HasPrefix(e.File, "ggml-") || e.SizeBytes <= 0 {
			t.Errorf("unexpected entry %+v", e)
		}
	}
	if _, err := Lookup("acme/unknown"); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
	if len(Catalog()) != len(transcription.Models()) {
		t.Error("catalog must cover every model")
	}
}

func TestFetchDownloadsOnce(t *testing.T) {
	var hits atomic.Int32
	srv := modelServer(t, "ggml-model-bytes", &hits)
	dir := filepath.Join(t.TempDir(), "models")

	cache, err := NewCache(Config{Dir: dir, BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if cache.Cached(transcription.ModelWhisperTiny) {
		t.Fatal("expected empty cache")
	}

	var log eventLog
	path, err := cache.Fetch(context.Background(), transcription.ModelWhisperTiny, log.record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(dir, "ggml-tiny.bin") {
		t.Errorf("unexpected path %s", path)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "ggml-model-bytes" {
		t.Errorf("unexpected content %q", data)
	}
	if _, err := os.Stat(path + downloadSuffix); !os.IsNotExist(err) {
		t.Error("temp download file left behind")
	}

	want := "initiate,download,progress,done"
	if got := strings.Join(log.kinds(), ","); got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
	last := log.events[2]
	if last.Loaded != int64(len("ggml-model-bytes")) || last.Percent() != 100 {
		t.Errorf("unexpected progress event %+v", last)
	}

	var again eventLog
	if _, err := cache.Fetch(context.Background(), transcription.ModelWhisperTiny, again.record); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 1 {
		t.Errorf("expected a single download, got %d", hits.Load())
	}
	if got := strings.Join(again.kinds(), ","); got != "initiate" {
		t.Errorf("cached fetch should only initiate, got %s", got)
	}
}

func TestFetchConcurrent(t *testing.T) {
	var hits atomic.Int32
	srv := modelServer(t, "ggml", &hits)
	cache, _ := NewCache(Config{Dir: t.TempDir(), BaseURL: srv.URL})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Fetch(context.Background(), transcription.ModelWhisperTiny, nil); err != nil {
				t.Errorf("fetch: %v", err)
			}
		}()
	}
	wg.Wait()
	if hits.Load() != 1 {
		t.Errorf("expected concurrent fetches to share one download, got %d", hits.Load())
	}
}

func TestFetchFailures(t *testing.T) {
	var hits atomic.Int32
	srv := modelServer(t, "", &hits)

	t.Run("not found", func(t *testing.T) {
		cache, _ := NewCache(Config{Dir: t.TempDir(), BaseURL: srv.URL})
		_, err := cache.Fetch(context.Background(), transcription.ModelWhisperSmall, nil)
		if !errors.HasCode(err, errors.ErrCodeEngineUnavailable) {
			t.Fatalf("expected ENGINE_UNAVAILABLE, got %v", err)
		}
		if cache.Cached(transcription.ModelWhisperSmall) {
			t.Error("failed download must not be cached")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		dir := t.TempDir()
		cache, _ := NewCache(Config{Dir: dir, BaseURL: srv.URL})
		_, err := cache.Fetch(context.Background(), transcription.ModelWhisperTiny, nil)
		if !errors.HasCode(err, errors.ErrCodeEngineUnavailable) {
			t.Fatalf("expected ENGINE_UNAVAILABLE, got %v", err)
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("expected no files after a failed download, got %d", len(entries))
		}
	})

	t.Run("offline", func(t *testing.T) {
		before := hits.Load()
		cache, _ := NewCache(Config{Dir: t.TempDir(), BaseURL: srv.URL, Offline: true})
		_, err := cache.Fetch(context.Background(), transcription.ModelWhisperTiny, nil)
		if !errors.HasCode(err, errors.ErrCodeEngineUnavailable) {
			t.Fatalf("expected ENGINE_UNAVAILABLE, got %v", err)
		}
		if hits.Load() != before {
			t.Error("offline cache must not download")
		}
	})

	t.Run("canceled", func(t *testing.T) {
		cache, _ := NewCache(Config{Dir: t.TempDir(), BaseURL: srv.URL})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := cache.Fetch(ctx, transcription.ModelWhisperTiny, nil)
		if !errors.HasCode(err, errors.ErrCodeTimeout) {
			t.Fatalf("expected TIMEOUT, got %v", err)
		}
	})

	t.Run("unknown model", func(t *testing.T) {
		cache, _ := NewCache(Config{Dir: t.TempDir(), BaseURL: srv.URL})
		if _, err := cache.Fetch(context.Background(), "acme/unknown", nil); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
			t.Fatalf("expected INVALID_INPUT, got %v", err)
		}
	})
}

func TestFetchUsesExistingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ggml-tiny.bin"), []byte("local"), 0o644); err != nil {
		t.Fatal(err)
	}
	cache, _ := NewCache(Config{Dir: dir, Offline: true})
	path, err := cache.Fetch(context.Background(), transcription.ModelWhisperTiny, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(dir, "ggml-tiny.bin") {
		t.Errorf("unexpected path %s", path)
	}
}

func TestNewCacheValidation(t *testing.T) {
	if _, err := NewCache(Config{}); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT without dir, got %v", err)
	}
	c, err := NewCache(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if c.cfg.BaseURL != DefaultBaseURL {
		t.Errorf("expected default base url, got %s", c.cfg.BaseURL)
	}
}
