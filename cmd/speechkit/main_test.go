package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/speechkit/audio"
	"github.com/kbukum/speechkit/observability"
	"github.com/kbukum/speechkit/transcription"
)

const capture = `[00:00:00.000 --> 00:00:03.240]   -Good morning. This Tuesday is Election Day.
[00:00:03.240 --> 00:00:06.000]   After months of spirited debate and vigorous campaigning,
[00:00:06.000 --> 00:00:08.000]   -  
[00:00:08.000 --> 00:00:12.000]   The time has come to make our voices heard.
`

func TestRender(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := render(&buf, "text", "hello"); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "hello\n" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("segments", func(t *testing.T) {
		var buf bytes.Buffer
		if err := render(&buf, "segments", capture); err != nil {
			t.Fatal(err)
		}
		var segs []transcription.Segment
		if err := json.Unmarshal(buf.Bytes(), &segs); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(segs) != 4 || !segs[0].NewSpeaker || segs[0].Start != "00:00:00.000" {
			t.Errorf("unexpected segments %+v", segs)
		}
	})

	t.Run("turns", func(t *testing.T) {
		var buf bytes.Buffer
		if err := render(&buf, "turns", capture); err != nil {
			t.Fatal(err)
		}
		want := "[00:00:00.000 --> 00:00:06.000] Good morning. This Tuesday is Election Day. After months of spirited debate and vigorous campaigning,\n" +
			"[00:00:06.000 --> 00:00:12.000] The time has come to make our voices heard.\n"
		if buf.String() != want {
			t.Errorf("turns = %q, want %q", buf.String(), want)
		}
	})
}

func TestTranscribeCmdApply(t *testing.T) {
	cfg := TranscriptionConfig{Backend: "whispercli", Fallback: []string{"whisper", "whispercli"}}
	if got := strings.Join(cfg.Priority(), ","); got != "whispercli,whisper" {
		t.Errorf("priority = %s", got)
	}

	(&TranscribeCmd{Model: "whisper-small"}).apply(&cfg)
	for _, name := range []string{"whispercli", "whisper"} {
		if cfg.Backends[name]["model"] != "whisper-small" {
			t.Errorf("expected model override for %s, got %v", name, cfg.Backends[name])
		}
	}

	(&TranscribeCmd{Backend: "whisper"}).apply(&cfg)
	if got := strings.Join(cfg.Priority(), ","); got != "whisper" {
		t.Errorf("expected backend flag to replace priority, got %s", got)
	}
}

func TestTranscribeCmdInput(t *testing.T) {
	stdin := strings.NewReader("pcm")
	if in := (&TranscribeCmd{Input: "-"}).input(stdin); in.Kind() != audio.KindStream {
		t.Errorf("expected stream input for -, got %s", in.Kind())
	}
	in := (&TranscribeCmd{Input: "/data/a.wav"}).input(stdin)
	if in.Kind() != audio.KindFile || in.Path() != "/data/a.wav" {
		t.Errorf("expected file input, got %s", in)
	}
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := progressPrinter(&buf)
	p("Hello\nworld")
	p("")
	p("again")
	if buf.String() != "Hello\nworld\nagain\n" {
		t.Errorf("unexpected progress output %q", buf.String())
	}
}

func TestListModels(t *testing.T) {
	var buf bytes.Buffer
	if err := listModels(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(transcription.Models()) {
		t.Fatalf("expected a line per model, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "* "+string(transcription.DefaultModel)) {
		t.Errorf("expected default model marked first, got %q", lines[0])
	}
}

func testMetrics(t *testing.T) *observability.Metrics {
	t.Helper()
	m, err := observability.NewMetrics(observability.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestNewManagerWhisperCLI(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "whisper-cli")
	script := "#!/bin/sh\nprintf '%s\\n' '[00:00:00.000 --> 00:00:01.000]   hi there'\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	model := filepath.Join(dir, "ggml-base.bin")
	if err := os.WriteFile(model, []byte("ggml"), 0o644); err != nil {
		t.Fatal(err)
	}
	wav := filepath.Join(dir, "a.wav")
	if err := os.WriteFile(wav, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := TranscriptionConfig{
		Backend: "whispercli",
		Backends: map[string]map[string]any{
			"whispercli": {"binary": bin, "model_path": model, "skip_conversion": true},
		},
	}
	mgr, err := newManager(context.Background(), cfg, "test", testMetrics(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = mgr.CloseAll(context.Background()) }()

	tr, err := mgr.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var progress []string
	text, err := tr.Transcribe(context.Background(), audio.FromFile(wav), transcription.Options{
		OnProgress: func(s string) { progress = append(progress, s) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if text != "[00:00:00.000 --> 00:00:01.000]   hi there\n" {
		t.Errorf("unexpected transcript %q", text)
	}
	if strings.Join(progress, "") != "hi there" {
		t.Errorf("unexpected progress %q", progress)
	}
}

func TestNewManagerErrors(t *testing.T) {
	if _, err := newManager(context.Background(), TranscriptionConfig{Backend: "vosk"}, "test", testMetrics(t)); err == nil ||
		!strings.Contains(err.Error(), "not compiled") {
		t.Errorf("expected unknown backend error, got %v", err)
	}

	cfg := TranscriptionConfig{
		Backend:  "whispercli",
		Backends: map[string]map[string]any{"whispercli": {"binary": "definitely-not-a-real-binary-xyz", "model_path": "/nonexistent.bin"}},
	}
	if _, err := newManager(context.Background(), cfg, "test", testMetrics(t)); err == nil ||
		!strings.Contains(err.Error(), "no transcription backend") {
		t.Errorf("expected no-backend error, got %v", err)
	}
}

func TestAppConfigDefaults(t *testing.T) {
	var cfg AppConfig
	cfg.ApplyDefaults()
	if cfg.Transcription.Backend != "whispercli" || cfg.Name != "speechkit" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("logs must stay off stdout, got %q", cfg.Logging.Output)
	}
}

func TestLoadConfigDebugFlagOverridesLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected configured level warn, got %q", cfg.Logging.Level)
	}

	cfg, err = loadConfig(path, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Logging.Level != "debug" || !cfg.Debug {
		t.Errorf("expected --debug to force debug level, got %q", cfg.Logging.Level)
	}
}
