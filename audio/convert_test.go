package audio

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/kbukum/speechkit/errors"
	"github.com/kbukum/speechkit/process"
)

const probePCM = `{"streams":[{"index":0,"codec_name":"pcm_s16le","codec_type":"audio","sample_fmt":"s16","sample_rate":"16000","channels":1}]}`

const probeMP3 = `{"streams":[{"index":0,"codec_name":"png","codec_type":"video"},{"index":1,"codec_name":"mp3","codec_type":"audio","sample_fmt":"fltp","sample_rate":"44100","channels":2}]}`

// writeScript creates an executable shell script and returns its path.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNeedsConversion(t *testing.T) {
	tests := []struct {
		name  string
		probe *ProbeResult
		want  bool
	}{
		{"pcm s16", &ProbeResult{Streams: []Stream{{CodecType: "audio", CodecName: "pcm_s16le", SampleFmt: "s16"}}}, false},
		{"no streams", &ProbeResult{}, true},
		{"video only", &ProbeResult{Streams: []Stream{{CodecType: "video", CodecName: "h264"}}}, true},
		{"float samples", &ProbeResult{Streams: []Stream{{CodecType: "audio", CodecName: "pcm_s16le", SampleFmt: "flt"}}}, true},
		{"other codec", &ProbeResult{Streams: []Stream{{CodecType: "audio", CodecName: "pcm_s16be", SampleFmt: "s16"}}}, true},
		{"nil probe", nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.probe.NeedsConversion(); got != tc.want {
				t.Errorf("NeedsConversion() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseProbe(t *testing.T) {
	res, err := parseProbe("a.mp3", &process.Result{Stdout: []byte(probeMP3)})
	if err != nil {
		t.Fatal(err)
	}
	a := res.Audio()
	if a == nil || a.Index != 1 || a.CodecName != "mp3" || a.Channels != 2 {
		t.Errorf("unexpected audio stream %+v", a)
	}

	_, err = parseProbe("a.mp3", &process.Result{Stdout: []byte("not json")})
	if !errors.HasCode(err, errors.ErrCodeFormatProbe) {
		t.Errorf("expected FORMAT_PROBE_ERROR, got %v", err)
	}
}

func TestProberPassesArguments(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	ffprobe := writeScript(t, dir, "ffprobe", `echo "$@" > `+argsFile+`; echo '`+probePCM+`'`)

	res, err := NewProber(ffprobe, 0).Probe(context.Background(), "/data/a.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.NeedsConversion() {
		t.Error("expected pcm file to need no conversion")
	}
	args, _ := os.ReadFile(argsFile)
	if string(args) != "-v quiet -print_format json -show_streams /data/a.wav\n" {
		t.Errorf("unexpected ffprobe args %q", args)
	}
}

func TestProberFailure(t *testing.T) {
	dir := t.TempDir()
	ffprobe := writeScript(t, dir, "ffprobe", `exit 1`)

	_, err := NewProber(ffprobe, 0).Probe(context.Background(), "/data/a.wav")
	if !errors.HasCode(err, errors.ErrCodeFormatProbe) {
		t.Fatalf("expected FORMAT_PROBE_ERROR, got %v", err)
	}

	_, err = NewProber(filepath.Join(dir, "missing"), 0).Probe(context.Background(), "/data/a.wav")
	if !errors.HasCode(err, errors.ErrCodeFormatProbe) {
		t.Fatalf("expected FORMAT_PROBE_ERROR for missing binary, got %v", err)
	}
}

func TestEnsureWAVAlreadyPCM(t *testing.T) {
	dir := t.TempDir()
	c := NewConverter(ConverterConfig{
		FFprobe: writeScript(t, dir, "ffprobe", `echo '`+probePCM+`'`),
		FFmpeg:  writeScript(t, dir, "ffmpeg", `echo should not run >&2; exit 1`),
	})

	out, err := c.EnsureWAV(context.Background(), "/data/a.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "/data/a.wav" {
		t.Errorf("expected original path, got %q", out)
	}
}

func TestEnsureWAVConverts(t *testing.T) {
	dir := t.TempDir()
	tmp := t.TempDir()
	src := filepath.Join(dir, "call.mp3")
	if err := os.WriteFile(src, []byte("ID3 original"), 0o600); err != nil {
		t.Fatal(err)
	}
	argsFile := filepath.Join(dir, "ffmpeg-args")
	// The last argument is the output path.
	ffmpeg := writeScript(t, dir, "ffmpeg", `echo "$@" > `+argsFile+`; for last; do :; done; echo converted > "$last"`)

	c := NewConverter(ConverterConfig{
		FFprobe: writeScript(t, dir, "ffprobe", `echo '`+probeMP3+`'`),
		FFmpeg:  ffmpeg,
		TempDir: tmp,
	})

	out, err := c.EnsureWAV(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(out) != tmp {
		t.Errorf("expected output under %s, got %q", tmp, out)
	}
	if base := filepath.Base(out); !strings.HasPrefix(base, "speechkit-wav-") || !strings.HasSuffix(base, ".wav") {
		t.Errorf("unexpected output name %q", base)
	}
	if data, _ := os.ReadFile(out); string(data) != "converted\n" {
		t.Errorf("unexpected converted content %q", data)
	}
	if data, _ := os.ReadFile(src); string(data) != "ID3 original" {
		t.Error("original file was modified")
	}
	args, _ := os.ReadFile(argsFile)
	want := "-i " + src + " -acodec pcm_s16le -ar 16000 -ac 1 -y " + out + "\n"
	if string(args) != want {
		t.Errorf("ffmpeg args = %q, want %q", args, want)
	}
}

func TestEnsureWAVUniquePerCall(t *testing.T) {
	dir := t.TempDir()
	tmp := t.TempDir()
	src := filepath.Join(dir, "call.mp3")
	if err := os.WriteFile(src, []byte("ID3 original"), 0o600); err != nil {
		t.Fatal(err)
	}
	c := NewConverter(ConverterConfig{
		FFprobe: writeScript(t, dir, "ffprobe", `echo '`+probeMP3+`'`),
		FFmpeg:  writeScript(t, dir, "ffmpeg", `for last; do :; done; echo converted > "$last"`),
		TempDir: tmp,
	})

	const calls = 4
	outs := make([]string, calls)
	errs := make([]error, calls)
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outs[i], errs[i] = c.EnsureWAV(context.Background(), src)
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := range outs {
		if errs[i] != nil {
			t.Fatalf("call %d: unexpected error: %v", i, errs[i])
		}
		if outs[i] == src || seen[outs[i]] {
			t.Errorf("call %d: output %q is not unique", i, outs[i])
		}
		seen[outs[i]] = true
	}
}

func TestEnsureWAVConversionFailure(t *testing.T) {
	dir := t.TempDir()
	c := NewConverter(ConverterConfig{
		FFprobe: writeScript(t, dir, "ffprobe", `echo '`+probeMP3+`'`),
		FFmpeg:  writeScript(t, dir, "ffmpeg", `echo "Invalid data found when processing input" >&2; exit 1`),
	})

	_, err := c.EnsureWAV(context.Background(), filepath.Join(dir, "call.mp3"))
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeConversion {
		t.Fatalf("expected CONVERSION_ERROR, got %v", err)
	}
	cause, ok := errors.AsAppError(appErr.Cause)
	if !ok || cause.Code != errors.ErrCodeProcessFailure {
		t.Fatalf("expected PROCESS_FAILURE cause, got %v", appErr.Cause)
	}
}

func TestEnsureWAVConversionFailureRemovesPartialOutput(t *testing.T) {
	dir := t.TempDir()
	tmp := t.TempDir()
	c := NewConverter(ConverterConfig{
		FFprobe: writeScript(t, dir, "ffprobe", `echo '`+probeMP3+`'`),
		FFmpeg:  writeScript(t, dir, "ffmpeg", `for last; do :; done; echo partial > "$last"; exit 1`),
		TempDir: tmp,
	})

	if _, err := c.EnsureWAV(context.Background(), filepath.Join(dir, "call.mp3")); !errors.HasCode(err, errors.ErrCodeConversion) {
		t.Fatalf("expected CONVERSION_ERROR, got %v", err)
	}
	entries, _ := os.ReadDir(tmp)
	if len(entries) != 0 {
		t.Errorf("expected partial output removed, found %d files", len(entries))
	}
}

func TestEnsureWAVUnwritableTempDir(t *testing.T) {
	dir := t.TempDir()
	c := NewConverter(ConverterConfig{
		FFprobe: writeScript(t, dir, "ffprobe", `echo '`+probeMP3+`'`),
		FFmpeg:  writeScript(t, dir, "ffmpeg", `exit 0`),
		TempDir: filepath.Join(dir, "missing"),
	})

	if _, err := c.EnsureWAV(context.Background(), filepath.Join(dir, "call.mp3")); !errors.HasCode(err, errors.ErrCodeConversion) {
		t.Fatalf("expected CONVERSION_ERROR, got %v", err)
	}
}

func TestConverterConfigDefaults(t *testing.T) {
	var cfg ConverterConfig
	cfg.ApplyDefaults()
	if cfg.FFmpeg != "ffmpeg" || cfg.FFprobe != "ffprobe" || cfg.Timeout <= 0 || cfg.TempDir == "" || cfg.TempPrefix == "" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}
