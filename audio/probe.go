package audio

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kbukum/speechkit/errors"
	"github.com/kbukum/speechkit/process"
)

// Stream is one entry of ffprobe's stream list.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	SampleFmt  string `json:"sample_fmt,omitempty"`
	SampleRate string `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
}

// ProbeResult is the decoded output of ffprobe -show_streams.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
}

// Audio returns the first audio stream, or nil.
func (p *ProbeResult) Audio() *Stream {
	if p == nil {
		return nil
	}
	for i := range p.Streams {
		if p.Streams[i].CodecType == "audio" {
			return &p.Streams[i]
		}
	}
	return nil
}

// NeedsConversion reports whether the file must be transcoded before a
// recognizer reads it: no audio stream, or not signed 16-bit PCM.
func (p *ProbeResult) NeedsConversion() bool {
	a := p.Audio()
	return a == nil || a.SampleFmt != "s16" || a.CodecName != "pcm_s16le"
}

// Prober inspects audio files with ffprobe.
type Prober struct {
	rr *process.SubprocessProvider[string, *ProbeResult]
}

// NewProber creates a Prober running binary (default "ffprobe"). A positive
// timeout bounds each probe.
func NewProber(binary string, timeout time.Duration) *Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	rr := process.NewSubprocessProvider("ffprobe",
		func(path string) process.Command {
			return process.Command{
				Binary: binary,
				Args:   []string{"-v", "quiet", "-print_format", "json", "-show_streams", path},
			}
		},
		parseProbe,
	).WithTimeout(timeout)
	return &Prober{rr: rr}
}

// Probe lists the streams of the file at path. Every failure, including
// output that is not valid JSON, is FORMAT_PROBE_ERROR.
func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	res, err := p.rr.Execute(ctx, path)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeFormatProbe) {
			return nil, err
		}
		return nil, errors.FormatProbe(path, err)
	}
	return res, nil
}

func parseProbe(path string, result *process.Result) (*ProbeResult, error) {
	var out ProbeResult
	if err := json.Unmarshal(result.Stdout, &out); err != nil {
		return nil, errors.FormatProbe(path, err)
	}
	return &out, nil
}
