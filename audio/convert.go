package audio

import (
	"context"
	"os"
	"time"

	"github.com/kbukum/speechkit/errors"
	"github.com/kbukum/speechkit/logger"
	"github.com/kbukum/speechkit/process"
)

// ConverterConfig configures the ffmpeg and ffprobe binaries.
type ConverterConfig struct {
	FFmpeg  string        `mapstructure:"ffmpeg"`
	FFprobe string        `mapstructure:"ffprobe"`
	Timeout time.Duration `mapstructure:"timeout"`
	// TempDir receives converted files. Defaults to os.TempDir().
	TempDir string `mapstructure:"temp_dir"`
	// TempPrefix starts every converted file name.
	TempPrefix string `mapstructure:"temp_prefix"`
}

// ApplyDefaults fills unset fields.
func (c *ConverterConfig) ApplyDefaults() {
	if c.FFmpeg == "" {
		c.FFmpeg = "ffmpeg"
	}
	if c.FFprobe == "" {
		c.FFprobe = "ffprobe"
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Minute
	}
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if c.TempPrefix == "" {
		c.TempPrefix = "speechkit-wav"
	}
}

// Converter brings audio files to 16 kHz mono pcm_s16le WAV.
type Converter struct {
	cfg    ConverterConfig
	prober *Prober
	log    *logger.Logger
}

// NewConverter creates a Converter with defaults applied to cfg.
func NewConverter(cfg ConverterConfig) *Converter {
	cfg.ApplyDefaults()
	return &Converter{
		cfg:    cfg,
		prober: NewProber(cfg.FFprobe, cfg.Timeout),
		log:    logger.Get("audio"),
	}
}

// EnsureWAV returns a path to a pcm_s16le version of the file at path. When
// the file already qualifies, path itself is returned. Otherwise the file is
// transcoded into a new uniquely named file under TempDir and that path is
// returned; the caller owns it. The original is never modified.
func (c *Converter) EnsureWAV(ctx context.Context, path string) (string, error) {
	probe, err := c.prober.Probe(ctx, path)
	if err != nil {
		return "", err
	}
	if !probe.NeedsConversion() {
		return path, nil
	}

	out, err := createTemp(c.cfg.TempDir, c.cfg.TempPrefix, ".wav")
	if err != nil {
		return "", errors.Conversion(path, err)
	}
	if a := probe.Audio(); a != nil {
		c.log.Debug("converting audio", logger.Fields(logger.FieldAudioPath, path, "codec", a.CodecName, "sample_fmt", a.SampleFmt))
	} else {
		c.log.Debug("converting audio without an audio stream", logger.Fields(logger.FieldAudioPath, path))
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	_, err = process.Run(ctx, process.Command{
		Binary: c.cfg.FFmpeg,
		Args:   []string{"-i", path, "-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1", "-y", out},
	})
	if err != nil {
		removeFile(c.log, out)
		return "", errors.Conversion(path, err)
	}
	return out, nil
}
