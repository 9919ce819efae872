package whispercli

import (
	"time"

	"github.com/kbukum/speechkit/audio"
	"github.com/kbukum/speechkit/process"
	"github.com/kbukum/speechkit/resilience"
	"github.com/kbukum/speechkit/validation"
)

// Config holds the whisper-cli backend settings.
type Config struct {
	// Binary is the whisper-cli executable, a path or a name on PATH.
	Binary string `mapstructure:"binary" validate:"required"`
	// ModelPath is the ggml model file passed with -m.
	ModelPath string `mapstructure:"model_path" validate:"required"`
	// ExtraArgs are appended after -m and -f, e.g. ["-l", "en"].
	ExtraArgs []string `mapstructure:"extra_args"`
	// DumpDir, when set, receives whisper-cli.stdout and whisper-cli.stderr
	// after every run.
	DumpDir string `mapstructure:"dump_dir" validate:"omitempty,dir"`
	// MaxConcurrent bounds concurrently running processes. Zero is unbounded.
	MaxConcurrent int `mapstructure:"max_concurrent" validate:"gte=0"`
	// GracePeriod is the SIGTERM to SIGKILL delay on cancellation.
	GracePeriod time.Duration `mapstructure:"grace_period"`
	// SkipConversion passes the input to whisper-cli without probing it.
	SkipConversion bool `mapstructure:"skip_conversion"`

	Audio          audio.NormalizerConfig           `mapstructure:"audio"`
	FFmpeg         audio.ConverterConfig            `mapstructure:"ffmpeg"`
	CircuitBreaker *resilience.CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = "whisper-cli"
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = process.DefaultGracePeriod
	}
	c.Audio.ApplyDefaults()
	if c.FFmpeg.TempDir == "" {
		c.FFmpeg.TempDir = c.Audio.TempDir
	}
	c.FFmpeg.ApplyDefaults()
}

// Validate checks field constraints without touching the file system.
func (c Config) Validate() error {
	return validation.Validate(c)
}

// CheckInstalled verifies the binary resolves and the model file exists.
func (c Config) CheckInstalled() error {
	return validation.New().
		Executable("binary", c.Binary).
		File("model_path", c.ModelPath).
		Validate()
}
