package audio

import (
	"context"
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/speechkit/errors"
	"github.com/kbukum/speechkit/logger"
)

// DefaultReadUnit is the size of the single read Samples makes on a stream.
const DefaultReadUnit = 1 << 20

// NormalizerConfig configures a Normalizer.
type NormalizerConfig struct {
	// ReadUnit is the buffer size for the one read Samples makes on a stream.
	ReadUnit int `mapstructure:"read_unit" validate:"omitempty,gte=4"`
	// TempDir receives materialized streams. Defaults to os.TempDir().
	TempDir string `mapstructure:"temp_dir"`
	// TempPrefix starts every temp file name.
	TempPrefix string `mapstructure:"temp_prefix"`
}

// ApplyDefaults fills unset fields.
func (c *NormalizerConfig) ApplyDefaults() {
	if c.ReadUnit <= 0 {
		c.ReadUnit = DefaultReadUnit
	}
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if c.TempPrefix == "" {
		c.TempPrefix = "speechkit-audio"
	}
}

// Normalizer converts an Input into the shape a backend consumes.
type Normalizer struct {
	cfg NormalizerConfig
	log *logger.Logger
}

// NewNormalizer creates a Normalizer with defaults applied to cfg.
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	cfg.ApplyDefaults()
	return &Normalizer{cfg: cfg, log: logger.Get("audio")}
}

// Samples returns the input as little-endian float32 samples.
//
// A stream gets exactly one Read of up to ReadUnit bytes; whatever that
// read returns is all that is decoded, the rest of the stream is left
// unread. A file is read whole. Trailing bytes short of a sample are dropped.
func (n *Normalizer) Samples(ctx context.Context, in Input) ([]float32, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Timeout("normalize").WithCause(err)
	}

	switch in.Kind() {
	case KindStream:
		buf := make([]byte, n.cfg.ReadUnit)
		k, err := in.Stream().Read(buf)
		if err != nil && !stderrors.Is(err, io.EOF) {
			return nil, errors.InputRead("stream", err)
		}
		if k == n.cfg.ReadUnit {
			n.log.Debug("stream larger than one read unit, remainder ignored",
				logger.Fields("read_unit", n.cfg.ReadUnit))
		}
		return DecodeFloat32LE(buf[:k]), nil
	default:
		data, err := os.ReadFile(in.Path())
		if err != nil {
			return nil, errors.InputRead(in.Path(), err)
		}
		return DecodeFloat32LE(data), nil
	}
}

// Path returns a file path holding the input and a cleanup func to call when
// done. A file input comes back unchanged with a no-op cleanup. A stream is
// drained in order into a new temp file that cleanup removes.
func (n *Normalizer) Path(ctx context.Context, in Input) (string, func(), error) {
	if err := in.Validate(); err != nil {
		return "", nil, err
	}
	if in.Kind() == KindFile {
		return in.Path(), func() {}, nil
	}

	name := tempName(n.cfg.TempDir, n.cfg.TempPrefix, ".tmp")
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", nil, errors.InputRead("stream", err).WithDetail(logger.FieldAudioPath, name)
	}

	_, copyErr := io.Copy(f, &ctxReader{ctx: ctx, r: in.Stream()})
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	cleanup := func() { removeFile(n.log, name) }
	if copyErr != nil {
		cleanup()
		if ctx.Err() != nil {
			return "", nil, errors.Timeout("normalize").WithCause(ctx.Err())
		}
		return "", nil, errors.InputRead("stream", copyErr)
	}

	n.log.Debug("stream materialized", logger.Fields(logger.FieldAudioPath, name))
	return name, cleanup, nil
}

// tempName returns <dir>/<prefix>-<unix-nanos>-<uuid><ext>.
func tempName(dir, prefix, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%d-%s%s", prefix, time.Now().UnixNano(), uuid.NewString(), ext))
}

// createTemp reserves a new empty temp file with O_EXCL and returns its path.
func createTemp(dir, prefix, ext string) (string, error) {
	name := tempName(dir, prefix, ext)
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// removeFile deletes a temp file. Failures are logged and otherwise ignored.
func removeFile(log *logger.Logger, path string) {
	if err := os.Remove(path); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		log.Warn("temp file cleanup failed", logger.Fields(logger.FieldAudioPath, path, logger.FieldError, err.Error()))
	}
}

// DecodeFloat32LE reads consecutive little-endian IEEE 754 float32 values.
// A trailing partial sample is ignored.
func DecodeFloat32LE(b []byte) []float32 {
	samples := make([]float32, len(b)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return samples
}

// EncodeFloat32LE is the inverse of DecodeFloat32LE.
func EncodeFloat32LE(samples []float32) []byte {
	b := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(s))
	}
	return b
}

// ctxReader stops a copy once the context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
