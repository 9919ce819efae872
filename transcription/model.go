package transcription

import (
	"strings"

	"github.com/kbukum/speechkit/errors"
)

// Model selects the model variant a backend runs. It is only a key; each
// engine maps it to its own artifacts.
type Model string

const (
	ModelWhisperLargeV3Turbo Model = "onnx-community/whisper-large-v3-turbo"
	ModelWhisperLargeV3      Model = "openai/whisper-large-v3"
	ModelWhisperMedium       Model = "openai/whisper-medium"
	ModelWhisperSmall        Model = "openai/whisper-small"
	ModelWhisperTiny         Model = "openai/whisper-tiny"

	DefaultModel = ModelWhisperLargeV3Turbo
)

// Models lists every known model, default first.
func Models() []Model {
	return []Model{
		ModelWhisperLargeV3Turbo,
		ModelWhisperLargeV3,
		ModelWhisperMedium,
		ModelWhisperSmall,
		ModelWhisperTiny,
	}
}

// Valid reports whether m is a known model.
func (m Model) Valid() bool {
	for _, known := range Models() {
		if m == known {
			return true
		}
	}
	return false
}

// ShortName returns the part after the organization, e.g. "whisper-tiny".
func (m Model) ShortName() string {
	s := string(m)
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// ParseModel resolves a model from its full identifier or short name.
// Empty selects DefaultModel.
func ParseModel(s string) (Model, error) {
	if s == "" {
		return DefaultModel, nil
	}
	for _, m := range Models() {
		if s == string(m) || s == m.ShortName() {
			return m, nil
		}
	}
	names := make([]string, 0, len(Models()))
	for _, m := range Models() {
		names = append(names, string(m))
	}
	return "", errors.InvalidInput("model", "unknown model "+s+" (known: "+strings.Join(names, ", ")+")")
}
