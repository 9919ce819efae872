// Package models resolves whisper.cpp ggml model files for transcription
// models and downloads them once into a local cache directory.
package models

import (
	"github.com/kbukum/speechkit/errors"
	"github.com/kbukum/speechkit/transcription"
)

// DefaultBaseURL hosts the ggml conversions of the whisper models.
const DefaultBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// Entry describes the ggml artifact for one model.
type Entry struct {
	Model transcription.Model
	// File is the artifact name, both remote and in the cache directory.
	File string
	// SizeBytes is used for progress when the server sends no length.
	SizeBytes int64
}

var catalog = []Entry{
	{Model: transcription.ModelWhisperLargeV3Turbo, File: "ggml-large-v3-turbo.bin", SizeBytes: 1_620_000_000},
	{Model: transcription.ModelWhisperLargeV3, File: "ggml-large-v3.bin", SizeBytes: 3_100_000_000},
	{Model: transcription.ModelWhisperMedium, File: "ggml-medium.bin", SizeBytes: 1_530_000_000},
	{Model: transcription.ModelWhisperSmall, File: "ggml-small.bin", SizeBytes: 488_000_000},
	{Model: transcription.ModelWhisperTiny, File: "ggml-tiny.bin", SizeBytes: 77_700_000},
}

// Catalog returns the known entries, in transcription.Models order.
func Catalog() []Entry {
	out := make([]Entry, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the entry for m.
func Lookup(m transcription.Model) (Entry, error) {
	for _, e := range catalog {
		if e.Model == m {
			return e, nil
		}
	}
	return Entry{}, errors.InvalidInput("model", "no ggml artifact for model "+string(m))
}
