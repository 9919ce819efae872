package transcription

import (
	"testing"

	"github.com/kbukum/speechkit/errors"
)

func TestParseModel(t *testing.T) {
	tests := []struct {
		in      string
		want    Model
		wantErr bool
	}{
		{"", DefaultModel, false},
		{"openai/whisper-tiny", ModelWhisperTiny, false},
		{"whisper-small", ModelWhisperSmall, false},
		{"whisper-large-v3-turbo", ModelWhisperLargeV3Turbo, false},
		{"whisper-huge", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseModel(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseModel(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if err != nil && !errors.HasCode(err, errors.ErrCodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
			if got != tc.want {
				t.Errorf("ParseModel(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestModelValid(t *testing.T) {
	for _, m := range Models() {
		if !m.Valid() {
			t.Errorf("%s should be valid", m)
		}
	}
	if Model("openai/whisper-huge").Valid() {
		t.Error("unknown model reported valid")
	}
	if Models()[0] != DefaultModel {
		t.Error("default model must be listed first")
	}
	if ModelWhisperMedium.ShortName() != "whisper-medium" {
		t.Errorf("unexpected short name %q", ModelWhisperMedium.ShortName())
	}
}
