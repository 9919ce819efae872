package transcription

import (
	"regexp"
	"strings"
	"unicode"
)

// Segment is one timestamped line of recognizer output.
type Segment struct {
	// Start and End are copied verbatim from the line, HH:MM:SS.mmm.
	Start string `json:"start"`
	End   string `json:"end"`
	// Text is the trimmed content without the turn marker. May be empty
	// when NewSpeaker is set.
	Text string `json:"text"`
	// NewSpeaker is set when the content began with "-".
	NewSpeaker bool `json:"new_speaker"`
}

var lineRe = regexp.MustCompile(`^\[(\d{2}:\d{2}:\d{2}\.\d{3}) --> (\d{2}:\d{2}:\d{2}\.\d{3})\]\s*(.*)$`)

// ParseLines extracts segments from raw recognizer output such as
//
//	[00:00:00.000 --> 00:00:03.240]   -Good morning.
//
// Lines that do not match are dropped, as are matching lines with neither
// text nor a turn marker. Order is preserved; timestamps are not validated.
// ParseLines never fails and returns a non-nil slice.
func ParseLines(raw string) []Segment {
	segments := []Segment{}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return segments
	}

	for _, line := range strings.Split(trimmed, "\n") {
		m := lineRe.FindStringSubmatch(strings.TrimSuffix(line, "\r"))
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[3])
		newSpeaker := strings.HasPrefix(text, "-")
		if newSpeaker {
			// Unicode spaces too, not just ASCII.
			text = strings.TrimLeftFunc(text[1:], unicode.IsSpace)
		}
		if text == "" && !newSpeaker {
			continue
		}
		segments = append(segments, Segment{Start: m[1], End: m[2], Text: text, NewSpeaker: newSpeaker})
	}
	return segments
}

// Texts joins segment texts with newlines. Empty texts keep their line.
func Texts(segments []Segment) string {
	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	return strings.Join(texts, "\n")
}

// Turn is a run of segments spoken by one speaker.
type Turn struct {
	Segments []Segment
}

// Start returns the start of the first segment.
func (t Turn) Start() string {
	if len(t.Segments) == 0 {
		return ""
	}
	return t.Segments[0].Start
}

// End returns the end of the last segment.
func (t Turn) End() string {
	if len(t.Segments) == 0 {
		return ""
	}
	return t.Segments[len(t.Segments)-1].End
}

// Text joins the non-empty segment texts with spaces.
func (t Turn) Text() string {
	parts := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, " ")
}

// GroupTurns folds segments into speaker turns. Every NewSpeaker segment
// opens a turn; segments before the first marker form a turn of their own.
func GroupTurns(segments []Segment) []Turn {
	var turns []Turn
	for _, s := range segments {
		if s.NewSpeaker || len(turns) == 0 {
			turns = append(turns, Turn{})
		}
		last := &turns[len(turns)-1]
		last.Segments = append(last.Segments, s)
	}
	return turns
}
