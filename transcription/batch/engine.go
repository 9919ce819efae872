package batch

import (
	"context"

	"github.com/kbukum/speechkit/logger"
	"github.com/kbukum/speechkit/transcription"
)

// Result is one piece of engine output, typically a segment.
type Result struct {
	Text string `json:"text"`
}

// Engine runs inference over a complete sample buffer in one call.
// Samples are 16 kHz mono float32 PCM.
type Engine interface {
	// Name identifies the engine in errors and logs.
	Name() string
	// Infer transcribes samples with model. Results are returned in
	// engine order. onEvent may be nil.
	Infer(ctx context.Context, model transcription.Model, samples []float32, onEvent EventFunc) ([]Result, error)
}

// EventKind names an engine lifecycle stage.
type EventKind string

const (
	EventInitiate EventKind = "initiate"
	EventDownload EventKind = "download"
	EventProgress EventKind = "progress"
	EventDone     EventKind = "done"
	EventReady    EventKind = "ready"
)

// Event reports engine lifecycle, mostly model fetching and loading. Events
// are informational and never change a transcription.
type Event struct {
	Kind  EventKind
	Model transcription.Model
	// File is the artifact the event is about, when there is one.
	File string
	// Loaded and Total are byte counts for download progress.
	Loaded int64
	Total  int64
}

// Percent returns download progress in [0, 100], or 0 when Total is unknown.
func (e Event) Percent() float64 {
	if e.Total <= 0 {
		return 0
	}
	return float64(e.Loaded) * 100 / float64(e.Total)
}

// EventFunc receives engine events.
type EventFunc func(Event)

// Emit calls fn when it is set.
func (fn EventFunc) Emit(e Event) {
	if fn != nil {
		fn(e)
	}
}

// LogEvents returns an EventFunc writing events to log. Progress is
// logged at debug level, the other stages at info.
func LogEvents(log *logger.Logger) EventFunc {
	return func(e Event) {
		fields := logger.Fields(logger.FieldModel, string(e.Model), "event", string(e.Kind))
		if e.File != "" {
			fields["file"] = e.File
		}
		if e.Kind == EventProgress {
			fields["percent"] = e.Percent()
			log.Debug("engine progress", fields)
			return
		}
		log.Info("engine "+string(e.Kind), fields)
	}
}
