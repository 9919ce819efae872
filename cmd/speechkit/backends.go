package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/kbukum/speechkit/logger"
	"github.com/kbukum/speechkit/observability"
	"github.com/kbukum/speechkit/provider"
	"github.com/kbukum/speechkit/transcription"
	"github.com/kbukum/speechkit/transcription/whisper"
	"github.com/kbukum/speechkit/transcription/whispercli"
)

// factories lists the backends compiled into this binary. Optional
// backends add themselves from build-tagged files.
var factories = map[string]func(*observability.Metrics) provider.Factory[transcription.Transcriber]{
	whispercli.ProviderName: func(m *observability.Metrics) provider.Factory[transcription.Transcriber] {
		return whispercli.Factory(whispercli.WithMetrics(m))
	},
	whisper.ProviderName: func(*observability.Metrics) provider.Factory[transcription.Transcriber] {
		return whisper.Factory()
	},
}

// newManager registers every compiled backend and initializes the ones in
// cfg's priority list. A backend that fails to initialize is logged and
// skipped so a fallback can serve.
func newManager(ctx context.Context, cfg TranscriptionConfig, serviceName string, metrics *observability.Metrics) (*provider.Manager[transcription.Transcriber], error) {
	priority := cfg.Priority()
	mgr := transcription.NewManager(transcription.WithPriority(priority...))
	for name, f := range factories {
		mgr.Register(name, f(metrics))
	}

	log := logger.Get("speechkit")
	wrap := func(t transcription.Transcriber) transcription.Transcriber {
		return transcription.Wrap(t,
			provider.WithTracing[transcription.Request, string](serviceName),
			provider.WithMetrics[transcription.Request, string](metrics),
			provider.WithLogging[transcription.Request, string](log),
		)
	}

	for _, name := range priority {
		if _, ok := factories[name]; !ok {
			return nil, fmt.Errorf("backend %q is not compiled into this binary (available: %v)", name, compiled())
		}
		if err := mgr.InitializeWithResilience(ctx, name, cfg.Backends[name], wrap); err != nil {
			log.Warn("backend unavailable", logger.Fields(logger.FieldBackend, name, logger.FieldError, err.Error()))
		}
	}
	if len(mgr.Available()) == 0 {
		return nil, fmt.Errorf("no transcription backend could be initialized from %v", priority)
	}
	return mgr, nil
}

func compiled() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
