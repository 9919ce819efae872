package transcription

import "github.com/kbukum/speechkit/provider"

// NewRegistry creates a provider registry for transcribers.
func NewRegistry() *provider.Registry[Transcriber] {
	return provider.NewRegistry[Transcriber]()
}

// ManagerOption configures the transcriber manager.
type ManagerOption func(*managerConfig)

type managerConfig struct {
	selector provider.Selector[Transcriber]
}

// WithSelector sets the backend selection strategy for the manager.
func WithSelector(s provider.Selector[Transcriber]) ManagerOption {
	return func(c *managerConfig) {
		c.selector = s
	}
}

// WithPriority tries the named backends in order and uses the first one
// that is available. Backends not listed are never picked.
func WithPriority(names ...string) ManagerOption {
	return WithSelector(&provider.PrioritySelector[Transcriber]{Priority: names})
}

// NewManager creates a transcriber manager. Without options it picks any
// available backend.
func NewManager(opts ...ManagerOption) *provider.Manager[Transcriber] {
	cfg := &managerConfig{
		selector: &provider.HealthCheckSelector[Transcriber]{},
	}
	for _, o := range opts {
		o(cfg)
	}
	return provider.NewManager(NewRegistry(), cfg.selector)
}
