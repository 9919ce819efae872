package provider

import "context"

// Provider is the base interface every backend implements.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable reports whether the backend can take a request now,
	// e.g. its binary resolves or its sidecar answers.
	IsAvailable(ctx context.Context) bool
}

// Factory creates a provider instance from a decoded config section.
type Factory[T Provider] func(cfg map[string]any) (T, error)
