package provider

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/speechkit/logger"
)

// Manager initializes providers from a Registry and hands them out through
// a Selector, or by name.
type Manager[T Provider] struct {
	mu          sync.RWMutex
	registry    *Registry[T]
	selector    Selector[T]
	providers   map[string]T
	order       []string
	defaultName string
	log         *logger.Logger
}

// NewManager creates a Manager backed by the given registry and selector.
func NewManager[T Provider](registry *Registry[T], selector Selector[T]) *Manager[T] {
	return &Manager[T]{
		registry:  registry,
		selector:  selector,
		providers: make(map[string]T),
		log:       logger.Get("provider"),
	}
}

// Register adds a factory to the underlying registry.
func (m *Manager[T]) Register(name string, factory Factory[T]) {
	m.registry.RegisterFactory(name, factory)
	m.log.Debug("factory registered", logger.Fields(logger.FieldBackend, name))
}

// Initialize creates a provider from its factory and stores it for use.
func (m *Manager[T]) Initialize(name string, cfg map[string]any) error {
	return m.InitializeWithContext(context.Background(), name, cfg)
}

// InitializeWithContext creates a provider and calls Init on it when the
// provider implements Initializable.
func (m *Manager[T]) InitializeWithContext(ctx context.Context, name string, cfg map[string]any) error {
	return m.InitializeWithResilience(ctx, name, cfg, nil)
}

// InitializeWithResilience is InitializeWithContext with wrap applied to the
// instance after Init, typically to add middleware or resilience.
func (m *Manager[T]) InitializeWithResilience(ctx context.Context, name string, cfg map[string]any, wrap func(T) T) error {
	instance, err := m.registry.Create(name, cfg)
	if err != nil {
		return fmt.Errorf("initialize provider %q: %w", name, err)
	}
	if init, ok := any(instance).(Initializable); ok {
		if err := init.Init(ctx); err != nil {
			return fmt.Errorf("initialize provider %q: %w", name, err)
		}
	}
	// Close must reach the raw instance, wrappers do not forward it.
	m.registry.Set(name, instance)
	if wrap != nil {
		instance = wrap(instance)
	}

	m.mu.Lock()
	if _, exists := m.providers[name]; !exists {
		m.order = append(m.order, name)
	}
	m.providers[name] = instance
	m.mu.Unlock()

	m.log.Info("provider initialized", logger.Fields(logger.FieldBackend, name))
	return nil
}

// Get returns the default provider when set, otherwise the selector's pick.
func (m *Manager[T]) Get(ctx context.Context) (T, error) {
	m.mu.RLock()
	defaultName := m.defaultName
	providers := m.snapshotLocked()
	m.mu.RUnlock()

	if defaultName != "" {
		if p, ok := providers[defaultName]; ok {
			return p, nil
		}
		var zero T
		return zero, fmt.Errorf("default provider %q not found", defaultName)
	}
	return m.selector.Select(ctx, providers)
}

// GetByName returns a specific provider by name.
func (m *Manager[T]) GetByName(name string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.providers[name]; ok {
		return p, nil
	}
	var zero T
	return zero, fmt.Errorf("provider %q not found", name)
}

// SetDefault sets the default provider by name.
func (m *Manager[T]) SetDefault(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[name]; !ok {
		return fmt.Errorf("provider %q not initialized", name)
	}
	m.defaultName = name
	m.log.Debug("default provider set", logger.Fields(logger.FieldBackend, name))
	return nil
}

// Available returns the sorted names of all initialized providers.
func (m *Manager[T]) Available() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CloseAll closes every initialized provider implementing Closeable, in
// reverse initialization order, and forgets them.
func (m *Manager[T]) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	order := m.order
	m.order = nil
	m.providers = make(map[string]T)
	m.defaultName = ""
	m.mu.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		raw, ok := m.registry.Get(order[i])
		if !ok {
			continue
		}
		if c, ok := any(raw).(Closeable); ok {
			if err := c.Close(ctx); err != nil {
				m.log.Warn("provider close failed", logger.ErrorFields("close", err))
				errs = append(errs, fmt.Errorf("close provider %q: %w", order[i], err))
			}
		}
	}
	return stderrors.Join(errs...)
}

// snapshotLocked returns a shallow copy of the providers map.
// Must be called while holding at least a read lock.
func (m *Manager[T]) snapshotLocked() map[string]T {
	cp := make(map[string]T, len(m.providers))
	for k, v := range m.providers {
		cp[k] = v
	}
	return cp
}
