package provider

import (
	"github.com/kbukum/speechkit/resilience"
)

// ResilienceConfig bundles optional resilience policies for a provider.
// Nil fields are skipped; the zero config is a passthrough.
type ResilienceConfig struct {
	// CircuitBreaker stops calls after repeated engine failures.
	CircuitBreaker *resilience.CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	// Retry re-attempts transient failures with exponential backoff.
	Retry *resilience.RetryConfig `mapstructure:"retry"`
	// Bulkhead limits concurrent calls.
	Bulkhead *resilience.BulkheadConfig `mapstructure:"-"`
}

// IsEmpty returns true if no resilience policies are configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.CircuitBreaker == nil && c.Retry == nil && c.Bulkhead == nil
}

// ResilienceState holds the primitives built from a ResilienceConfig.
type ResilienceState struct {
	cb       *resilience.CircuitBreaker
	bh       *resilience.Bulkhead
	retryCfg *resilience.RetryConfig
}

// BuildResilience creates initialized resilience primitives from config.
// It returns nil for an empty config.
func BuildResilience(cfg ResilienceConfig) *ResilienceState {
	if cfg.IsEmpty() {
		return nil
	}
	s := &ResilienceState{retryCfg: cfg.Retry}
	if cfg.CircuitBreaker != nil {
		s.cb = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	if cfg.Bulkhead != nil {
		s.bh = resilience.NewBulkhead(*cfg.Bulkhead)
	}
	return s
}

// CircuitState reports the breaker state, or closed when none is configured.
func (s *ResilienceState) CircuitState() resilience.State {
	if s == nil || s.cb == nil {
		return resilience.StateClosed
	}
	return s.cb.State()
}
