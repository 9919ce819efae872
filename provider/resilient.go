package provider

import (
	"context"
	stderrors "errors"

	"github.com/kbukum/speechkit/errors"
	"github.com/kbukum/speechkit/resilience"
)

// WithResilience wraps a RequestResponse provider with resilience policies.
// Execution chain: Bulkhead -> CircuitBreaker -> Retry -> Execute.
// An empty config returns the provider unchanged.
func WithResilience[I, O any](p RequestResponse[I, O], cfg ResilienceConfig) RequestResponse[I, O] {
	if cfg.IsEmpty() {
		return p
	}
	return &resilientRR[I, O]{
		inner: p,
		state: BuildResilience(cfg),
	}
}

type resilientRR[I, O any] struct {
	inner RequestResponse[I, O]
	state *ResilienceState
}

func (r *resilientRR[I, O]) Name() string { return r.inner.Name() }

// IsAvailable is false while the circuit is open, so selectors skip the
// backend without spending a call on it.
func (r *resilientRR[I, O]) IsAvailable(ctx context.Context) bool {
	return r.state.CircuitState() != resilience.StateOpen && r.inner.IsAvailable(ctx)
}

func (r *resilientRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return ExecuteWithResilience(ctx, r.state, r.inner.Name(), func() (O, error) {
		return r.inner.Execute(ctx, input)
	})
}

// ExecuteWithResilience runs fn through Bulkhead -> CircuitBreaker -> Retry.
// Exported so the process layer can reuse the chain. Errors raised by the
// resilience layer itself become AppErrors naming service.
func ExecuteWithResilience[T any](ctx context.Context, s *ResilienceState, service string, fn func() (T, error)) (T, error) {
	if s == nil {
		return fn()
	}

	call := fn
	if s.retryCfg != nil {
		retryCfg := *s.retryCfg
		call = func() (T, error) {
			return resilience.Retry(ctx, retryCfg, fn)
		}
	}

	if s.cb != nil {
		cbCall := call
		call = func() (T, error) {
			var result T
			var resultErr error
			cbErr := s.cb.Execute(func() error {
				result, resultErr = cbCall()
				return resultErr
			})
			if cbErr != nil && resultErr == nil {
				return result, wrapResilienceError(cbErr, service)
			}
			return result, resultErr
		}
	}

	if s.bh != nil {
		var inner error
		result, err := resilience.ExecuteWithResult(ctx, s.bh, func() (T, error) {
			r, e := call()
			inner = e
			return r, e
		})
		if err != nil && inner == nil {
			return result, wrapResilienceError(err, service)
		}
		return result, err
	}

	return call()
}

// wrapResilienceError converts resilience sentinels and context errors into
// AppErrors. Errors that already are AppErrors pass through.
func wrapResilienceError(err error, service string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsAppError(err); ok {
		return err
	}

	switch {
	case stderrors.Is(err, resilience.ErrCircuitOpen):
		return errors.ServiceUnavailable(service).WithCause(err).
			WithDetail("reason", "circuit open")
	case stderrors.Is(err, resilience.ErrBulkheadFull), stderrors.Is(err, resilience.ErrBulkheadTimeout):
		return errors.RateLimited().WithCause(err).
			WithDetail("service", service).
			WithDetail("reason", "concurrency limit reached")
	case stderrors.Is(err, context.Canceled):
		return errors.Timeout(service + " request canceled").WithCause(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Timeout(service + " deadline exceeded").WithCause(err)
	default:
		return err
	}
}
