package process

import (
	"context"
	"time"

	"github.com/kbukum/speechkit/provider"
)

// Runner executes processes through persistent resilience state: the
// bulkhead bounds how many run at once and the circuit breaker remembers
// failures across calls.
type Runner struct {
	name  string
	state *provider.ResilienceState
}

// NewRunner creates a Runner. An empty config runs processes directly.
func NewRunner(name string, cfg provider.ResilienceConfig) *Runner {
	return &Runner{name: name, state: provider.BuildResilience(cfg)}
}

// Run is process.Run through the resilience chain.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if r == nil || r.state == nil {
		return Run(ctx, cmd)
	}
	return provider.ExecuteWithResilience(ctx, r.state, r.name, func() (*Result, error) {
		return Run(ctx, cmd)
	})
}

// Stream is process.Stream through the resilience chain. A bulkhead slot is
// held until the process exits.
func (r *Runner) Stream(ctx context.Context, cmd Command, onChunk ChunkFunc) (*Result, error) {
	if r == nil || r.state == nil {
		return Stream(ctx, cmd, onChunk)
	}
	return provider.ExecuteWithResilience(ctx, r.state, r.name, func() (*Result, error) {
		return Stream(ctx, cmd, onChunk)
	})
}

// SubprocessProvider exposes a one-shot program as a
// provider.RequestResponse: buildCmd turns the input into a Command and
// parseOut turns the finished Result into the output.
type SubprocessProvider[I, O any] struct {
	name      string
	buildCmd  func(I) Command
	parseOut  func(I, *Result) (O, error)
	runner    *Runner
	timeout   time.Duration
	available func(context.Context) bool
}

// NewSubprocessProvider creates a RequestResponse provider backed by a subprocess.
func NewSubprocessProvider[I, O any](
	name string,
	buildCmd func(I) Command,
	parseOut func(I, *Result) (O, error),
) *SubprocessProvider[I, O] {
	return &SubprocessProvider[I, O]{
		name:     name,
		buildCmd: buildCmd,
		parseOut: parseOut,
	}
}

// WithRunner routes executions through r.
func (p *SubprocessProvider[I, O]) WithRunner(r *Runner) *SubprocessProvider[I, O] {
	p.runner = r
	return p
}

// WithTimeout bounds each execution. Zero means no limit.
func (p *SubprocessProvider[I, O]) WithTimeout(d time.Duration) *SubprocessProvider[I, O] {
	p.timeout = d
	return p
}

// WithAvailabilityCheck sets a custom availability check.
func (p *SubprocessProvider[I, O]) WithAvailabilityCheck(fn func(context.Context) bool) *SubprocessProvider[I, O] {
	p.available = fn
	return p
}

func (p *SubprocessProvider[I, O]) Name() string { return p.name }

func (p *SubprocessProvider[I, O]) IsAvailable(ctx context.Context) bool {
	if p.available != nil {
		return p.available(ctx)
	}
	return true
}

// Execute runs the command built from input. Run failures are returned as
// they are; parseOut is only called after a zero exit.
func (p *SubprocessProvider[I, O]) Execute(ctx context.Context, input I) (O, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	result, err := p.runner.Run(ctx, p.buildCmd(input))
	if err != nil {
		var zero O
		return zero, err
	}
	return p.parseOut(input, result)
}
