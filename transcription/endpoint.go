package transcription

import (
	"context"

	"github.com/kbukum/speechkit/audio"
	"github.com/kbukum/speechkit/provider"
)

// Request bundles the arguments of one Transcribe call so a transcriber can
// be driven as a provider.RequestResponse.
type Request struct {
	Input   audio.Input
	Options Options
}

// Endpoint exposes t as a RequestResponse, so provider middleware such as
// logging, tracing, metrics, and resilience can wrap it.
func Endpoint(t Transcriber) provider.RequestResponse[Request, string] {
	return &endpoint{t: t}
}

type endpoint struct {
	t Transcriber
}

func (e *endpoint) Name() string                         { return e.t.Name() }
func (e *endpoint) IsAvailable(ctx context.Context) bool { return e.t.IsAvailable(ctx) }

func (e *endpoint) Execute(ctx context.Context, req Request) (string, error) {
	return e.t.Transcribe(ctx, req.Input, req.Options)
}

// Wrap applies middlewares to t and returns the result as a Transcriber.
// A retrying middleware re-sends the same Input; stream inputs are
// single-read, so retries only reproduce the call for file inputs.
func Wrap(t Transcriber, middlewares ...provider.Middleware[Request, string]) Transcriber {
	return &wrapped{rr: provider.Chain(middlewares...)(Endpoint(t))}
}

type wrapped struct {
	rr provider.RequestResponse[Request, string]
}

func (w *wrapped) Name() string                         { return w.rr.Name() }
func (w *wrapped) IsAvailable(ctx context.Context) bool { return w.rr.IsAvailable(ctx) }

func (w *wrapped) Transcribe(ctx context.Context, in audio.Input, opts Options) (string, error) {
	return w.rr.Execute(ctx, Request{Input: in, Options: opts})
}
