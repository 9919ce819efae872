// Package provider is the generic backend framework the transcribers sit on.
//
// A Provider has a name and an availability check. RequestResponse adds a
// single Execute call and is what middleware composes around:
//
//	ep := provider.Chain(
//	    provider.WithLogging[In, Out](log),
//	    provider.WithMetrics[In, Out](metrics),
//	    provider.WithTracing[In, Out]("speechkit"),
//	)(provider.WithResilience(raw, cfg))
//
// Registry maps backend names to factories built from config maps, and
// Manager initializes them (calling Init / Close when implemented) and picks
// one through a Selector:
//
//	reg := provider.NewRegistry[transcription.Transcriber]()
//	reg.RegisterFactory("whispercli", whispercli.Factory())
//	mgr := provider.NewManager(reg, &provider.PrioritySelector[transcription.Transcriber]{Priority: names})
//	_ = mgr.InitializeWithContext(ctx, "whispercli", cfg)
//	t, _ := mgr.Get(ctx)
package provider
