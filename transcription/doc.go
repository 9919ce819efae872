// Package transcription defines the Transcriber interface and the types
// shared by speech-to-text backends.
//
// It follows the provider pattern with a pluggable registry for
// runtime-selectable backends.
//
// # Backends
//
//   - transcription/batch: one-shot inference through an in-process Engine
//   - transcription/whispercli: streams an external whisper-cli process
//   - transcription/whispercpp: whisper.cpp bindings Engine with a model cache
//   - transcription/whisper: HTTP sidecar Engine
//
// # Usage
//
//	mgr := transcription.NewManager()
//	mgr.Register(whispercli.ProviderName, whispercli.Factory())
//	_ = mgr.Initialize(whispercli.ProviderName, cfg)
//	t, _ := mgr.Get(ctx)
//	text, err := t.Transcribe(ctx, audio.FromFile("call.mp3"), transcription.Options{
//		OnProgress: func(s string) { fmt.Println(s) },
//	})
//
// # Parsing recognizer output
//
// ParseLines turns timestamp-tagged recognizer lines into Segments. A line
// whose text starts with "-" opens a new speaker turn; GroupTurns folds
// segments into those turns.
package transcription
