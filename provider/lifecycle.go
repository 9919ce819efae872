package provider

import "context"

// Initializable is implemented by providers that need setup before handling
// requests, e.g. resolving a recognizer binary or loading a model.
// Manager.InitializeWithContext calls Init automatically.
type Initializable interface {
	Init(ctx context.Context) error
}

// Closeable is implemented by providers that hold resources, e.g. loaded
// model weights. Manager.CloseAll calls Close automatically.
type Closeable interface {
	Close(ctx context.Context) error
}
