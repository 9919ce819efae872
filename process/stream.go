package process

import (
	"bytes"
	"context"
)

// ChunkFunc receives stdout as the process produces it, one read at a time.
// The slice is only valid for the duration of the call.
type ChunkFunc func(chunk []byte)

// Stream runs cmd like Run but hands every stdout read to onChunk as it
// arrives. Calls happen on a single goroutine, in arrival order, and all of
// them complete before Stream returns. Chunk boundaries follow the pipe, not
// lines. The returned Result still carries the complete stdout.
func Stream(ctx context.Context, cmd Command, onChunk ChunkFunc) (*Result, error) {
	w := &chunkWriter{onChunk: onChunk}
	return execute(ctx, cmd, w, func() []byte { return w.buf.Bytes() })
}

type chunkWriter struct {
	buf     bytes.Buffer
	onChunk ChunkFunc
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	if w.onChunk != nil && len(p) > 0 {
		w.onChunk(p)
	}
	return len(p), nil
}
