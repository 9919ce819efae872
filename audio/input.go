package audio

import (
	"io"
	"net/url"

	"github.com/kbukum/speechkit/errors"
)

// Kind tells which shape an Input holds.
type Kind int

const (
	// KindNone is the zero Input. It is never valid.
	KindNone Kind = iota
	// KindStream is a single-read byte stream.
	KindStream
	// KindFile is a path to an audio file on local disk.
	KindFile
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindStream:
		return "stream"
	case KindFile:
		return "file"
	default:
		return "none"
	}
}

// Input is audio handed to a transcriber. Build it with FromStream, FromFile,
// or FromURL; exactly one shape is populated. A stream can be consumed once.
type Input struct {
	kind   Kind
	stream io.Reader
	path   string
	err    error
}

// FromStream wraps a reader. It is read at most once.
func FromStream(r io.Reader) Input {
	if r == nil {
		return Input{err: errors.InvalidInput("audio", "stream is nil")}
	}
	return Input{kind: KindStream, stream: r}
}

// FromFile references a file on local disk. The file is not opened here.
func FromFile(path string) Input {
	if path == "" {
		return Input{err: errors.InvalidInput("audio", "file path is empty")}
	}
	return Input{kind: KindFile, path: path}
}

// FromURL references a file by URL. Only file URLs are supported; they are
// reduced to their plain path.
func FromURL(u *url.URL) Input {
	if u == nil {
		return Input{err: errors.InvalidInput("audio", "url is nil")}
	}
	if u.Scheme != "file" {
		return Input{err: errors.InvalidInput("audio", "unsupported url scheme "+u.Scheme)}
	}
	return FromFile(u.Path)
}

// Kind reports which shape the input holds.
func (in Input) Kind() Kind { return in.kind }

// Stream returns the reader of a stream input, nil otherwise.
func (in Input) Stream() io.Reader { return in.stream }

// Path returns the path of a file input, empty otherwise.
func (in Input) Path() string { return in.path }

// Validate rejects the zero Input and inputs built from bad arguments.
func (in Input) Validate() error {
	if in.err != nil {
		return in.err
	}
	if in.kind == KindNone {
		return errors.InvalidInput("audio", "no audio input given")
	}
	return nil
}

// String describes the input for logs.
func (in Input) String() string {
	if in.kind == KindFile {
		return in.path
	}
	return in.kind.String()
}
