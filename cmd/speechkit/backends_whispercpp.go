//go:build whispercpp

package main

import (
	"github.com/kbukum/speechkit/observability"
	"github.com/kbukum/speechkit/provider"
	"github.com/kbukum/speechkit/transcription"
	"github.com/kbukum/speechkit/transcription/whispercpp"
)

func init() {
	factories[whispercpp.ProviderName] = func(*observability.Metrics) provider.Factory[transcription.Transcriber] {
		return whispercpp.Factory()
	}
}
