// Package whispercpp runs whisper.cpp in process as a batch.Engine. Model
// files come from a models.Cache and each model is loaded once per Engine.
//
// The engine links libwhisper through cgo and is only compiled with the
// whispercpp build tag:
//
//	go build -tags whispercpp ./...
//
// The model catalog and cache in the models subpackage need neither.
package whispercpp
