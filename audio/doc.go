// Package audio turns caller-supplied audio into what a recognizer needs.
//
// An Input is either a single-read stream or a reference to a file. The
// Normalizer produces float32 samples for in-process engines, or a file
// path for external recognizers, materializing streams into temp files.
// Prober and Converter wrap ffprobe and ffmpeg so a file can be brought to
// 16 kHz mono signed 16-bit PCM WAV when it is not already.
package audio
