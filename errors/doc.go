// Package errors provides the structured error type shared by every speechkit
// package.
//
// Each failure carries a machine-readable ErrorCode, a human-readable message,
// a retryable flag, optional details and an underlying cause. Transcription
// backends report the failure kinds below so callers can branch on them
// without string matching:
//
//   - INPUT_READ_ERROR: audio stream or file could not be read
//   - FORMAT_PROBE_ERROR: the probe utility failed or its output was unusable
//   - CONVERSION_ERROR: the transcode utility exited non-zero
//   - ENGINE_UNAVAILABLE: inference engine or recognizer process failed to start
//   - PROCESS_FAILURE: recognizer process exited non-zero (stderr in details)
//   - ENGINE_INFERENCE_ERROR: the in-process engine failed during inference
//
// # Usage
//
//	if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.ErrCodeProcessFailure {
//	    log.Error("recognizer failed", logger.Fields("stderr", appErr.Details["stderr"]))
//	}
package errors
