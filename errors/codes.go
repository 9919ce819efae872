package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Transcription failure kinds.
const (
	// ErrCodeInputRead indicates the audio stream or file could not be read.
	ErrCodeInputRead ErrorCode = "INPUT_READ_ERROR"
	// ErrCodeFormatProbe indicates the format probe failed or returned unparseable output.
	ErrCodeFormatProbe ErrorCode = "FORMAT_PROBE_ERROR"
	// ErrCodeConversion indicates the transcode utility exited non-zero.
	ErrCodeConversion ErrorCode = "CONVERSION_ERROR"
	// ErrCodeEngineUnavailable indicates the engine or external process failed to start.
	ErrCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	// ErrCodeProcessFailure indicates the external process exited with a non-zero status.
	ErrCodeProcessFailure ErrorCode = "PROCESS_FAILURE"
	// ErrCodeEngineInference indicates the in-process engine failed during inference.
	ErrCodeEngineInference ErrorCode = "ENGINE_INFERENCE_ERROR"
)

// Availability errors
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
	ErrCodeExternalService    ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Validation and internal errors
const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeEngineUnavailable:  true,
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeExternalService:    true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
