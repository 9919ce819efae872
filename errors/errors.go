package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// AppError is the unified error type returned by speechkit packages.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is, or wraps, an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsRetryable reports whether err is an AppError flagged as retryable.
func IsRetryable(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Retryable
}

// --- Transcription failure constructors ---

// InputRead creates an AppError for an audio source that could not be read.
func InputRead(source string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeInputRead, Message: fmt.Sprintf("Unable to read audio input %s.", source),
		Details: map[string]any{"source": source}, Cause: cause,
	}
}

// FormatProbe creates an AppError for a failed or unparseable format probe.
func FormatProbe(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeFormatProbe, Message: fmt.Sprintf("Unable to determine the audio format of %s.", path),
		Details: map[string]any{"path": path}, Cause: cause,
	}
}

// Conversion creates an AppError for a transcode that exited non-zero.
func Conversion(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeConversion, Message: fmt.Sprintf("Audio conversion of %s failed.", path),
		Details: map[string]any{"path": path}, Cause: cause,
	}
}

// EngineUnavailable creates an AppError for an engine or process that failed to start.
func EngineUnavailable(engine string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeEngineUnavailable, Message: fmt.Sprintf("The %s engine could not be started.", engine),
		Retryable: true,
		Details:   map[string]any{"engine": engine}, Cause: cause,
	}
}

// ProcessFailure creates an AppError for an external process that exited non-zero.
// The captured standard error is kept verbatim in Details["stderr"].
func ProcessFailure(binary string, exitCode int, stderr string) *AppError {
	msg := fmt.Sprintf("%s exited with status %d.", binary, exitCode)
	if s := strings.TrimSpace(stderr); s != "" {
		msg = fmt.Sprintf("%s exited with status %d: %s", binary, exitCode, lastLine(s))
	}
	return &AppError{
		Code: ErrCodeProcessFailure, Message: msg,
		Details: map[string]any{"binary": binary, "exit_code": exitCode, "stderr": stderr},
	}
}

// EngineInference creates an AppError for an engine that failed mid-inference.
func EngineInference(engine string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeEngineInference, Message: fmt.Sprintf("The %s engine failed during inference.", engine),
		Details: map[string]any{"engine": engine}, Cause: cause,
	}
}

// --- Common Error Constructors ---

// ServiceUnavailable creates a new AppError for a service that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		Retryable: true,
		Details:   map[string]any{"service": service},
	}
}

// Timeout creates a new AppError for an operation that timed out or was canceled.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The operation took too long or was canceled.",
		Retryable: true,
		Details:   map[string]any{"operation": operation},
	}
}

// RateLimited creates a new AppError for too many requests.
func RateLimited() *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: "Too many requests. Please wait a moment and try again.",
		Retryable: true,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// Internal creates a new AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Cause: cause,
	}
}

// ExternalServiceError creates a new AppError for an error from an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error. Please try again.", service),
		Retryable: true,
		Details:   map[string]any{"service": service}, Cause: cause,
	}
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
