package httpclient

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kbukum/speechkit/errors"
)

// maxErrorBody bounds the response body kept in error details.
const maxErrorBody = 512

// ClassifyStatusCode converts an HTTP status code into a typed error.
// Returns nil for 2xx status codes.
func ClassifyStatusCode(service string, statusCode int, body []byte) *errors.AppError {
	var appErr *errors.AppError
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusTooManyRequests:
		appErr = errors.RateLimited()
	case statusCode >= 400 && statusCode < 500:
		appErr = errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("The %s service rejected the request (HTTP %d).", service, statusCode))
	default:
		appErr = errors.ExternalServiceError(service, fmt.Errorf("HTTP %d", statusCode))
	}
	return appErr.WithDetails(map[string]any{
		"service":     service,
		"status_code": statusCode,
		"body":        truncate(strings.TrimSpace(string(body)), maxErrorBody),
	})
}

// transportError maps a failed round trip. A done context is TIMEOUT, anything
// else means the service could not be reached.
func transportError(ctx context.Context, service string, err error) *errors.AppError {
	if ctx.Err() != nil || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Timeout(service).WithCause(err)
	}
	return errors.ServiceUnavailable(service).WithCause(err)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return 0
	}
	code, _ := appErr.Details["status_code"].(int)
	return code
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
