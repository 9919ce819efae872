package resilience

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/speechkit/errors"
)

// IsTransient reports whether err is worth retrying or counting as an
// engine failure. Context errors never are; AppErrors carry the decision;
// anything else is assumed transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Retryable
	}
	return true
}
