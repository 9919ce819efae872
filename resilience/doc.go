// Package resilience guards calls into recognizer engines.
//
//   - Bulkhead bounds how many recognizer processes run at once.
//   - Retry re-attempts transient failures such as a sidecar that is still
//     loading its model or a model download that dropped.
//   - CircuitBreaker fails fast once an engine keeps failing, so callers do
//     not queue behind a dead sidecar.
//
// Only transient failures count. An AppError flagged non-retryable (bad
// input, a recognizer exiting on unreadable audio) is returned as is and
// never retried or counted against the breaker.
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "whisper-cli", MaxConcurrent: 2, MaxWait: -1})
//	out, err := resilience.ExecuteWithResult(ctx, bh, func() (string, error) {
//	    return run(ctx)
//	})
package resilience
