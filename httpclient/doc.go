// Package httpclient provides the HTTP client used to reach recognition
// sidecars and model hosts, with optional retry and circuit breaking.
//
// Failures are AppErrors: timeouts are TIMEOUT, unreachable hosts are
// SERVICE_UNAVAILABLE, 429 is RATE_LIMITED, other 4xx are INVALID_INPUT and
// 5xx are EXTERNAL_SERVICE_ERROR. Status and body are kept in Details.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{
//	    Name:    "whisper-sidecar",
//	    BaseURL: "http://localhost:8387",
//	    Timeout: 2 * time.Minute,
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    Path:   "/health",
//	})
//
// # With Resilience
//
//	client, err := httpclient.New(httpclient.Config{
//	    Name:           "whisper-sidecar",
//	    BaseURL:        "http://localhost:8387",
//	    Retry:          httpclient.DefaultRetryConfig(),
//	    CircuitBreaker: httpclient.DefaultCircuitBreakerConfig("whisper-sidecar"),
//	})
package httpclient
