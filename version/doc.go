// Package version reports the build of the running speechkit binary.
//
// Values are stamped at link time, and fall back to the module's VCS
// build settings when not stamped:
//
//	go build -ldflags "-X github.com/kbukum/speechkit/version.Version=1.2.0" ./cmd/speechkit
package version
