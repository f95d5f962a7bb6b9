// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// Site configuration can carry cookies and API keys, and analyzed URLs can
// carry tokens in their query strings. SecureHandler keeps both out of the
// log output:
//   - attributes whose key names a secret (cookie, authorization, token...)
//   - string values that look like credentials (bearer tokens, JWTs, keys)
//   - sensitive query parameters inside URL values
//   - sensitive entries of header maps
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that may be shared or stored.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, log.Options{Verbose: true})
//	logger.Debug("fetching", "url", "https://example.com/?token=abc")
//	// url=https://example.com/?token=***REDACTED***
//
//	slog.SetDefault(logger)
package log
