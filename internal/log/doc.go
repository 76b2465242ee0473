// Package log provides slog loggers that mask sensitive values.
//
// Page analysis handles cookies, storage contents, request headers and
// URLs that may carry session identifiers. A Redactor decides what is
// masked and SecureHandler applies it to every record:
//   - attributes whose key names a credential or page state (cookie,
//     authorization, storage values, tokens)
//   - values that look like secrets (JWTs, bearer tokens, long keys,
//     document.cookie strings)
//   - sensitive query parameters inside logged URLs
//   - literal secrets registered with WithSecrets, such as configured
//     cookies and header values
//
// Even in verbose mode these values never reach the log output.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose, log.WithSecrets(cookie))
//	logger.Warn("page fetched", "url", "https://example.com/?session=abc")
//	// url=https://example.com/?session=***REDACTED***
package log
