package config

import "errors"

// Configuration validation errors returned by Config.Validate and
// Config.ValidateHost.
var (
	// ErrNoTarget is returned when neither a URL nor --file is given.
	ErrNoTarget = errors.New("no target specified: provide a URL or use --file")

	// ErrConflictingTargets is returned when both URLs and --file are given.
	ErrConflictingTargets = errors.New("conflicting targets: URLs and --file cannot be used together")

	// ErrMissingBaseURL is returned when --file is used without --base-url.
	ErrMissingBaseURL = errors.New("missing base URL: --file requires --base-url")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWindow is returned when the observation window is not positive.
	ErrInvalidWindow = errors.New("invalid observation window: must be positive")

	// ErrWindowExceedsTimeout is returned when the observation window does
	// not fit in the page timeout.
	ErrWindowExceedsTimeout = errors.New("invalid observation window: must be shorter than the timeout")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrUnknownRenderer is returned for renderers other than sandbox and chrome.
	ErrUnknownRenderer = errors.New("unknown renderer: use sandbox or chrome")

	// ErrUnknownDomainMode is returned for domain modes other than
	// heuristic and publicsuffix.
	ErrUnknownDomainMode = errors.New("unknown domain mode: use heuristic or publicsuffix")

	// ErrConflictingProxy is returned when both --tor and --proxy are given.
	ErrConflictingProxy = errors.New("conflicting proxies: --tor and --proxy cannot be used together")

	// ErrUnknownStore is returned for store backends other than memory and sqlite.
	ErrUnknownStore = errors.New("unknown store: use memory or sqlite")
)
