package bridge

import "errors"

var (
	// ErrMessageTooLarge is returned when a message exceeds the size limit
	// of its direction.
	ErrMessageTooLarge = errors.New("native message too large")

	// ErrUnknownMessageType is reported for requests with an unknown type.
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrMissingTabID is reported for requests that need a tab id but have
	// none.
	ErrMissingTabID = errors.New("missing tabId")

	// ErrMissingWindowID is reported for WINDOW_FOCUSED without a window id.
	ErrMissingWindowID = errors.New("missing windowId")

	// ErrMissingData is reported for ANALYSIS_COMPLETE without a report.
	ErrMissingData = errors.New("missing data")

	// ErrNoAnalyzer is reported for ANALYZE when the host has no analyzer.
	ErrNoAnalyzer = errors.New("analysis is not available on this host")

	// ErrNoActiveTab is returned by resolvers that do not know the active
	// tab yet.
	ErrNoActiveTab = errors.New("no active tab")
)
