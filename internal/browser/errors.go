package browser

import "errors"

var (
	// ErrNoTarget is returned when a target has neither a URL nor HTML.
	ErrNoTarget = errors.New("target has no URL")

	// ErrHTMLUnsupported is returned by renderers that can only load pages
	// from the network.
	ErrHTMLUnsupported = errors.New("renderer cannot load inline HTML")

	// ErrUnknownRenderer is returned by ParseKind for unknown names.
	ErrUnknownRenderer = errors.New("unknown renderer")
)
