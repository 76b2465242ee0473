package scanner

import "errors"

var (
	// ErrNotAbsolute is returned for a source that must be an absolute URL
	// but is not.
	ErrNotAbsolute = errors.New("resource URL is not absolute")

	// ErrNoHost is returned for a resource URL without a hostname, such as
	// data: or javascript: URLs.
	ErrNoHost = errors.New("resource URL has no host")
)
