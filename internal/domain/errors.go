package domain

import "errors"

// ErrUnknownMode is returned by ParseMode for unsupported mode names.
var ErrUnknownMode = errors.New("unknown domain mode: use heuristic or publicsuffix")
