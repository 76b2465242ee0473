package intercept

import "errors"

var (
	// ErrHookTarget is returned when a hook point's prototype method does
	// not exist in the runtime.
	ErrHookTarget = errors.New("hook target not found")

	// ErrWindowElapsed is the interrupt reason when the observation window
	// ends while page code is still running.
	ErrWindowElapsed = errors.New("observation window elapsed")
)
