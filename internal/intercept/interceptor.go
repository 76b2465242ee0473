package intercept

import (
	"context"
	"log/slog"
)

// Call describes one invocation of a hooked method.
type Call struct {
	Hook HookPoint
	Args []any

	// Result is the value returned by the original method. It is only set
	// for after observers.
	Result any
}

// Observer is notified about hooked calls that match their hook point.
type Observer func(ctx context.Context, call Call)

// Interceptor latches signals for hooked calls and notifies observers.
type Interceptor struct {
	points []HookPoint
	flags  *Flags
	before []Observer
	after  []Observer
	logger *slog.Logger
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithHookPoints replaces the default hook catalog.
func WithHookPoints(points []HookPoint) Option {
	return func(i *Interceptor) {
		i.points = append([]HookPoint(nil), points...)
	}
}

// WithLogger sets the logger used for hook notifications.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interceptor) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithBefore adds an observer that runs before the original method.
func WithBefore(obs Observer) Option {
	return func(i *Interceptor) {
		i.before = append(i.before, obs)
	}
}

// WithAfter adds an observer that runs after the original method returned.
func WithAfter(obs Observer) Option {
	return func(i *Interceptor) {
		i.after = append(i.after, obs)
	}
}

// New creates an Interceptor with the default hook catalog.
func New(opts ...Option) *Interceptor {
	i := &Interceptor{
		points: DefaultHookPoints(),
		flags:  &Flags{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// HookPoints returns the hook catalog of the interceptor.
func (i *Interceptor) HookPoints() []HookPoint {
	return append([]HookPoint(nil), i.points...)
}

// Flags returns the latched signals.
func (i *Interceptor) Flags() *Flags {
	return i.flags
}

// Before records a call that is about to be delegated. Matching calls
// latch the hook's signal, are logged and are passed to before observers.
// It reports whether the call matched.
func (i *Interceptor) Before(ctx context.Context, h HookPoint, args []any) bool {
	if !h.Matches(args) {
		return false
	}
	if i.flags.Latch(h.Signal) {
		i.logger.InfoContext(ctx, "fingerprinting signal latched",
			slog.String("hook", h.Name()),
			slog.String("signal", h.Signal.String()),
		)
	} else {
		i.logger.DebugContext(ctx, "hooked API invoked", slog.String("hook", h.Name()))
	}
	for _, obs := range i.before {
		obs(ctx, Call{Hook: h, Args: args})
	}
	return true
}

// After passes a matching call and its result to after observers.
func (i *Interceptor) After(ctx context.Context, h HookPoint, args []any, result any) {
	if !h.Matches(args) {
		return
	}
	for _, obs := range i.after {
		obs(ctx, Call{Hook: h, Args: args, Result: result})
	}
}

// Wrap composes h around original. The returned function runs the before
// side effects, delegates to original with the same arguments and returns
// its result and error unchanged.
func (i *Interceptor) Wrap(h HookPoint, original func(ctx context.Context, args []any) (any, error)) func(ctx context.Context, args []any) (any, error) {
	return func(ctx context.Context, args []any) (any, error) {
		i.Before(ctx, h, args)
		result, err := original(ctx, args)
		if err == nil {
			i.After(ctx, h, args, result)
		}
		return result, err
	}
}
