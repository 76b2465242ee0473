package intercept

import (
	"sync/atomic"

	"github.com/nao1215/privacylens/internal/model"
)

// Signal is a runtime observation that a hook can latch.
type Signal uint32

const (
	// SignalCanvas is latched by canvas pixel readback.
	SignalCanvas Signal = 1 << iota

	// SignalWebGL is latched by WebGL vendor and renderer queries.
	SignalWebGL

	// SignalLocalStorage is latched by Storage writes.
	SignalLocalStorage
)

// String returns the signal key used in reports and injected scripts.
func (s Signal) String() string {
	switch s {
	case SignalCanvas:
		return "canvas"
	case SignalWebGL:
		return "webgl"
	case SignalLocalStorage:
		return "localStorage"
	default:
		return "unknown"
	}
}

// Flags is a set of latched signals. Signals can be latched but never
// cleared. The zero value is ready to use and safe for concurrent use.
type Flags struct {
	bits atomic.Uint32
}

// Latch sets s and reports whether it was not set before.
func (f *Flags) Latch(s Signal) bool {
	for {
		old := f.bits.Load()
		if old&uint32(s) != 0 {
			return false
		}
		if f.bits.CompareAndSwap(old, old|uint32(s)) {
			return true
		}
	}
}

// Has reports whether s has been latched.
func (f *Flags) Has(s Signal) bool {
	return f.bits.Load()&uint32(s) != 0
}

// Snapshot returns the current state of all signals.
func (f *Flags) Snapshot() model.RuntimeSignals {
	return model.RuntimeSignals{
		Canvas:       f.Has(SignalCanvas),
		WebGL:        f.Has(SignalWebGL),
		LocalStorage: f.Has(SignalLocalStorage),
	}
}
