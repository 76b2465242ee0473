// Package intercept observes calls to browser APIs that are commonly used
// for fingerprinting and state persistence.
//
// A HookPoint names a prototype method to wrap and the Signal its invocation
// latches. The Interceptor owns the latched Flags and the before/after
// observers; wrappers delegate to the original method and hand its return
// value back untouched. Hooks are installed once, before any page script
// runs, and are never removed. Calls made after a report snapshot has been
// taken still latch flags but are not reflected in that report.
//
// Two installation targets exist. Sandbox runs page scripts in an embedded
// JavaScript VM that provides a small browser surface, and wraps the
// prototypes from Go. InjectionScript renders the same hook catalog as a
// JavaScript source for injection into a real browser at document start.
package intercept
