// Package pattern matches script text against dangerous dynamic-code idioms
// and a catalog of browser fingerprinting APIs.
//
// Matching is purely textual. Comments, string literals and unrelated
// identifiers that happen to share a substring produce hits as well, and
// only inline script text is examined; bodies of external scripts are not
// fetched.
package pattern
