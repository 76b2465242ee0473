// Package scanner walks a rendered document and lists the resources it
// loads from third-party domains.
//
// Each resource category has its own selection rule (see Rules). Every
// element is handled on its own: a malformed URL skips that element and the
// scan goes on. Only the scripts category logs skipped URLs at warning level
// unless WithLogAllInvalidURLs is set.
package scanner
