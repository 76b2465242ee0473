// Package domain classifies hostnames into root domains so that resources can
// be split into first-party and third-party loads.
//
// The default classifier keeps the last two dot-separated labels of a
// hostname. It does not consult the public suffix list, so hosts under
// multi-label suffixes such as "co.uk" collapse onto the suffix itself
// (both "a.example.co.uk" and "b.other.co.uk" map to "co.uk"). Score
// calibration depends on this behavior, so it stays the default. The
// public-suffix mode is opt-in.
package domain
