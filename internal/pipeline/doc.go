// Package pipeline assembles an analysis report from a rendered page.
//
// A Pipeline runs an ordered list of steps over a Document. DefaultSteps
// covers third-party resources, dynamic-code patterns, fingerprinting API
// references, font fingerprinting, runtime signals and cookies. The
// Aggregator renders a target, runs the steps and seals the report; the
// BatchProcessor analyzes several targets concurrently.
package pipeline
