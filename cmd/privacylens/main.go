// Package main provides the entry point for the privacylens CLI.
//
// privacylens analyzes web pages for third-party tracking, fingerprinting
// APIs, dangerous dynamic code and client-side storage use. It also runs as
// the native messaging host of the privacylens browser extension.
//
// Usage:
//
//	privacylens scan <url>
//	privacylens scan --file page.html --base-url https://example.com/
//	privacylens host
//
// See --help for all available options.
package main

// main is the entry point for privacylens.
func main() {
	Execute()
}
