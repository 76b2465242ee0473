package model

// RuntimeSignals are the flags latched by the runtime API hooks while the
// page was executing.
type RuntimeSignals struct {
	Canvas       bool `json:"canvas"`
	WebGL        bool `json:"webgl"`
	LocalStorage bool `json:"localStorage"`
}

// Page is a rendered page as produced by a renderer: the document after
// scripts have run, the cookie string visible to scripts and the runtime
// signals observed during the observation window.
type Page struct {
	// URL is the final address of the page after redirects.
	URL string

	// StatusCode is the HTTP status of the document response.
	// Zero when the page was not fetched over HTTP.
	StatusCode int

	// HTML is the serialized document.
	HTML string

	// Cookie is the document.cookie string at snapshot time.
	Cookie string

	// Signals holds the runtime hook observations.
	Signals RuntimeSignals
}

// Script is a script element in document order.
type Script struct {
	// Index is the 0-based position among all script elements.
	Index int

	// Src is the resolved src attribute, empty for inline scripts.
	Src string

	// Text is the inline text content. External bodies are not fetched.
	Text string
}
