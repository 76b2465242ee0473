// Package fetch retrieves pages for analysis.
//
// A Client issues the page request directly, through a SOCKS5 proxy, or
// through an embedded Tor daemon started with tornago. Configured cookies
// and headers are attached to every request, and the cookies visible to
// page scripts are derived from the request and the response.
package fetch
