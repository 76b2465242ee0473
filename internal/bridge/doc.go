// Package bridge connects the browser extension to the analysis engine over
// the native messaging protocol.
//
// Content scripts report their analysis with ANALYSIS_COMPLETE and the
// popup reads the report of the active tab with GET_ANALYSIS. The Host keeps
// one report per tab in a Store, tracks the active tab of the focused
// window and drops a tab's report when the tab closes. A single goroutine
// owns the store; lookups that wait on other work post their result back
// to it.
package bridge
