// Package database provides SQLite storage for the bridge host's per-tab
// report cache.
//
// The store keeps exactly one report per browser tab. A new report for a
// tab replaces the previous one and closing a tab deletes its row, so no
// history accumulates across page loads. modernc.org/sqlite is used so the
// binary stays CGO-free.
package database
