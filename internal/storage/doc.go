// Package storage keeps the journal of power plan transitions.
//
// Drivers:
//   - "file": JSON Lines file, compacted to the newest MaxEntries records
//   - "sqlite": SQLite database (modernc.org/sqlite, no cgo)
//
// An empty driver or "none" disables the journal; Open then returns a nil
// Store.
package storage
