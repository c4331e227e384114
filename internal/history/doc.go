// Package history records completed extractions in a SQLite journal.
//
// The journal lets torex skip releases it has already extracted when a torrent
// client re-runs its completion hook, and backs the "torex history" command.
// The database uses WAL mode with a busy timeout and retries busy writes so a
// second invocation reading history does not fail a running extraction.
package history
