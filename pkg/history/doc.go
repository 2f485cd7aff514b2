// Package history records pattern executions for the current session.
//
// Each execution produces a Record with hashes of the program and the data
// rather than their contents. Records live in an in-memory SQLite database
// (or a plain slice) and disappear with the process; a cron-driven Pruner
// keeps the number of records bounded.
package history
