// Package queue persists dub jobs in SQLite so progress survives process
// restarts and the CLI can report on current and historical jobs. One row
// per video; the pipeline advances the row through the lifecycle statuses
// as each phase completes.
package queue
