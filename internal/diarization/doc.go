// Package diarization models the per-speaker segment document the pipeline
// consumes and enriches. The document is loaded once at job start, updated
// in memory as stages complete, and saved once after reconciliation; the
// store is the single authoritative writer of the file.
package diarization
