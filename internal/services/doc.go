// Package services holds the error taxonomy shared by every pipeline stage
// and the clients that wrap external tools. Stage code tags failures with a
// sentinel marker so the workflow can decide whether a failure is fatal to
// the job, recoverable for a single segment, or needs operator review.
package services
