package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a dub job.
type Status string

const (
	StatusPending      Status = "pending"
	StatusPreparing    Status = "preparing"
	StatusSynthesizing Status = "synthesizing"
	StatusAssembling   Status = "assembling"
	StatusMixing       Status = "mixing"
	StatusMuxing       Status = "muxing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusReview       Status = "review"
)

var allStatuses = []Status{
	StatusPending,
	StatusPreparing,
	StatusSynthesizing,
	StatusAssembling,
	StatusMixing,
	StatusMuxing,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// processingStatuses are the transient states a crashed run can leave behind.
var processingStatuses = map[Status]struct{}{
	StatusPreparing:    {},
	StatusSynthesizing: {},
	StatusAssembling:   {},
	StatusMixing:       {},
	StatusMuxing:       {},
}

// ValidStatus reports whether the value is a known lifecycle status.
func ValidStatus(status Status) bool {
	_, ok := statusSet[Status(strings.TrimSpace(string(status)))]
	return ok
}

// Processing reports whether the status marks in-flight work.
func (s Status) Processing() bool {
	_, ok := processingStatuses[s]
	return ok
}

// Terminal reports whether the job has finished, successfully or not.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusReview
}

// Job represents a dub job persisted in SQLite.
type Job struct {
	ID              int64
	JobKey          string
	VideoPath       string
	DiarizationPath string
	Status          Status
	SourceLanguage  string
	TargetLanguage  string
	OutputPath      string
	ErrorMessage    string
	ProgressPercent int
	ProgressMessage string
	SegmentsTotal   int
	SegmentsSkipped int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HealthSummary describes aggregated job counts per key lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}
