package bip

import "strings"

// JobState is the lifecycle state of a scheduled report job.
type JobState string

const (
	StateSubmitted             JobState = "Submitted"
	StateRunning               JobState = "Running"
	StateSucceeded             JobState = "Succeeded"
	StateSucceededWithWarnings JobState = "SucceededWithWarnings"
	StateFailed                JobState = "Failed"
	StateCancelled             JobState = "Cancelled"
	StateSkipped               JobState = "Skipped"
	StateUnknown               JobState = "Unknown"
)

// ParseJobState maps a raw remote status string to a JobState. The remote
// service reports "PROBLEM" for jobs whose report generated successfully but
// whose delivery or notification failed; the output is still downloadable, so
// it maps to SucceededWithWarnings. Unrecognized statuses map to StateRunning
// so the poll loop keeps waiting rather than aborting on a transient label.
func ParseJobState(raw string) JobState {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUCCESS":
		return StateSucceeded
	case "PROBLEM", "WARNING":
		return StateSucceededWithWarnings
	case "FAILED", "ERROR":
		return StateFailed
	case "CANCELLED", "CANCELED":
		return StateCancelled
	case "SKIPPED":
		return StateSkipped
	case "SCHEDULED", "SUBMITTED":
		return StateSubmitted
	case "RUNNING", "":
		return StateRunning
	default:
		return StateRunning
	}
}

// Terminal reports whether the state ends the poll loop.
func (s JobState) Terminal() bool {
	return s.Success() || s.Failure()
}

// Success reports whether the job finished with a downloadable artifact.
func (s JobState) Success() bool {
	return s == StateSucceeded || s == StateSucceededWithWarnings
}

// Failure reports whether the job terminally failed.
func (s JobState) Failure() bool {
	return s == StateFailed || s == StateCancelled || s == StateSkipped
}
