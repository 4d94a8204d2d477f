// Package domain contains core business entities and interfaces.
package domain

import (
	"fmt"
	"time"
)

// TimestampLayout is the layout used for record timestamps.
const TimestampLayout = time.RFC3339

// UnknownTaskName is used when no valid task record is available.
const UnknownTaskName = "unknown"

// Recipients holds the delivery addresses for a task.
// Every field is optional.
type Recipients struct {
	Primary       string `json:"primary_recipient,omitempty"`        // Receives the full report
	CallbackGroup string `json:"callback_group_recipient,omitempty"` // Receives the short status line
	CallbackDM    string `json:"callback_dm_recipient,omitempty"`    // Receives the short status line
	DMAccount     string `json:"callback_dm_account,omitempty"`      // Sender identity for the DM send
}

// IsEmpty returns true if no recipient is configured.
func (r Recipients) IsEmpty() bool {
	return r.Primary == "" && r.CallbackGroup == "" && r.CallbackDM == ""
}

// TaskRecord is the persisted metadata of one dispatched task.
// Timestamps are kept as strings so that records written by other tools
// with unparsable values can still be read.
type TaskRecord struct {
	ExitCode         *int   `json:"exit_code,omitempty"`    // Set once status is done
	ID               string `json:"task_id"`                // Task identifier
	Name             string `json:"task_name"`              // Free-form task name
	WorkingDirectory string `json:"working_directory"`      // Directory the agent ran in
	Prompt           string `json:"prompt,omitempty"`       // Audit only
	Model            string `json:"model,omitempty"`        // Advisory
	Status           Status `json:"status"`                 // running or done
	StartedAt        string `json:"started_at,omitempty"`   // RFC 3339
	CompletedAt      string `json:"completed_at,omitempty"` // RFC 3339, set once status is done
	Recipients
}

// NewTaskRecord creates a running record started at now.
func NewTaskRecord(id, name, workDir string, recipients Recipients, prompt, model string, now time.Time) *TaskRecord {
	return &TaskRecord{
		ID:               id,
		Name:             name,
		WorkingDirectory: workDir,
		Recipients:       recipients,
		Prompt:           prompt,
		Model:            model,
		Status:           StatusRunning,
		StartedAt:        now.Format(TimestampLayout),
	}
}

// Complete marks the record done with the given exit code.
// A record can be completed only once.
func (r *TaskRecord) Complete(exitCode int, now time.Time) error {
	if r.Status == StatusDone || r.ExitCode != nil {
		return fmt.Errorf("task %s: %w", r.ID, ErrAlreadyCompleted)
	}
	code := exitCode
	r.ExitCode = &code
	r.CompletedAt = now.Format(TimestampLayout)
	r.Status = StatusDone
	return nil
}

// Duration returns the elapsed time between start and completion.
// The second value is false when either timestamp is missing or unparsable,
// or when the result would be negative.
func (r *TaskRecord) Duration() (time.Duration, bool) {
	if r == nil {
		return 0, false
	}
	return ParseDuration(r.StartedAt, r.CompletedAt)
}

// ParseDuration computes completed - started from two timestamps.
func ParseDuration(startedAt, completedAt string) (time.Duration, bool) {
	if startedAt == "" || completedAt == "" {
		return 0, false
	}
	start, err := time.Parse(TimestampLayout, startedAt)
	if err != nil {
		return 0, false
	}
	end, err := time.Parse(TimestampLayout, completedAt)
	if err != nil {
		return 0, false
	}
	d := end.Sub(start)
	if d < 0 {
		return 0, false
	}
	return d, true
}

// FormatDuration renders d as whole minutes and remainder seconds, e.g. 2m5s.
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	return fmt.Sprintf("%dm%ds", total/60, total%60)
}

// Outcome classifies a task result from its exit code.
type Outcome string

// Outcomes derived from exit codes.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failed"
	OutcomeUnknown Outcome = "unknown"
)

// OutcomeOf returns the outcome for an optional exit code.
func OutcomeOf(exitCode *int) Outcome {
	switch {
	case exitCode == nil:
		return OutcomeUnknown
	case *exitCode == 0:
		return OutcomeSuccess
	default:
		return OutcomeFailure
	}
}

// Marker returns the emoji marker used in reports.
func (o Outcome) Marker() string {
	switch o {
	case OutcomeSuccess:
		return "✅"
	case OutcomeFailure:
		return "❌"
	default:
		return "❔"
	}
}

// IsStale reports whether a record last modified at modTime is older than
// threshold at now. Only the storage modification time is considered.
func IsStale(modTime, now time.Time, threshold time.Duration) bool {
	return now.Sub(modTime) > threshold
}
