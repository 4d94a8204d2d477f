package domain

// ResultMarkerDone is the status marker of every result record.
const ResultMarkerDone = "done"

// ResultRecord summarizes the most recently completed task.
// It answers "what just finished" and is overwritten on every notifier run.
type ResultRecord struct {
	ExitCode  *int   `json:"exit_code"`
	Timestamp string `json:"timestamp"`
	TaskID    string `json:"task_id,omitempty"`
	TaskName  string `json:"task_name"`
	Recipient string `json:"primary_recipient"`
	Duration  string `json:"duration,omitempty"`
	Outcome   string `json:"outcome"`
	Output    string `json:"output"`
	Status    string `json:"status"`
}

// PendingWakeRecord is the fallback artifact for heartbeat-style consumers.
// Processed is owned by the external consumer and never read here.
type PendingWakeRecord struct {
	TaskID    string `json:"task_id,omitempty"`
	TaskName  string `json:"task_name"`
	Recipient string `json:"recipient"`
	Timestamp string `json:"timestamp"`
	Summary   string `json:"summary"`
	Processed bool   `json:"processed"`
}
