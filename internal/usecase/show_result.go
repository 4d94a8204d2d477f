package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// ShowResultOutput contains the single-slot notifier records.
// Either may be nil when nothing has been written yet.
type ShowResultOutput struct {
	Result      *domain.ResultRecord
	PendingWake *domain.PendingWakeRecord
}

// ShowResult is the use case for reading what just finished.
type ShowResult struct {
	results domain.ResultRepository
}

// NewShowResult creates a new ShowResult use case.
func NewShowResult(results domain.ResultRepository) *ShowResult {
	return &ShowResult{results: results}
}

// Execute loads latest.json and pending_wake.json.
func (uc *ShowResult) Execute(_ context.Context) (*ShowResultOutput, error) {
	result, err := uc.results.LoadResult()
	if err != nil && !errors.Is(err, domain.ErrNoResult) {
		return nil, fmt.Errorf("load result: %w", err)
	}
	wake, err := uc.results.LoadPendingWake()
	if err != nil && !errors.Is(err, domain.ErrNoResult) {
		return nil, fmt.Errorf("load pending wake: %w", err)
	}
	return &ShowResultOutput{Result: result, PendingWake: wake}, nil
}

// ShowTaskInput contains the parameters for showing a task record.
type ShowTaskInput struct {
	TaskID      string // Optional; the current task when empty
	CaptureTail int    // Characters of capture to include; 0 omits it
}

// ShowTaskOutput contains a task record and its derived state.
type ShowTaskOutput struct {
	Record  *domain.TaskRecord
	ModTime time.Time
	Capture string
	Stale   bool // The notifier would ignore this record
}

// ShowTask is the use case for inspecting a task record.
type ShowTask struct {
	tasks     domain.TaskRepository
	captures  domain.CaptureStore
	clock     domain.Clock
	freshness time.Duration
}

// NewShowTask creates a new ShowTask use case.
func NewShowTask(tasks domain.TaskRepository, captures domain.CaptureStore, clock domain.Clock, freshness time.Duration) *ShowTask {
	if freshness <= 0 {
		freshness = domain.DefaultFreshnessWindow
	}
	return &ShowTask{tasks: tasks, captures: captures, clock: clock, freshness: freshness}
}

// Execute loads the record, its staleness and optionally its capture tail.
func (uc *ShowTask) Execute(_ context.Context, in ShowTaskInput) (*ShowTaskOutput, error) {
	id, err := resolveTaskID(uc.tasks, in.TaskID)
	if err != nil {
		return nil, err
	}
	record, modTime, err := uc.tasks.GetWithModTime(id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	out := &ShowTaskOutput{
		Record:  record,
		ModTime: modTime,
		Stale:   domain.IsStale(modTime, uc.clock.Now(), uc.freshness),
	}
	if in.CaptureTail > 0 {
		capture, err := uc.captures.ReadTail(id, in.CaptureTail)
		if err != nil {
			return nil, fmt.Errorf("read capture: %w", err)
		}
		out.Capture = capture
	}
	return out, nil
}
