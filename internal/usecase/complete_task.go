package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// CompleteTaskInput contains the parameters for completing a task record.
type CompleteTaskInput struct {
	TaskID   string // Optional; the current task when empty
	ExitCode int    // Exit code of the agent process
}

// CompleteTaskOutput contains the result of completing a task record.
type CompleteTaskOutput struct {
	Record *domain.TaskRecord
}

// CompleteTask is the use case for recording that a task's agent exited.
type CompleteTask struct {
	tasks  domain.TaskRepository
	clock  domain.Clock
	logger domain.Logger
}

// NewCompleteTask creates a new CompleteTask use case.
func NewCompleteTask(tasks domain.TaskRepository, clock domain.Clock, logger domain.Logger) *CompleteTask {
	return &CompleteTask{
		tasks:  tasks,
		clock:  clock,
		logger: logger,
	}
}

// Execute sets the exit code and completion time of a running record.
// Completing a record twice fails with ErrAlreadyCompleted.
func (uc *CompleteTask) Execute(_ context.Context, in CompleteTaskInput) (*CompleteTaskOutput, error) {
	id, err := resolveTaskID(uc.tasks, in.TaskID)
	if err != nil {
		return nil, err
	}

	// The completed check and the write happen under one lock.
	record, err := uc.tasks.Update(id, func(rec *domain.TaskRecord) error {
		return rec.Complete(in.ExitCode, uc.clock.Now())
	})
	if err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}

	uc.logger.Info(record.ID, "task", fmt.Sprintf("completed with exit code %d", in.ExitCode))
	return &CompleteTaskOutput{Record: record}, nil
}
