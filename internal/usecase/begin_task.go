package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// BeginTaskInput contains the parameters for starting a task record.
// Fields are ordered to minimize memory padding.
type BeginTaskInput struct {
	Recipients domain.Recipients
	ID         string // Optional; generated from Name when empty
	Name       string // Task name (required)
	WorkDir    string // Working directory of the agent
	Prompt     string
	Model      string
}

// BeginTaskOutput contains the result of starting a task record.
type BeginTaskOutput struct {
	Record *domain.TaskRecord
}

// BeginTask is the use case for recording that a task has started.
type BeginTask struct {
	tasks    domain.TaskRepository
	captures domain.CaptureStore
	clock    domain.Clock
	logger   domain.Logger
}

// NewBeginTask creates a new BeginTask use case.
func NewBeginTask(tasks domain.TaskRepository, captures domain.CaptureStore, clock domain.Clock, logger domain.Logger) *BeginTask {
	return &BeginTask{
		tasks:    tasks,
		captures: captures,
		clock:    clock,
		logger:   logger,
	}
}

// Execute writes a running record, creates its empty capture and marks it current.
func (uc *BeginTask) Execute(_ context.Context, in BeginTaskInput) (*BeginTaskOutput, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrEmptyTaskName
	}

	id := in.ID
	if id == "" {
		id = domain.NewTaskID(name)
	}
	if err := domain.ValidateTaskID(id); err != nil {
		return nil, err
	}

	workDir := in.WorkDir
	if workDir != "" {
		abs, err := filepath.Abs(workDir)
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		workDir = abs
	}

	record := domain.NewTaskRecord(id, name, workDir, in.Recipients, in.Prompt, in.Model, uc.clock.Now())
	if err := uc.tasks.Save(record); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}

	capture, err := uc.captures.OpenWriter(id)
	if err != nil {
		return nil, fmt.Errorf("create capture: %w", err)
	}
	if err := capture.Close(); err != nil {
		return nil, fmt.Errorf("close capture: %w", err)
	}

	if err := uc.tasks.SetCurrent(id); err != nil {
		return nil, fmt.Errorf("set current task: %w", err)
	}

	uc.logger.Info(id, "task", fmt.Sprintf("begun %q in %s", name, workDir))
	return &BeginTaskOutput{Record: record}, nil
}
