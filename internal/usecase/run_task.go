package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// ExitAgentNotFound is the exit code used when the agent binary is missing.
const ExitAgentNotFound = 2

// RunTaskInput contains the parameters for dispatching a task.
// Fields are ordered to minimize memory padding.
type RunTaskInput struct {
	Recipients domain.Recipients // Explicit recipients; override the callback file
	Extra      []string          // Extra agent arguments
	ID         string            // Optional task id
	Name       string
	WorkDir    string
	Prompt     string
	Model      string
	Mode       string // Agent mode: plan, ask, or empty
	Workspace  string
	RunMode    domain.RunMode
	Yolo       bool
}

// RunTaskOutput contains the result of a dispatched task.
type RunTaskOutput struct {
	Record   *domain.TaskRecord
	Notify   *NotifyCompletionOutput
	RunMode  domain.RunMode
	ExitCode int // Agent exit code
}

// RunTask is the use case that dispatches the agent and reports its completion.
// Fields are ordered to minimize memory padding.
type RunTask struct {
	callbacks    domain.CallbackRepository
	captures     domain.CaptureStore
	headless     domain.AgentRunner
	interactive  domain.AgentRunner
	logger       domain.Logger
	begin        *BeginTask
	complete     *CompleteTask
	notify       *NotifyCompletion
	stdout       io.Writer
	lookPath     func(string) (string, error)
	agentBin     string
	outputFormat string
}

// RunTaskDeps groups the collaborators of RunTask.
type RunTaskDeps struct {
	Callbacks   domain.CallbackRepository
	Captures    domain.CaptureStore
	Headless    domain.AgentRunner
	Interactive domain.AgentRunner
	Logger      domain.Logger
	Begin       *BeginTask
	Complete    *CompleteTask
	Notify      *NotifyCompletion
	Stdout      io.Writer
}

// NewRunTask creates a new RunTask use case.
func NewRunTask(deps RunTaskDeps, agentBin, outputFormat string) *RunTask {
	return &RunTask{
		callbacks:    deps.Callbacks,
		captures:     deps.Captures,
		headless:     deps.Headless,
		interactive:  deps.Interactive,
		logger:       deps.Logger,
		begin:        deps.Begin,
		complete:     deps.Complete,
		notify:       deps.Notify,
		stdout:       deps.Stdout,
		lookPath:     exec.LookPath,
		agentBin:     agentBin,
		outputFormat: outputFormat,
	}
}

// Execute runs the whole dispatch sequence:
//   - resolve callback recipients and the run mode
//   - begin the task record
//   - run the agent, teeing output to stdout and the capture
//   - complete the record and run the notifier in-process
//
// The returned ExitCode is the agent's exit code. A missing agent binary
// yields ExitAgentNotFound and no record.
func (uc *RunTask) Execute(ctx context.Context, in RunTaskInput) (*RunTaskOutput, error) {
	if strings.TrimSpace(in.Prompt) == "" {
		return nil, domain.ErrEmptyPrompt
	}
	if in.RunMode != "" && !in.RunMode.IsValid() {
		return nil, fmt.Errorf("unknown run mode %q", in.RunMode)
	}

	workDir := in.WorkDir
	if workDir == "" {
		workDir = "."
	}
	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = filepath.Base(workDir)
	}

	if _, err := uc.lookPath(uc.agentBin); err != nil {
		uc.logger.Error("", "run", fmt.Sprintf("agent binary %q not found", uc.agentBin))
		return &RunTaskOutput{ExitCode: ExitAgentNotFound}, fmt.Errorf("%w: %s", domain.ErrAgentNotFound, uc.agentBin)
	}

	recipients := uc.resolveRecipients(workDir, in.Recipients)
	mode := domain.ResolveRunMode(in.RunMode, in.Prompt)

	begun, err := uc.begin.Execute(ctx, BeginTaskInput{
		Recipients: recipients,
		ID:         in.ID,
		Name:       name,
		WorkDir:    workDir,
		Prompt:     in.Prompt,
		Model:      in.Model,
	})
	if err != nil {
		return nil, err
	}
	id := begun.Record.ID
	uc.logger.Info(id, "run", fmt.Sprintf("launching %s in %s mode", uc.agentBin, mode))

	run := domain.AgentRun{
		Extra:        in.Extra,
		TaskID:       id,
		Bin:          uc.agentBin,
		Prompt:       in.Prompt,
		Model:        in.Model,
		Workspace:    in.Workspace,
		Dir:          workDir,
		OutputFormat: uc.outputFormat,
		Mode:         in.Mode,
		RunMode:      mode,
		Yolo:         in.Yolo,
	}

	exitCode, runErr := uc.runAgent(ctx, run)
	if runErr != nil {
		uc.logger.Error(id, "run", fmt.Sprintf("agent run failed: %v", runErr))
	} else {
		uc.logger.Info(id, "run", fmt.Sprintf("agent exited with code %d", exitCode))
	}

	out := &RunTaskOutput{Record: begun.Record, RunMode: mode, ExitCode: exitCode}

	completed, err := uc.complete.Execute(ctx, CompleteTaskInput{TaskID: id, ExitCode: exitCode})
	if err != nil {
		uc.logger.Error(id, "run", fmt.Sprintf("complete task record: %v", err))
	} else {
		out.Record = completed.Record
	}

	// The output stream is fully drained once the runner returns.
	notified, err := uc.notify.Execute(ctx, NotifyCompletionInput{TaskID: id, SkipSettle: true})
	if err != nil {
		uc.logger.Error(id, "run", fmt.Sprintf("notify: %v", err))
	}
	out.Notify = notified

	if runErr != nil {
		return out, runErr
	}
	return out, nil
}

// resolveRecipients fills callback recipients from the workspace callback
// file. Explicit recipients always win; a bad file is logged and ignored.
func (uc *RunTask) resolveRecipients(workDir string, explicit domain.Recipients) domain.Recipients {
	cb, err := uc.callbacks.Load(workDir)
	if err != nil {
		uc.logger.Warn("", "callback", fmt.Sprintf("ignoring callback file: %v", err))
		return explicit
	}
	return cb.Apply(explicit)
}

// runAgent runs the agent with the runner for its mode. Runner failures
// after launch map to exit code 1.
func (uc *RunTask) runAgent(ctx context.Context, run domain.AgentRun) (int, error) {
	if run.RunMode == domain.RunModeInteractive {
		// The tmux runner appends pane output to the capture itself.
		res, err := uc.interactive.Run(ctx, run, uc.stdout)
		if err != nil {
			return 1, err
		}
		return res.ExitCode, nil
	}

	capture, err := uc.captures.OpenWriter(run.TaskID)
	if err != nil {
		return 1, fmt.Errorf("open capture: %w", err)
	}
	res, err := uc.headless.Run(ctx, run, io.MultiWriter(uc.stdout, capture))
	if closeErr := capture.Close(); closeErr != nil {
		uc.logger.Warn(run.TaskID, "run", fmt.Sprintf("close capture: %v", closeErr))
	}
	if err != nil {
		if errors.Is(err, domain.ErrAgentNotFound) {
			return ExitAgentNotFound, err
		}
		return 1, err
	}
	return res.ExitCode, nil
}
