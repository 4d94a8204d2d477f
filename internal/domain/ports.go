package domain

import (
	"context"
	"io"
	"time"
)

// TaskRepository manages task record persistence.
type TaskRepository interface {
	// Get retrieves a record by task ID. Returns ErrTaskNotFound if absent.
	Get(id string) (*TaskRecord, error)

	// GetWithModTime retrieves a record together with its storage modification time.
	GetWithModTime(id string) (*TaskRecord, time.Time, error)

	// Save atomically creates or replaces a record.
	Save(record *TaskRecord) error

	// Update reads the record, applies fn and writes the result while holding
	// the task's write lock. Nothing is written when fn returns an error.
	Update(id string, fn func(*TaskRecord) error) (*TaskRecord, error)

	// SetCurrent records id as the most recently begun task.
	SetCurrent(id string) error

	// Current returns the most recently begun task ID. Returns ErrTaskNotFound if none.
	Current() (string, error)
}

// CaptureStore manages the captured output of task subprocesses.
type CaptureStore interface {
	// OpenWriter opens the capture for appending, creating it if needed.
	OpenWriter(id string) (io.WriteCloser, error)

	// ReadTail returns at most limit trailing characters of the capture.
	// A missing capture yields an empty string.
	ReadTail(id string, limit int) (string, error)

	// Path returns the filesystem path of the capture.
	Path(id string) string
}

// ResultRepository persists the single-slot notifier outputs.
type ResultRepository interface {
	SaveResult(result *ResultRecord) error
	SavePendingWake(wake *PendingWakeRecord) error
	// LoadResult returns ErrNoResult if nothing has been written yet.
	LoadResult() (*ResultRecord, error)
	// LoadPendingWake returns ErrNoResult if nothing has been written yet.
	LoadPendingWake() (*PendingWakeRecord, error)
}

// DedupGate debounces repeated completion triggers.
type DedupGate interface {
	// TryAcquire claims key for window. It returns false if the key was
	// claimed less than window ago.
	TryAcquire(key string, window time.Duration, now time.Time) (bool, error)
}

// CallbackRepository reads and writes workspace callback files.
type CallbackRepository interface {
	// Load returns nil, nil if no callback file exists in workDir.
	Load(workDir string) (*Callback, error)
	Save(workDir string, cb *Callback) error
	Clear(workDir string) error
}

// Message is a single notification handed to the messaging transport.
type Message struct {
	Channel string
	Target  string
	Body    string
	Account string // Optional sender identity
}

// Messenger delivers notifications through an external transport.
type Messenger interface {
	// Available reports whether a transport is configured and installed.
	Available() bool

	// Send delivers one message. Each call is attempted exactly once.
	Send(ctx context.Context, msg Message) error
}

// WakeSignal is the payload of a wake call.
type WakeSignal struct {
	Text string
}

// WakeSignaler issues the fire-and-forget wake call.
type WakeSignaler interface {
	// Signal must return without waiting for the endpoint.
	Signal(ctx context.Context, sig WakeSignal) error
}

// FileLister produces the shallow working directory listing.
type FileLister interface {
	List(dir string) ([]string, error)
}

// ChangeLister lists files changed in a version-controlled directory.
type ChangeLister interface {
	// Changed returns nil, nil when dir is not under version control.
	Changed(dir string) ([]string, error)
}

// RunMode selects how the agent is launched.
type RunMode string

// Run modes.
const (
	RunModeAuto        RunMode = "auto"
	RunModeHeadless    RunMode = "headless"
	RunModeInteractive RunMode = "interactive"
)

// IsValid returns true if the run mode is known.
func (m RunMode) IsValid() bool {
	switch m {
	case RunModeAuto, RunModeHeadless, RunModeInteractive:
		return true
	default:
		return false
	}
}

// AgentRun describes one agent invocation.
// Fields are ordered to minimize memory padding.
type AgentRun struct {
	Extra        []string // Extra arguments appended verbatim
	TaskID       string
	Bin          string
	Prompt       string
	Model        string
	Workspace    string
	Dir          string
	OutputFormat string
	Mode         string // Agent mode: plan, ask, or empty
	RunMode      RunMode
	Yolo         bool
}

// AgentResult is the outcome of an agent invocation.
type AgentResult struct {
	ExitCode int
}

// AgentRunner runs the coding agent and streams its combined output.
type AgentRunner interface {
	// Run blocks until the agent exits and its output has been fully drained
	// into output.
	Run(ctx context.Context, run AgentRun, output io.Writer) (AgentResult, error)
}

// Logger records pipeline events. taskID may be empty for global entries.
type Logger interface {
	Info(taskID, category, msg string)
	Debug(taskID, category, msg string)
	Warn(taskID, category, msg string)
	Error(taskID, category, msg string)
}

// Metrics records notifier counters.
type Metrics interface {
	ObserveRun(outcome string)
	ObserveDelivery(channel, result string)
	// Flush exports collected metrics. It is a no-op when export is disabled.
	Flush() error
}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (global + workspace).
	Load() (*Config, error)
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
