// Package app provides the dependency injection container for the application.
package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/runoshun/agent-dispatch/internal/domain"
	"github.com/runoshun/agent-dispatch/internal/infra/config"
	"github.com/runoshun/agent-dispatch/internal/infra/filelist"
	"github.com/runoshun/agent-dispatch/internal/infra/filestore"
	"github.com/runoshun/agent-dispatch/internal/infra/gitchanges"
	"github.com/runoshun/agent-dispatch/internal/infra/jsonstore"
	"github.com/runoshun/agent-dispatch/internal/infra/lockfile"
	"github.com/runoshun/agent-dispatch/internal/infra/logging"
	"github.com/runoshun/agent-dispatch/internal/infra/messaging"
	"github.com/runoshun/agent-dispatch/internal/infra/metrics"
	"github.com/runoshun/agent-dispatch/internal/infra/runner"
	"github.com/runoshun/agent-dispatch/internal/infra/tmux"
	"github.com/runoshun/agent-dispatch/internal/infra/wake"
	"github.com/runoshun/agent-dispatch/internal/usecase"
)

// Options selects the directories the container works in.
type Options struct {
	Stdout   io.Writer // Agent output destination
	Stderr   io.Writer // Log mirror destination
	WorkDir  string    // Workspace holding .agent-dispatch.toml and .agent-callback.json
	StoreDir string    // Result directory override (--dir)
}

// Config holds the resolved application paths.
type Config struct {
	WorkDir    string // Workspace directory
	StoreDir   string // Result directory
	SocketPath string // Path to tmux socket
	TokenFile  string // Wake token file
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Tasks        domain.TaskRepository
	Captures     domain.CaptureStore
	Results      domain.ResultRepository
	Callbacks    domain.CallbackRepository
	Gate         domain.DedupGate
	Messenger    domain.Messenger
	Waker        domain.WakeSignaler // nil when [wake] enabled = false
	Files        domain.FileLister
	Changes      domain.ChangeLister // nil when [report] changed_files = false
	Metrics      domain.Metrics
	Headless     domain.AgentRunner
	Interactive  domain.AgentRunner
	Clock        domain.Clock
	ConfigLoader domain.ConfigLoader

	// Pointer fields
	Logger    *logging.Logger
	AppConfig *domain.Config
	Stdout    io.Writer

	// Configuration
	Config Config
}

// New loads configuration and wires every port.
func New(opts Options) (*Container, error) {
	workDir := opts.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		workDir = wd
	}
	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	loader := config.NewLoader(workDir)
	appConfig, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	storeDir := opts.StoreDir
	if storeDir == "" {
		storeDir = appConfig.Store.Dir
	}
	if storeDir == "" {
		storeDir = defaultStoreDir()
	}
	storeDir, err = filepath.Abs(storeDir)
	if err != nil {
		return nil, fmt.Errorf("resolve result directory: %w", err)
	}

	tokenFile := appConfig.Wake.TokenFile
	if tokenFile == "" {
		tokenFile = wake.DefaultTokenFile()
	}

	cfg := Config{
		WorkDir:    workDir,
		StoreDir:   storeDir,
		SocketPath: domain.TmuxSocketPath(storeDir),
		TokenFile:  tokenFile,
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	var mirror io.Writer
	if appConfig.Log.Stderr {
		mirror = opts.Stderr
		if mirror == nil {
			mirror = os.Stderr
		}
	}
	logger := logging.New(logging.Options{
		Mirror:     mirror,
		Dir:        storeDir,
		Level:      logging.ParseLevel(appConfig.Log.Level),
		MaxSizeMB:  appConfig.Log.MaxSizeMB,
		MaxBackups: appConfig.Log.MaxBackups,
		MaxAgeDays: appConfig.Log.MaxAgeDays,
	})

	tasks := filestore.New(storeDir)

	var waker domain.WakeSignaler
	if appConfig.Wake.Enabled {
		// The child resolves the same workspace and result directory.
		waker = wake.NewDetached(tokenFile, appConfig.Wake.TokenKey, "--workdir", workDir, "--dir", storeDir)
	}

	var changes domain.ChangeLister
	if appConfig.Report.ChangedFiles {
		changes = gitchanges.New(appConfig.Report.MaxFiles)
	}

	return &Container{
		Tasks:        tasks,
		Captures:     tasks,
		Results:      jsonstore.New(storeDir),
		Callbacks:    jsonstore.NewCallbackStore(),
		Gate:         lockfile.New(storeDir),
		Messenger:    messaging.NewCLI(appConfig.Notify.Command),
		Waker:        waker,
		Files:        filelist.New(appConfig.Report.FileDepth, appConfig.Report.MaxFiles, appConfig.Report.ExcludeDirs),
		Changes:      changes,
		Metrics:      metrics.New(appConfig.Metrics.Textfile),
		Headless:     runner.NewClient(appConfig.Agent.PTY),
		Interactive:  newInteractiveRunner(cfg.SocketPath, tasks, appConfig.Agent),
		Clock:        domain.RealClock{},
		ConfigLoader: loader,
		Logger:       logger,
		AppConfig:    appConfig,
		Stdout:       stdout,
		Config:       cfg,
	}, nil
}

func newInteractiveRunner(socketPath string, captures domain.CaptureStore, agent domain.AgentConfig) *tmux.Runner {
	return tmux.NewRunner(tmux.NewClient(socketPath), captures, tmux.RunnerOptions{
		TrustWait: agent.TrustWait,
		SendDelay: agent.SendDelay,
	})
}

// defaultStoreDir returns $XDG_STATE_HOME/agent-dispatch, falling back to
// ~/.local/state/agent-dispatch.
func defaultStoreDir() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), domain.AppName)
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, domain.AppName)
}

// Close releases open log files.
func (c *Container) Close() error {
	if c.Logger == nil {
		return nil
	}
	return c.Logger.Close()
}

// UseCase factory methods

// BeginTaskUseCase returns a new BeginTask use case.
func (c *Container) BeginTaskUseCase() *usecase.BeginTask {
	return usecase.NewBeginTask(c.Tasks, c.Captures, c.Clock, c.Logger)
}

// CompleteTaskUseCase returns a new CompleteTask use case.
func (c *Container) CompleteTaskUseCase() *usecase.CompleteTask {
	return usecase.NewCompleteTask(c.Tasks, c.Clock, c.Logger)
}

// NotifyCompletionUseCase returns a new NotifyCompletion use case.
func (c *Container) NotifyCompletionUseCase() *usecase.NotifyCompletion {
	return usecase.NewNotifyCompletion(usecase.NotifyDeps{
		Tasks:     c.Tasks,
		Captures:  c.Captures,
		Results:   c.Results,
		Gate:      c.Gate,
		Messenger: c.Messenger,
		Waker:     c.Waker,
		Files:     c.Files,
		Changes:   c.Changes,
		Metrics:   c.Metrics,
		Clock:     c.Clock,
		Logger:    c.Logger,
	}, usecase.NotifyOptionsFromConfig(c.AppConfig))
}

// RunTaskUseCase returns a new RunTask use case.
func (c *Container) RunTaskUseCase() *usecase.RunTask {
	return usecase.NewRunTask(usecase.RunTaskDeps{
		Callbacks:   c.Callbacks,
		Captures:    c.Captures,
		Headless:    c.Headless,
		Interactive: c.Interactive,
		Logger:      c.Logger,
		Begin:       c.BeginTaskUseCase(),
		Complete:    c.CompleteTaskUseCase(),
		Notify:      c.NotifyCompletionUseCase(),
		Stdout:      c.Stdout,
	}, c.AppConfig.Agent.Bin, c.AppConfig.Agent.OutputFormat)
}

// ShowResultUseCase returns a new ShowResult use case.
func (c *Container) ShowResultUseCase() *usecase.ShowResult {
	return usecase.NewShowResult(c.Results)
}

// ShowTaskUseCase returns a new ShowTask use case.
func (c *Container) ShowTaskUseCase() *usecase.ShowTask {
	return usecase.NewShowTask(c.Tasks, c.Captures, c.Clock, c.AppConfig.Notify.FreshnessWindow)
}

// SetCallbackUseCase returns a new SetCallback use case.
func (c *Container) SetCallbackUseCase() *usecase.SetCallback {
	return usecase.NewSetCallback(c.Callbacks)
}

// ShowCallbackUseCase returns a new ShowCallback use case.
func (c *Container) ShowCallbackUseCase() *usecase.ShowCallback {
	return usecase.NewShowCallback(c.Callbacks)
}

// ClearCallbackUseCase returns a new ClearCallback use case.
func (c *Container) ClearCallbackUseCase() *usecase.ClearCallback {
	return usecase.NewClearCallback(c.Callbacks)
}

// WakeClient returns a client for the configured wake endpoint.
func (c *Container) WakeClient(token string) *wake.Client {
	w := c.AppConfig.Wake
	return wake.NewClient(w.Host, w.Port, w.Path, token, w.Timeout)
}
