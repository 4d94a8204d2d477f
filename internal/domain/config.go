package domain

import "time"

// Application-wide names.
const (
	AppName                 = "agent-dispatch"
	ConfigFileName          = "config.toml"
	WorkspaceConfigFileName = ".agent-dispatch.toml"
)

// Default values for configuration.
const (
	DefaultAgentBin        = "agent"
	DefaultOutputFormat    = "text"
	DefaultNotifyCommand   = "openclaw"
	DefaultNotifyChannel   = "feishu"
	DefaultDedupWindow     = 30 * time.Second
	DefaultFreshnessWindow = 2 * time.Hour
	DefaultCaptureTail     = 4000
	DefaultOutputExcerpt   = 500
	DefaultTestLines       = 3
	DefaultMaxFiles        = 15
	DefaultFileDepth       = 2
	DefaultWakeHost        = "127.0.0.1"
	DefaultWakePort        = 18789
	DefaultWakePath        = "/hooks/wake"
	DefaultWakeTokenKey    = "hooks.token"
	DefaultWakeTimeout     = 5 * time.Second
	DefaultTrustWaitTime   = 20 * time.Second
	DefaultSendDelay       = 800 * time.Millisecond
	DefaultLogMaxSizeMB    = 10
	DefaultLogMaxBackups   = 3
	DefaultLogMaxAgeDays   = 7
)

// DefaultExcludeDirs are skipped by the report file listing.
var DefaultExcludeDirs = []string{
	".git", ".hg", ".svn", "node_modules", "__pycache__", ".pytest_cache",
	".venv", "venv", ".mypy_cache", ".tox", "dist", "build", "target",
	".idea", ".vscode", ".next", ".cache",
}

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings []string
	Agent    AgentConfig
	Report   ReportConfig
	Wake     WakeConfig
	Notify   NotifyConfig
	Log      LogConfig
	Metrics  MetricsConfig
	Store    StoreConfig
}

// AgentConfig holds settings from the [agent] section.
type AgentConfig struct {
	Bin          string        // Agent binary (AGENT_BIN overrides)
	OutputFormat string        // --output-format value for headless runs
	TrustWait    time.Duration // Interactive: how long to wait for the trust prompt
	SendDelay    time.Duration // Interactive: delay between prompt lines
	PTY          bool          // Wrap headless runs in script(1)
}

// NotifyConfig holds settings from the [notify] section.
type NotifyConfig struct {
	Command         string        // Messaging CLI binary; empty disables delivery
	Channel         string        // Channel kind passed to the messaging CLI
	DedupWindow     time.Duration // Repeat triggers within this window are skipped
	FreshnessWindow time.Duration // Records older than this are ignored
	SettleDelay     time.Duration // Wait before reading capture when triggered externally
	CaptureTail     int           // Characters of capture read by the notifier
	OutputExcerpt   int           // Characters of output shown in the report
}

// ReportConfig holds settings from the [report] section.
type ReportConfig struct {
	TestKeywords []string
	ExcludeDirs  []string
	TestLines    int
	MaxFiles     int
	FileDepth    int
	ChangedFiles bool
}

// WakeConfig holds settings from the [wake] section.
type WakeConfig struct {
	Host      string
	Path      string
	TokenFile string // JSON file holding the bearer token
	TokenKey  string // Dotted key of the token inside TokenFile
	Timeout   time.Duration
	Port      int
	Enabled   bool
}

// LogConfig holds settings from the [log] section.
type LogConfig struct {
	Level      string // debug, info, warn, error
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Stderr     bool // Mirror log lines to stderr
}

// MetricsConfig holds settings from the [metrics] section.
type MetricsConfig struct {
	Textfile string // Path for prometheus textfile output; empty disables
}

// StoreConfig holds settings from the [store] section.
type StoreConfig struct {
	Dir string // Result directory (AGENT_DISPATCH_DIR overrides)
}

// NewDefaultConfig returns a Config populated with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Bin:          DefaultAgentBin,
			OutputFormat: DefaultOutputFormat,
			TrustWait:    DefaultTrustWaitTime,
			SendDelay:    DefaultSendDelay,
			PTY:          true,
		},
		Notify: NotifyConfig{
			Command:         DefaultNotifyCommand,
			Channel:         DefaultNotifyChannel,
			DedupWindow:     DefaultDedupWindow,
			FreshnessWindow: DefaultFreshnessWindow,
			CaptureTail:     DefaultCaptureTail,
			OutputExcerpt:   DefaultOutputExcerpt,
		},
		Report: ReportConfig{
			TestKeywords: append([]string(nil), DefaultTestKeywords...),
			ExcludeDirs:  append([]string(nil), DefaultExcludeDirs...),
			TestLines:    DefaultTestLines,
			MaxFiles:     DefaultMaxFiles,
			FileDepth:    DefaultFileDepth,
			ChangedFiles: true,
		},
		Wake: WakeConfig{
			Enabled:  true,
			Host:     DefaultWakeHost,
			Port:     DefaultWakePort,
			Path:     DefaultWakePath,
			TokenKey: DefaultWakeTokenKey,
			Timeout:  DefaultWakeTimeout,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
		},
	}
}
