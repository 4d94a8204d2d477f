// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/runoshun/agent-dispatch/internal/domain"
)

// Environment variables that override file configuration.
const (
	EnvAgentBin = "AGENT_BIN"
	EnvStoreDir = "AGENT_DISPATCH_DIR"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files.
type Loader struct {
	getenv        func(string) string
	workDir       string // Workspace holding .agent-dispatch.toml
	globalConfDir string // Path to global config directory (e.g., ~/.config/agent-dispatch)
}

// NewLoader creates a new Loader.
func NewLoader(workDir string) *Loader {
	return &Loader{
		getenv:        os.Getenv,
		workDir:       workDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory
// and environment lookup. This is useful for testing.
func NewLoaderWithGlobalDir(workDir, globalConfDir string, getenv func(string) string) *Loader {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	return &Loader{
		getenv:        getenv,
		workDir:       workDir,
		globalConfDir: globalConfDir,
	}
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalConfigDir(configHome)
}

// Load returns the merged configuration.
// Precedence: default <- global <- workspace <- environment.
func (l *Loader) Load() (*domain.Config, error) {
	cfg := domain.NewDefaultConfig()

	if l.globalConfDir != "" {
		if err := l.applyFile(cfg, filepath.Join(l.globalConfDir, domain.ConfigFileName)); err != nil {
			return nil, err
		}
	}
	if l.workDir != "" {
		if err := l.applyFile(cfg, domain.WorkspaceConfigPath(l.workDir)); err != nil {
			return nil, err
		}
	}

	if v := l.getenv(EnvAgentBin); v != "" {
		cfg.Agent.Bin = v
	}
	if v := l.getenv(EnvStoreDir); v != "" {
		cfg.Store.Dir = v
	}

	sort.Strings(cfg.Warnings)
	return cfg, nil
}

// applyFile overlays the file at path onto cfg. A missing file is not an error.
func (l *Loader) applyFile(cfg *domain.Config, path string) error {
	raw, err := loadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.Warnings = append(cfg.Warnings, applyRaw(cfg, raw)...)
	return nil
}

// loadFile reads a TOML file into a raw map.
func loadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// applyRaw overlays values present in raw onto cfg and returns warnings for
// unknown sections, unknown keys and values of the wrong type.
// Only keys present in raw are touched, so explicit false or zero values override.
func applyRaw(cfg *domain.Config, raw map[string]any) []string {
	var warnings []string

	for section, value := range raw {
		m, ok := value.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", section))
			continue
		}
		s := &sectionReader{name: section, values: m}

		switch section {
		case "agent":
			for k := range m {
				switch k {
				case "bin":
					s.str(k, &cfg.Agent.Bin)
				case "output_format":
					s.str(k, &cfg.Agent.OutputFormat)
				case "trust_wait":
					s.duration(k, &cfg.Agent.TrustWait)
				case "send_delay":
					s.duration(k, &cfg.Agent.SendDelay)
				case "pty":
					s.boolean(k, &cfg.Agent.PTY)
				default:
					s.unknown(k)
				}
			}
		case "notify":
			for k := range m {
				switch k {
				case "command":
					s.str(k, &cfg.Notify.Command)
				case "channel":
					s.str(k, &cfg.Notify.Channel)
				case "dedup_window":
					s.duration(k, &cfg.Notify.DedupWindow)
				case "freshness_window":
					s.duration(k, &cfg.Notify.FreshnessWindow)
				case "settle_delay":
					s.duration(k, &cfg.Notify.SettleDelay)
				case "capture_tail":
					s.integer(k, &cfg.Notify.CaptureTail)
				case "output_excerpt":
					s.integer(k, &cfg.Notify.OutputExcerpt)
				default:
					s.unknown(k)
				}
			}
		case "report":
			for k := range m {
				switch k {
				case "test_keywords":
					s.strings(k, &cfg.Report.TestKeywords)
				case "exclude_dirs":
					s.strings(k, &cfg.Report.ExcludeDirs)
				case "test_lines":
					s.integer(k, &cfg.Report.TestLines)
				case "max_files":
					s.integer(k, &cfg.Report.MaxFiles)
				case "file_depth":
					s.integer(k, &cfg.Report.FileDepth)
				case "changed_files":
					s.boolean(k, &cfg.Report.ChangedFiles)
				default:
					s.unknown(k)
				}
			}
		case "wake":
			for k := range m {
				switch k {
				case "enabled":
					s.boolean(k, &cfg.Wake.Enabled)
				case "host":
					s.str(k, &cfg.Wake.Host)
				case "port":
					s.integer(k, &cfg.Wake.Port)
				case "path":
					s.str(k, &cfg.Wake.Path)
				case "token_file":
					s.str(k, &cfg.Wake.TokenFile)
				case "token_key":
					s.str(k, &cfg.Wake.TokenKey)
				case "timeout":
					s.duration(k, &cfg.Wake.Timeout)
				default:
					s.unknown(k)
				}
			}
		case "log":
			for k := range m {
				switch k {
				case "level":
					s.str(k, &cfg.Log.Level)
				case "max_size_mb":
					s.integer(k, &cfg.Log.MaxSizeMB)
				case "max_backups":
					s.integer(k, &cfg.Log.MaxBackups)
				case "max_age_days":
					s.integer(k, &cfg.Log.MaxAgeDays)
				case "stderr":
					s.boolean(k, &cfg.Log.Stderr)
				default:
					s.unknown(k)
				}
			}
		case "metrics":
			for k := range m {
				switch k {
				case "textfile":
					s.str(k, &cfg.Metrics.Textfile)
				default:
					s.unknown(k)
				}
			}
		case "store":
			for k := range m {
				switch k {
				case "dir":
					s.str(k, &cfg.Store.Dir)
				default:
					s.unknown(k)
				}
			}
		default:
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", section))
			continue
		}
		warnings = append(warnings, s.warnings...)
	}

	return warnings
}

// sectionReader decodes typed values from one raw TOML table.
type sectionReader struct {
	values   map[string]any
	name     string
	warnings []string
}

func (s *sectionReader) unknown(key string) {
	s.warnings = append(s.warnings, fmt.Sprintf("unknown key in [%s]: %s", s.name, key))
}

func (s *sectionReader) invalid(key string, v any) {
	s.warnings = append(s.warnings, fmt.Sprintf("invalid value for [%s].%s: %v", s.name, key, v))
}

func (s *sectionReader) str(key string, dst *string) {
	if v, ok := s.values[key].(string); ok {
		*dst = v
		return
	}
	s.invalid(key, s.values[key])
}

func (s *sectionReader) boolean(key string, dst *bool) {
	if v, ok := s.values[key].(bool); ok {
		*dst = v
		return
	}
	s.invalid(key, s.values[key])
}

// integer accepts TOML integers. go-toml decodes them into int64.
func (s *sectionReader) integer(key string, dst *int) {
	if v, ok := s.values[key].(int64); ok && v >= 0 {
		*dst = int(v)
		return
	}
	s.invalid(key, s.values[key])
}

// duration accepts Go duration strings ("30s", "2h") or integer seconds.
func (s *sectionReader) duration(key string, dst *time.Duration) {
	switch v := s.values[key].(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err == nil && d >= 0 {
			*dst = d
			return
		}
	case int64:
		if v >= 0 {
			*dst = time.Duration(v) * time.Second
			return
		}
	}
	s.invalid(key, s.values[key])
}

func (s *sectionReader) strings(key string, dst *[]string) {
	list, ok := s.values[key].([]any)
	if !ok {
		s.invalid(key, s.values[key])
		return
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		str, ok := item.(string)
		if !ok {
			s.invalid(key, s.values[key])
			return
		}
		out = append(out, str)
	}
	*dst = out
}
