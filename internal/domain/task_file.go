package domain

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// TaskFile is a task definition read from a Markdown file with YAML frontmatter.
//
//	---
//	name: calc-cli
//	workdir: ./calc
//	target: chat:oc_123
//	---
//	Build a calculator CLI with tests.
type TaskFile struct {
	Name            string `yaml:"name"`
	WorkDir         string `yaml:"workdir"`
	Model           string `yaml:"model"`
	Mode            string `yaml:"mode"`
	RunMode         string `yaml:"run_mode"`
	Target          string `yaml:"target"`
	CallbackGroup   string `yaml:"callback_group"`
	CallbackDM      string `yaml:"callback_dm"`
	CallbackAccount string `yaml:"callback_account"`
	Prompt          string `yaml:"-"`
}

// ParseTaskFile parses frontmatter and body. Content without frontmatter is
// treated as a bare prompt.
func ParseTaskFile(content string) (*TaskFile, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, "---\n") {
		tf := &TaskFile{Prompt: strings.TrimSpace(content)}
		if tf.Prompt == "" {
			return nil, ErrEmptyPrompt
		}
		return tf, nil
	}

	rest := content[len("---\n"):]
	var front, body string
	if strings.HasPrefix(rest, "---") {
		body = rest[len("---"):]
	} else {
		end := strings.Index(rest, "\n---")
		if end == -1 {
			return nil, fmt.Errorf("missing closing ---: %w", ErrInvalidFrontmatter)
		}
		front = rest[:end]
		body = rest[end+len("\n---"):]
	}

	var tf TaskFile
	if err := yaml.Unmarshal([]byte(front), &tf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
	}
	tf.Prompt = strings.TrimSpace(body)
	if tf.Prompt == "" {
		return nil, ErrEmptyPrompt
	}
	return &tf, nil
}

// Recipients returns the recipients declared in the file.
func (f *TaskFile) Recipients() Recipients {
	return Recipients{
		Primary:       f.Target,
		CallbackGroup: f.CallbackGroup,
		CallbackDM:    f.CallbackDM,
		DMAccount:     f.CallbackAccount,
	}
}

// HasSlashCommands reports whether any prompt line starts with a slash
// command. Lines starting with // are not commands.
func HasSlashCommands(prompt string) bool {
	for _, line := range strings.Split(prompt, "\n") {
		s := strings.TrimSpace(line)
		if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
			return true
		}
	}
	return false
}
