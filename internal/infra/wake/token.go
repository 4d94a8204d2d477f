// Package wake issues the best-effort wake call to the local webhook listener.
package wake

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// DefaultTokenFile returns the token file used when none is configured.
func DefaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".openclaw", "openclaw.json")
}

// ReadToken reads the string at the dotted key (e.g. "hooks.token") of a
// JSON file. A missing file, missing key or empty value yields ErrNoToken.
func ReadToken(path, key string) (string, error) {
	if path == "" {
		return "", domain.ErrNoToken
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s not found", domain.ErrNoToken, path)
		}
		return "", fmt.Errorf("read token file: %w", err)
	}

	var node any
	if err := json.Unmarshal(content, &node); err != nil {
		return "", fmt.Errorf("parse token file: %w", err)
	}
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return "", fmt.Errorf("%w: key %s", domain.ErrNoToken, key)
		}
		node = m[part]
	}
	token, _ := node.(string)
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: key %s", domain.ErrNoToken, key)
	}
	return token, nil
}
