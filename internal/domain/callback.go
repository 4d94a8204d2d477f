package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CallbackFileName is the workspace-local callback configuration file.
const CallbackFileName = ".agent-callback.json"

// CallbackType discriminates callback configurations.
type CallbackType string

// Callback types.
const (
	CallbackGroup CallbackType = "group" // Short status line to a group chat
	CallbackDM    CallbackType = "dm"    // Short status line to a direct message
	CallbackWake  CallbackType = "wake"  // Rely on the wake signal only
)

// Callback is the content of the workspace callback file.
type Callback struct {
	Type    CallbackType `json:"type"`
	Group   string       `json:"group,omitempty"`
	DM      string       `json:"dm,omitempty"`
	Account string       `json:"account,omitempty"`
}

// ParseCallback decodes and validates a callback file.
func ParseCallback(data []byte) (*Callback, error) {
	var cb Callback
	if err := json.Unmarshal(data, &cb); err != nil {
		return nil, fmt.Errorf("parse callback: %w", err)
	}
	cb.Type = CallbackType(strings.ToLower(strings.TrimSpace(string(cb.Type))))
	if err := cb.Validate(); err != nil {
		return nil, err
	}
	return &cb, nil
}

// Validate checks that the fields required by the type are present.
func (c *Callback) Validate() error {
	switch c.Type {
	case CallbackGroup:
		if c.Group == "" {
			return fmt.Errorf("callback type group requires group: %w", ErrNoRecipient)
		}
	case CallbackDM:
		if c.DM == "" {
			return fmt.Errorf("callback type dm requires dm: %w", ErrNoRecipient)
		}
	case CallbackWake:
	default:
		return fmt.Errorf("%q: %w", c.Type, ErrInvalidCallbackType)
	}
	return nil
}

// Apply fills the callback recipients in r that are not already set.
// Explicitly supplied recipients always win.
func (c *Callback) Apply(r Recipients) Recipients {
	if c == nil {
		return r
	}
	switch c.Type {
	case CallbackGroup:
		if r.CallbackGroup == "" {
			r.CallbackGroup = c.Group
		}
	case CallbackDM:
		if r.CallbackDM == "" {
			r.CallbackDM = c.DM
			if r.DMAccount == "" {
				r.DMAccount = c.Account
			}
		}
	}
	return r
}
