package usecase

import (
	"fmt"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// resolveTaskID returns id, or the current task when id is empty.
func resolveTaskID(tasks domain.TaskRepository, id string) (string, error) {
	if id != "" {
		if err := domain.ValidateTaskID(id); err != nil {
			return "", err
		}
		return id, nil
	}
	current, err := tasks.Current()
	if err != nil {
		return "", fmt.Errorf("resolve current task: %w", err)
	}
	return current, nil
}
