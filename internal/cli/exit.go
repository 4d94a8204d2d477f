package cli

import "fmt"

// ExitError carries a process exit code out of a command.
// main maps it to os.Exit.
type ExitError struct {
	Err  error // Optional cause, printed by main
	Code int
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
