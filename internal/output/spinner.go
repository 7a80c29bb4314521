package output

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh/spinner"
)

// IsTTY reports whether stdout is attached to a terminal. Checked via
// stdlib os.FileInfo.Mode rather than a terminal-detection library:
// this is the only place in the package that needs it, and the mode
// bit check is already exact.
func IsTTY() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// RunWithSpinner runs action behind a spinner titled title, falling back
// to running it directly when stdout isn't a terminal.
func RunWithSpinner(ctx context.Context, title string, action func() error) error {
	if !IsTTY() {
		return action()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- action() }()

	var actionErr error
	s := spinner.New().Title(title).Action(func() {
		select {
		case <-ctx.Done():
			actionErr = ctx.Err()
		case actionErr = <-errCh:
		}
	})
	if err := s.Run(); err != nil {
		return fmt.Errorf("sandboxtest: spinner error: %w", err)
	}

	return actionErr
}
