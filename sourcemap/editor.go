package sourcemap

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
)

// CommandEditor opens files by shelling out to an editor CLI that accepts
// the "path:line:column" goto form (VS Code's `code -g`, cursor, zed).
type CommandEditor struct {
	// Command is the editor binary. Default: "code".
	Command string
	// Root resolves project-relative paths from the source mapper.
	Root   string
	Logger *slog.Logger
}

// NewCommandEditor creates an editor collaborator for the given binary.
func NewCommandEditor(command, root string, logger *slog.Logger) *CommandEditor {
	if command == "" {
		command = "code"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandEditor{Command: command, Root: root, Logger: logger}
}

// OpenFile launches the editor at the given position. Line/column of 0
// mean "unknown" and are omitted.
func (e *CommandEditor) OpenFile(ctx context.Context, path string, line, column int) error {
	abs := path
	if !filepath.IsAbs(abs) && e.Root != "" {
		abs = filepath.Join(e.Root, path)
	}

	goTo := abs
	if line > 0 {
		goTo = fmt.Sprintf("%s:%d", goTo, line)
		if column > 0 {
			goTo = fmt.Sprintf("%s:%d", goTo, column)
		}
	}

	cmd := exec.CommandContext(ctx, e.Command, "-g", goTo)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("sourcemap: open editor: %w", err)
	}
	// The editor outlives the request; reap it in the background.
	go func() {
		if err := cmd.Wait(); err != nil {
			e.Logger.Debug("sourcemap: editor exited", "error", err)
		}
	}()
	return nil
}
