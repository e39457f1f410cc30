package helpers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
)

// CommandRunner defines an interface for executing system commands
// This allows for mocking in tests and dependency injection
type CommandRunner interface {
	// CommandExists checks if a command resolves to an executable
	CommandExists(name string) bool

	// ResolvePath resolves a command name or path to an absolute executable path
	ResolvePath(name string) (string, error)

	// RunCommandWithOutput runs a command and returns both stdout and stderr
	RunCommandWithOutput(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)

	// GetExitCode extracts the exit code from a command error
	GetExitCode(err error) int
}

// OSCommandRunner is the default implementation using os/exec
type OSCommandRunner struct {
	pathCache sync.Map // map[string]string, resolved paths only
}

// NewOSCommandRunner creates a new OSCommandRunner instance
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// CommandExists checks if a command resolves to an executable.
// Works for both bare names (PATH lookup) and explicit paths.
func (r *OSCommandRunner) CommandExists(name string) bool {
	_, err := r.ResolvePath(name)
	return err == nil
}

// ResolvePath resolves a command name or path to an absolute executable path.
// Successful lookups are cached; misses are not, so an interpreter installed
// mid-process is picked up on the next call.
func (r *OSCommandRunner) ResolvePath(name string) (string, error) {
	if cached, ok := r.pathCache.Load(name); ok {
		if path, ok := cached.(string); ok {
			return path, nil
		}
		r.pathCache.Delete(name)
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", name, err)
	}
	r.pathCache.Store(name, path)
	return path, nil
}

// RunCommandWithOutput runs a command and returns both stdout and stderr
// SECURITY: Uses exec.CommandContext with separate arguments to prevent command injection
func (r *OSCommandRunner) RunCommandWithOutput(ctx context.Context, name string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err = cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()

	if err != nil {
		err = fmt.Errorf("command %q failed: %w", name, err)
	}

	return stdout, stderr, err
}

// GetExitCode extracts the exit code from a command error
func (r *OSCommandRunner) GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	return -1
}
