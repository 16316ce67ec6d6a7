// Package runner runs external processes and reports their exit status.
// Install steps (git clone, virtualenv, pip, shell hooks) all go through a
// Runner so they can be substituted in tests.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kamusis/byht/internal/logging"
)

// Command describes one process invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
}

// Shell returns a command running script through sh -c in dir.
func Shell(script, dir string) Command {
	return Command{Name: "sh", Args: []string{"-c", script}, Dir: dir}
}

// String renders the command line for logs and messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner executes a command and blocks until it exits. A non-zero exit
// status is reported as *ExitError.
type Runner interface {
	Run(ctx context.Context, c Command) error
}

// ExitError reports a process that ran and exited non-zero.
type ExitError struct {
	Command Command
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command.Name, e.Code)
}

// ExitCode returns the exit status carried by err, 0 for nil and 1 for any
// other failure.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return 1
}

// Exec runs commands with os/exec, streaming output to Stdout and Stderr.
type Exec struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExec returns an Exec wired to the process's stdout and stderr.
func NewExec() *Exec {
	return &Exec{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run implements Runner.
func (r *Exec) Run(ctx context.Context, c Command) error {
	logger := logging.GetLogger("runner")
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	logger.Debug().Str("command", c.String()).Str("dir", c.Dir).Msg("executing")
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		logger.Debug().Str("command", c.Name).Int("code", exitErr.ExitCode()).Msg("non-zero exit")
		return &ExitError{Command: c, Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("cannot run %s: %w", c.Name, err)
}
