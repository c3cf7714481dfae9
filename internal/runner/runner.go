// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package runner executes wrapped CLIs as subprocesses.
//
// Commands are run directly from an argument vector, never through a shell.
// A non-zero exit status is a normal outcome and is reported in
// Outcome.ExitCode; Run only returns an error when the process could not be
// started or did not finish.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/ctxlog"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/util"
)

// Conventional shell exit codes for failures that never reached the binary.
const (
	ExitTimeout      = 124
	ExitNotInstalled = 127
)

// waitDelay bounds how long Run waits for output pipes after a kill.
const waitDelay = 2 * time.Second

var (
	// ErrNotInstalled is returned when the binary is not on PATH.
	ErrNotInstalled = errors.New("executable not found")

	// ErrTimeout is returned when the command exceeded its deadline.
	ErrTimeout = errors.New("command timed out")

	// ErrCancelled is returned when the caller cancelled the context.
	ErrCancelled = errors.New("command cancelled")
)

// Command describes one subprocess invocation.
type Command struct {
	// Name is the executable name or path
	Name string

	// Args are passed verbatim, without shell interpretation
	Args []string

	// Env holds extra KEY=VALUE pairs on top of the sanitized environment
	Env []string

	// Dir is the working directory (empty means current)
	Dir string

	// Stdin is optional standard input
	Stdin io.Reader

	// Timeout bounds the run; zero relies on the context deadline only
	Timeout time.Duration
}

// String renders the command for display. Arguments are shown as given.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Outcome is the captured result of a finished process.
type Outcome struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Success reports whether the process exited with status 0.
func (o *Outcome) Success() bool {
	return o.ExitCode == 0
}

// Combined returns stdout followed by stderr, separated by a newline when
// both are present.
func (o *Outcome) Combined() string {
	switch {
	case o.Stdout == "":
		return o.Stderr
	case o.Stderr == "":
		return o.Stdout
	}
	return strings.TrimRight(o.Stdout, "\n") + "\n" + o.Stderr
}

// Runner runs commands. Tools depend on this interface so tests can stub the
// wrapped binaries.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Outcome, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// LookPath resolves executables; defaults to exec.LookPath
	LookPath func(file string) (string, error)

	// Environ provides the inherited environment; defaults to os.Environ
	Environ func() []string
}

// NewExecRunner returns an ExecRunner using the process environment.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		LookPath: exec.LookPath,
		Environ:  os.Environ,
	}
}

// Run executes cmd and waits for it to finish.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Outcome, error) {
	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	environ := r.Environ
	if environ == nil {
		environ = os.Environ
	}

	path, err := lookPath(cmd.Name)
	if err != nil {
		return &Outcome{ExitCode: ExitNotInstalled}, fmt.Errorf("%w: %s", ErrNotInstalled, cmd.Name)
	}

	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(runCtx, path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdin = cmd.Stdin
	// Grandchildren holding stdout open must not stall a killed command
	c.WaitDelay = waitDelay

	// SECURITY: Sanitize environment to prevent loader injection
	c.Env = append(SanitizeEnvironment(environ()), cmd.Env...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	logger := ctxlog.FromContext(ctx)
	logger.Debug("running command", "binary", cmd.Name, "subcommand", firstArg(cmd.Args))

	start := time.Now()
	runErr := c.Run()
	out := &Outcome{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	// Check for context cancellation (timeout) before inspecting the exit
	switch runCtx.Err() {
	case context.DeadlineExceeded:
		out.ExitCode = ExitTimeout
		return out, fmt.Errorf("%w after %s", ErrTimeout, util.FormatDuration(out.Duration))
	case context.Canceled:
		out.ExitCode = ExitTimeout
		return out, ErrCancelled
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			logger.Debug("command exited", "binary", cmd.Name, "exit_code", out.ExitCode, "duration", out.Duration)
			return out, nil
		}
		out.ExitCode = 1
		return out, fmt.Errorf("failed to run %s: %w", cmd.Name, runErr)
	}

	logger.Debug("command exited", "binary", cmd.Name, "exit_code", 0, "duration", out.Duration)
	return out, nil
}

// firstArg returns the first non-flag argument, used as a loggable subcommand.
// Later arguments may carry secrets (az login --password) and are not logged.
func firstArg(args []string) string {
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			return a
		}
	}
	return ""
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// DangerousEnvVars are never inherited by wrapped processes.
var DangerousEnvVars = []string{
	"LD_PRELOAD",
	"LD_LIBRARY_PATH",
	"LD_AUDIT",
	"DYLD_INSERT_LIBRARIES",
	"DYLD_LIBRARY_PATH",
	"BASH_ENV",
	"ENV",
	"PROMPT_COMMAND",
	"IFS",
}

// SanitizeEnvironment filters variables that could inject code into a child
// process. Credentials such as GH_TOKEN are kept; the wrapped CLIs need them.
func SanitizeEnvironment(env []string) []string {
	dangerous := make(map[string]bool, len(DangerousEnvVars))
	for _, v := range DangerousEnvVars {
		dangerous[v] = true
	}

	result := make([]string, 0, len(env))
	for _, kv := range env {
		idx := strings.Index(kv, "=")
		if idx <= 0 {
			continue
		}
		key := strings.ToUpper(kv[:idx])

		if dangerous[key] {
			continue
		}
		if strings.HasPrefix(key, "BASH_FUNC_") ||
			strings.HasPrefix(key, "LD_") ||
			strings.HasPrefix(key, "DYLD_") {
			continue
		}
		result = append(result, kv)
	}
	return result
}
