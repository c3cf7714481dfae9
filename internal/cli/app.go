// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Command dispatch and wiring.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/config"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/ctxlog"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/storage"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/tools"
)

// App holds the process streams and the injectable parts of tool wiring.
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	// CanPrompt reports whether Stdin is interactive
	CanPrompt func() bool

	// Tools overrides the tool dependencies (runner, HTTP client, uploader).
	// Config and Getenv are always set from the loaded session.
	Tools tools.Deps

	// Getenv reads credentials; nil means the process environment
	Getenv tools.Getenv

	// Now is the clock used for "ago" columns
	Now func() time.Time
}

// NewApp returns an App bound to the process streams.
func NewApp() *App {
	return &App{
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Stdin:     os.Stdin,
		CanPrompt: CanPrompt,
		Getenv:    tools.OSGetenv,
		Now:       time.Now,
	}
}

// session is the state shared by commands that need configuration.
type session struct {
	cfg      *config.Config
	logger   *log.Logger
	registry *tools.Registry
	getenv   tools.Getenv
}

// Run executes argv and returns the process exit code.
func (a *App) Run(ctx context.Context, argv []string) int {
	cmd, args := ParseArgs(argv)

	switch cmd {
	case CmdHelp:
		PrintUsage(a.Stdout)
		return ExitSuccess
	case CmdVersion:
		return a.finish(cmd, args, a.handleVersion(args))
	case CmdUnknown:
		err := &ValidationError{Field: "command", Value: args.Name, Reason: "unknown command", Example: "clitools help"}
		return a.finish(cmd, args, err)
	case CmdConfig:
		return a.finish(cmd, args, a.handleConfig(args))
	}

	s, err := a.open(args)
	if err != nil {
		return a.finish(cmd, args, err)
	}
	ctx = ctxlog.WithLogger(ctx, s.logger)

	switch cmd {
	case CmdRun:
		// The tool's exit code is the process exit code
		code, err := a.handleRun(ctx, s, args)
		if err != nil {
			return a.finish(cmd, args, err)
		}
		return code
	case CmdList:
		err = a.handleList(s, args)
	case CmdDescribe:
		err = a.handleDescribe(s, args)
	case CmdHistory:
		err = a.handleHistory(ctx, s, args)
	}
	return a.finish(cmd, args, err)
}

// finish displays err (if any) and maps it to an exit code.
func (a *App) finish(cmd Command, args Args, err error) int {
	if err == nil {
		return ExitSuccess
	}
	if args.JSON {
		DisplayErrorJSON(a.Stdout, cmd.String(), err)
	} else {
		DisplayError(a.Stderr, cmd.String(), err, false)
	}
	return GetExitCode(err)
}

// open loads configuration, builds the logger and registers the tools.
func (a *App) open(args Args) (*session, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, &CommandError{Command: "config", Action: "load", Reason: "cannot load configuration", Err: err}
	}

	level := cfg.Logging.Level
	switch {
	case args.Verbose:
		level = "debug"
	case args.Quiet:
		level = "error"
	}
	logger, err := ctxlog.New(level, cfg.Logging.Format, a.Stderr)
	if err != nil {
		return nil, &CommandError{Command: "config", Action: "load", Reason: "bad logging settings", Err: err}
	}

	getenv := a.Getenv
	if getenv == nil {
		getenv = tools.OSGetenv
	}

	deps := a.Tools
	deps.Config = cfg
	deps.Getenv = getenv

	registry := tools.NewRegistry()
	tools.RegisterBuiltins(registry, deps)
	if err := tools.ApplyPermissions(registry, cfg.Permissions); err != nil {
		return nil, &CommandError{Command: "config", Action: "load", Reason: "bad permissions settings", Err: err}
	}

	return &session{cfg: cfg, logger: logger, registry: registry, getenv: getenv}, nil
}

// newExecutor wires an executor for one run.
func (a *App) newExecutor(s *session, yes, jsonMode bool) *tools.Executor {
	exec := tools.NewExecutor(s.registry)
	exec.SetGetenv(s.getenv)
	exec.SetTimeouts(s.cfg.DefaultTimeout(), s.cfg.MaxTimeout())
	exec.SetMaxOutputSize(s.cfg.Execution.MaxOutputChars)

	switch {
	case s.cfg.Execution.AutoApprove:
		exec.SetAutoApproveLevel(tools.PermissionAsk)
	case yes:
		exec.SetPermissionCallback(tools.AllowAllCallback())
	case jsonMode:
		// JSON callers cannot answer a prompt
		exec.SetPermissionCallback(tools.DenyAllCallback())
	default:
		// Prompts go to stderr so stdout stays the tool output
		prompter := &Prompter{In: a.Stdin, Out: a.Stderr, CanPrompt: a.CanPrompt}
		exec.SetPermissionCallback(prompter.PermissionCallback())
	}
	return exec
}

// openHistory opens the history database, or returns nil when disabled.
func (s *session) openHistory(ctx context.Context) (*storage.History, error) {
	if !s.cfg.History.Enabled {
		return nil, nil
	}
	path, err := s.cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	h, err := storage.OpenHistory(ctx, path)
	if err != nil {
		return nil, &CommandError{Command: "history", Action: "open", Reason: path, Err: err}
	}
	return h, nil
}

// writeJSON writes a success envelope.
func (a *App) writeJSON(command string, data interface{}) error {
	return NewJSONResponse(command, data).Write(a.Stdout)
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.Stdout, format, args...)
}
