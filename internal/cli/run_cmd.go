// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// run_cmd.go - Run command implementation.
//
// Command: run <tool> [params]
// Short:   Execute one wrapper tool
// Aliases: exec
//
// Examples:
//   clitools run github_cli --command "repo view"
//   clitools run helm_cli_command --command "list -A" --yes
//   clitools run argocd_list_applications --health_filter Degraded --json
//
// Stdout carries the tool output (or the JSON envelope); diagnostics and
// prompts go to stderr. The process exits with the tool's exit code.

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/ctxlog"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/tools"
)

// handleRun executes a tool. A returned error means the invocation itself
// was malformed; tool failures come back as the exit code.
func (a *App) handleRun(ctx context.Context, s *session, args Args) (int, error) {
	opts, err := ParseRunArgs(args.Raw, s.registry)
	if err != nil {
		return 0, err
	}
	jsonMode := args.JSON || opts.JSON

	exec := a.newExecutor(s, opts.Yes, jsonMode)

	history, err := s.openHistory(ctx)
	if err != nil {
		// RELIABILITY: A broken history database must not block the tool
		ctxlog.FromContext(ctx).Warn("execution history disabled", "err", err)
	}
	if history != nil {
		defer history.Close()
		exec.SetRecorder(history)
	}

	result := exec.Execute(ctx, tools.ToolCall{
		Name:    opts.Tool,
		Params:  opts.Params,
		Timeout: opts.Timeout,
	})

	if jsonMode {
		a.writeRunJSON(opts.Tool, result)
		return result.ExitCode, nil
	}

	if result.Output != "" {
		a.printf("%s", result.Output)
		if !strings.HasSuffix(result.Output, "\n") {
			a.printf("\n")
		}
	}
	if !result.Success && result.Error != "" {
		fmt.Fprintf(a.Stderr, "%s %s\n", ErrorStyle.Render("[ERROR]"), result.Error)
	}
	return result.ExitCode, nil
}

func (a *App) writeRunJSON(tool string, result tools.Result) {
	data := RunData{
		Tool:       tool,
		Output:     result.Output,
		ExitCode:   result.ExitCode,
		StatusCode: result.StatusCode,
		DurationMS: float64(result.Duration.Microseconds()) / 1000,
		Truncated:  result.Truncated,
	}
	resp := NewJSONResponse(CmdRun.String(), data)
	if !result.Success {
		resp = NewJSONErrorResponseStr(CmdRun.String(), result.Error)
		resp.Data = data
	}
	_ = resp.Write(a.Stdout)
}
