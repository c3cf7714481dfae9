// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - History command implementation.
//
// Command: history
// Short:   Recent tool executions from the history database
//
// Flags:
//   --limit N           Entries to show (default: 20)
//   --tool <tool>       Only executions of this tool
//   --json              Output in JSON format
//
// Examples:
//   clitools history
//   clitools history --tool argocd_sync_application --limit 5 --json

package cli

import (
	"context"
	"fmt"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/storage"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/tools"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/util"
)

const defaultHistoryLimit = 20

func (a *App) handleHistory(ctx context.Context, s *session, args Args) error {
	parser := NewArgParser(args.Raw)
	if parser.PositionalCount() > 0 {
		return &ValidationError{Field: "argument", Value: parser.Positional(0), Reason: "history takes no arguments", Example: "clitools history --tool github_cli"}
	}

	limit := defaultHistoryLimit
	if parser.HasFlag("limit") {
		n, err := parser.FlagInt("limit")
		if err != nil || n <= 0 {
			return &ValidationError{Field: "limit", Value: parser.Flag("limit"), Reason: "must be a positive number", Example: "--limit 20"}
		}
		limit = n
	}
	tool := parser.Flag("tool")

	if !s.cfg.History.Enabled {
		return &CommandError{Command: "history", Action: "show", Reason: "history is disabled (history.enabled = false)"}
	}
	h, err := s.openHistory(ctx)
	if err != nil {
		return err
	}
	defer h.Close()

	entries, err := h.Recent(ctx, limit, tool)
	if err != nil {
		return NewCommandError("history", "show", "query failed", err)
	}
	total, err := h.Count(ctx)
	if err != nil {
		return NewCommandError("history", "show", "count failed", err)
	}

	if args.JSON {
		if entries == nil {
			entries = []storage.Entry{}
		}
		return a.writeJSON(CmdHistory.String(), HistoryData{Path: h.Path(), Total: total, Entries: entries})
	}

	a.printf("%s\n", TitleStyle.Render(fmt.Sprintf("Execution history (%d of %d)", len(entries), total)))
	a.printf("%s\n", DimStyle.Render(h.Path()))
	a.printf("%s\n", RenderSeparatorAdaptive())
	if len(entries) == 0 {
		a.printf("%s\n", DimStyle.Render("No executions recorded."))
		return nil
	}

	now := a.now()
	for _, e := range entries {
		status := "ok"
		switch {
		case e.ExitCode == tools.ExitDenied:
			status = "denied"
		case !e.Success:
			status = "fail"
		}
		a.printf("%s %s %s %s %s\n",
			RenderStatus(status),
			util.PadRight(e.Tool, 28),
			util.PadRight(fmt.Sprintf("exit=%d", e.ExitCode), 8),
			util.PadRight(util.FormatDuration(e.Duration), 8),
			DimStyle.Render(formatAgo(now.Sub(e.StartedAt))+" ago"))
		if e.Error != "" {
			a.printf("       %s\n", DimStyle.Render(util.TruncateWidth(e.Error, GetTerminalWidth()-8)))
		}
	}
	return nil
}
