// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tools_cmd.go - List and describe command implementations.
//
// Command: list
// Short:   Registered tools with risk and approval level
// Aliases: ls, tools
//
// Command: describe <tool>
// Short:   Parameters and required credentials of one tool
// Aliases: show, info
//
// Examples:
//   clitools list
//   clitools describe argocd_sync_application --json

package cli

import (
	"fmt"
	"strings"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/tools"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/util"
)

func summarize(t *tools.Tool) ToolSummary {
	return ToolSummary{
		Name:        t.Name,
		Description: t.GetShortDescription(),
		Risk:        t.RiskLevel.String(),
		Permission:  t.Permission.String(),
	}
}

func (a *App) handleList(s *session, args Args) error {
	all := s.registry.All()

	if args.JSON {
		rows := make([]ToolSummary, 0, len(all))
		for _, t := range all {
			rows = append(rows, summarize(t))
		}
		return a.writeJSON(CmdList.String(), rows)
	}

	nameWidth := 0
	for _, t := range all {
		if w := util.StringWidth(t.Name); w > nameWidth {
			nameWidth = w
		}
	}
	descWidth := GetTerminalWidth() - nameWidth - 14
	if descWidth < 20 {
		descWidth = 20
	}

	a.printf("%s\n", TitleStyle.Render(fmt.Sprintf("Tools (%d)", len(all))))
	a.printf("%s\n", RenderSeparatorAdaptive())
	for _, t := range all {
		// Pad outside the style so escape codes do not count toward the width
		pad := strings.Repeat(" ", 9-len(t.RiskLevel.String()))
		a.printf("%s  %s%s %s\n",
			util.PadRight(t.Name, nameWidth),
			RenderRisk(t.RiskLevel), pad,
			util.TruncateWidth(t.GetShortDescription(), descWidth))
	}
	a.printf("\n%s\n", DimStyle.Render("Run 'clitools describe <tool>' for parameters."))
	return nil
}

func (a *App) handleDescribe(s *session, args Args) error {
	name := args.Subcommand
	if name == "" {
		return ErrMissingArgument("tool", "clitools describe github_cli")
	}
	t := s.registry.Get(name)
	if t == nil {
		return &NotFoundError{Resource: "tool", ID: name}
	}

	detail := ToolDetail{
		ToolSummary:     summarize(t),
		LongDescription: t.Description,
		Parameters:      make([]ParameterInfo, 0, len(t.Schema.Parameters)),
		RequiredEnv:     make([]string, 0, len(t.RequiredEnv)),
	}
	for _, p := range t.Schema.Parameters {
		detail.Parameters = append(detail.Parameters, ParameterInfo{
			Name:        p.Name,
			Type:        p.Type,
			Required:    p.Required,
			Description: p.Description,
			Default:     p.Default,
			Enum:        p.Enum,
		})
	}
	for _, v := range t.RequiredEnv {
		detail.RequiredEnv = append(detail.RequiredEnv, v.Label())
	}

	if args.JSON {
		return a.writeJSON(CmdDescribe.String(), detail)
	}

	a.printf("%s\n", TitleStyle.Render(t.Name))
	a.printf("%s\n\n", WrapText(t.Description, 0))
	a.printf("  %s%s\n", RenderLabel("Risk:"), RenderRisk(t.RiskLevel))
	a.printf("  %s%s\n", RenderLabel("Approval:"), ValueStyle.Render(t.Permission.String()))

	a.printf("\n%s\n", SectionStyle.Render("Parameters"))
	if len(detail.Parameters) == 0 {
		a.printf("  %s\n", DimStyle.Render("(none)"))
	}
	for _, p := range detail.Parameters {
		flag := "--" + p.Name
		if p.Type != "boolean" {
			flag += " <" + p.Type + ">"
		}
		var notes []string
		if p.Required {
			notes = append(notes, "required")
		}
		if p.Default != nil {
			notes = append(notes, fmt.Sprintf("default %v", p.Default))
		}
		if len(p.Enum) > 0 {
			notes = append(notes, "one of "+strings.Join(p.Enum, "|"))
		}
		a.printf("  %s %s\n", ValueStyle.Render(flag), DimStyle.Render(strings.Join(notes, ", ")))
		if p.Description != "" {
			a.printf("      %s\n", p.Description)
		}
	}

	a.printf("\n%s\n", SectionStyle.Render("Required environment"))
	if len(detail.RequiredEnv) == 0 {
		a.printf("  %s\n", DimStyle.Render("(none)"))
	}
	for _, v := range t.RequiredEnv {
		status := RenderStatus("ok")
		if _, ok := v.Lookup(s.getenv); !ok {
			status = RenderStatus("missing")
		}
		a.printf("  %s %s\n", status, v.Label())
	}
	return nil
}
