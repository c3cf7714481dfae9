// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation handling for high-risk tools and config writes.
//
// Flow:
//  1. --yes (or auto_approve) approves without prompting
//  2. JSON mode never prompts: the call is denied
//  3. stdin or stderr not a TTY: the call is denied (TTYRequiredError for
//     local actions)
//  4. Otherwise the details are shown and a [y/N] answer is read

package cli

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/tools"
)

// Prompter reads confirmations. The zero value cannot prompt.
type Prompter struct {
	In        io.Reader
	Out       io.Writer
	CanPrompt func() bool
	JSONMode  bool

	reader *bufio.Reader
}

func (p *Prompter) interactive() bool {
	return !p.JSONMode && p.In != nil && p.Out != nil && p.CanPrompt != nil && p.CanPrompt()
}

// ask prints question and reads one line. EOF counts as "no".
func (p *Prompter) ask(question string) bool {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	fmt.Fprintf(p.Out, "%s [y/N]: ", question)
	input, err := p.reader.ReadString('\n')
	if err != nil && input == "" {
		return false
	}
	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes"
}

// RequireConfirmation confirms a local action such as overwriting the config.
func (p *Prompter) RequireConfirmation(confirmFlag bool, action string) (bool, error) {
	if confirmFlag {
		return true, nil
	}
	if p.JSONMode {
		return false, fmt.Errorf("confirmation required: use --yes to %s in JSON mode", action)
	}
	if !p.interactive() {
		return false, &TTYRequiredError{Operation: action}
	}
	return p.ask("Are you sure you want to " + action + "?"), nil
}

// PermissionCallback returns the executor callback for Ask-level tools.
// SECURITY: Anything that cannot be asked is denied.
func (p *Prompter) PermissionCallback() tools.PermissionCallback {
	return func(tool *tools.Tool, params map[string]interface{}) bool {
		if !p.interactive() {
			return false
		}

		fmt.Fprintln(p.Out)
		fmt.Fprintln(p.Out, WarningStyle.Render("Approval required: "+tool.Name))
		fmt.Fprintln(p.Out, RenderSeparator(50))
		fmt.Fprintf(p.Out, "  %s%s\n", RenderLabel("Risk:"), RenderRisk(tool.RiskLevel))
		for _, name := range sortedKeys(params) {
			fmt.Fprintf(p.Out, "  %s%v\n", RenderLabel(name+":"), params[name])
		}
		fmt.Fprintln(p.Out)
		return p.ask("Run " + tool.Name + "?")
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
