// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		name    string
		command string
		binary  string
		want    []string
	}{
		{"simple", "pr list --state open", "gh", []string{"pr", "list", "--state", "open"}},
		{"double quotes", `issue create --title "Bug report" --body "It broke"`, "gh",
			[]string{"issue", "create", "--title", "Bug report", "--body", "It broke"}},
		{"single quotes keep operators", `monitor app-insights query --analytics-query 'requests | limit 10'`, "az",
			[]string{"monitor", "app-insights", "query", "--analytics-query", "requests | limit 10"}},
		{"repeated binary dropped", "gh repo list", "gh", []string{"repo", "list"}},
		{"binary path dropped", "/usr/local/bin/helm list", "/usr/local/bin/helm", []string{"list"}},
		{"no expansion", `repo view $HOME`, "gh", []string{"repo", "view", "$HOME"}},
		{"fullwidth dash normalized", "list －－all", "helm", []string{"list", "--all"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := ParseCommandLine(tt.command, tt.binary)
			require.NoError(t, err)
			assert.Equal(t, tt.want, args)
		})
	}
}

func TestParseCommandLine_Empty(t *testing.T) {
	for _, cmd := range []string{"", "   ", "gh"} {
		_, err := ParseCommandLine(cmd, "gh")
		assert.ErrorIs(t, err, ErrEmptyCommand, "command %q", cmd)
	}
}

func TestParseCommandLine_ShellOperators(t *testing.T) {
	tests := map[string]string{
		"repo list | head":      "|",
		"repo list && rm -rf /": "&&",
		"repo list; whoami":     ";",
		"repo list > out.txt":   ">",
		"repo view `id`":        "`",
		"repo view $(id)":       "$(",
	}
	for cmd, op := range tests {
		_, err := ParseCommandLine(cmd, "gh")
		var opErr *ShellOperatorError
		require.True(t, errors.As(err, &opErr), "command %q", cmd)
		assert.Equal(t, op, opErr.Operator, "command %q", cmd)
	}
}

func TestParseCommandLine_Invalid(t *testing.T) {
	_, err := ParseCommandLine("repo list\x00", "gh")
	assert.ErrorContains(t, err, "control character")

	_, err = ParseCommandLine(`issue create --title "unterminated`, "gh")
	assert.Error(t, err)
}

func TestCommandError(t *testing.T) {
	res := commandError("gh", ErrEmptyCommand)
	assert.Equal(t, ExitUsage, res.ExitCode)
	assert.Contains(t, res.Output, "❌ Command argument is required")
	assert.Contains(t, res.Output, "Pass any 'gh' command")

	res = commandError("gh", &ShellOperatorError{Operator: "|"})
	assert.Contains(t, res.Output, `shell operator "|" is not supported`)
}
