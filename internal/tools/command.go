// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/mattn/go-shellwords"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptyCommand is returned for a blank command string.
var ErrEmptyCommand = errors.New("command is required")

// ShellOperatorError reports shell syntax that a direct exec cannot honor.
type ShellOperatorError struct {
	Operator string
}

func (e *ShellOperatorError) Error() string {
	return fmt.Sprintf("shell operator %q is not supported: commands run without a shell, pass one command per call and quote arguments that contain it", e.Operator)
}

// =============================================================================
// SECURITY: Unicode Normalization
// =============================================================================

// normalizeCommand normalizes unicode to NFKC form so lookalike characters
// (fullwidth dashes, ligatures) reach the wrapped CLI as their ASCII forms.
func normalizeCommand(cmd string) string {
	return norm.NFKC.String(cmd)
}

// =============================================================================
// COMMAND LINE PARSING
// =============================================================================

// ParseCommandLine splits a free-form command string into arguments for the
// wrapped binary. Quotes are honored, nothing is expanded, and unquoted shell
// operators are rejected. When the caller repeated the binary name
// ("gh repo list" for gh) it is dropped.
func ParseCommandLine(command, binary string) ([]string, error) {
	command = strings.TrimSpace(normalizeCommand(command))
	if command == "" {
		return nil, ErrEmptyCommand
	}

	for _, r := range command {
		if r == 0 || (unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r') {
			return nil, fmt.Errorf("command contains control character %U", r)
		}
	}

	if op := findShellOperator(command); op != "" {
		return nil, &ShellOperatorError{Operator: op}
	}

	parser := shellwords.NewParser()
	parser.ParseEnv = false
	parser.ParseBacktick = false
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("invalid command syntax: %w", err)
	}

	if binary != "" && len(args) > 0 {
		first := args[0]
		if first == binary || filepath.Base(first) == filepath.Base(binary) {
			args = args[1:]
		}
	}
	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}
	return args, nil
}

// findShellOperator returns the first unquoted shell operator in s.
func findShellOperator(s string) string {
	var inSingle, inDouble, escaped bool
	runes := []rune(s)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case r == '\\' && !inSingle:
			escaped = true
		case r == '\'' && !inDouble:
			inSingle = !inSingle
		case r == '"' && !inSingle:
			inDouble = !inDouble
		case inSingle || inDouble:
			// quoted text is passed through literally
		case r == '|' || r == '&' || r == '>' || r == '<':
			if i+1 < len(runes) && runes[i+1] == r {
				return string([]rune{r, r})
			}
			return string(r)
		case r == ';' || r == '`':
			return string(r)
		case r == '$' && i+1 < len(runes) && runes[i+1] == '(':
			return "$("
		}
	}
	return ""
}
