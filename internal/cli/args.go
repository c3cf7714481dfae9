// args.go - Argument parsing for clitools commands.
//
// ArgParser handles the small management commands (history, config).
// ParseRunArgs is schema-aware: boolean tool parameters may omit their
// value, every other flag consumes the next argument even when it starts
// with '-', because wrapped CLI commands routinely do.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/tools"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/util"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser provides argument parsing for the management commands.
// It handles:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -f value
//   - Boolean flags: --flag (no value needed)
//   - Positional arguments, the first being the subcommand
type ArgParser struct {
	subcommand string
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
	raw        []string
}

// NewArgParser creates a new argument parser from raw arguments.
//
// Example:
//
//	args := NewArgParser([]string{"--limit", "50", "--tool=github_cli"})
//	args.FlagInt("limit")              // 50, nil
//	args.Flag("tool")                  // "github_cli"
func NewArgParser(raw []string) *ArgParser {
	parser := &ArgParser{
		flags:      make(map[string]string),
		boolFlags:  make(map[string]bool),
		positional: make([]string, 0),
		raw:        raw,
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]

		if strings.HasPrefix(arg, "-") && arg != "-" {
			if name, value, ok := strings.Cut(arg, "="); ok {
				flagName := strings.TrimLeft(name, "-")
				if value == "true" || value == "false" {
					parser.boolFlags[flagName] = value == "true"
				} else {
					parser.flags[flagName] = value
				}
				i++
				continue
			}

			flagName := strings.TrimLeft(arg, "-")
			if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
				parser.flags[flagName] = raw[i+1]
				i += 2
			} else {
				parser.boolFlags[flagName] = true
				i++
			}
			continue
		}

		parser.positional = append(parser.positional, arg)
		i++
	}

	if len(parser.positional) > 0 {
		parser.subcommand = parser.positional[0]
	}
	return parser
}

// Subcommand returns the first positional argument.
func (p *ArgParser) Subcommand() string {
	return p.subcommand
}

// Flag returns the value of a string flag, or "" when absent.
func (p *ArgParser) Flag(name string) string {
	return p.flags[strings.TrimLeft(name, "-")]
}

// FlagInt returns the flag value as an integer.
func (p *ArgParser) FlagInt(name string) (int, error) {
	val := p.Flag(name)
	if val == "" {
		return 0, fmt.Errorf("flag %s not found", name)
	}
	return strconv.Atoi(val)
}

// BoolFlag returns the value of a boolean flag.
func (p *ArgParser) BoolFlag(name string) bool {
	return p.boolFlags[strings.TrimLeft(name, "-")]
}

// Positional returns the positional argument at index, or "".
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// HasFlag returns true if the flag exists (either as string or bool flag).
func (p *ArgParser) HasFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	_, hasString := p.flags[name]
	_, hasBool := p.boolFlags[name]
	return hasString || hasBool
}

// =============================================================================
// RUN ARGUMENTS
// =============================================================================

// RunOptions is a parsed "run" invocation.
type RunOptions struct {
	Tool    string
	Params  map[string]interface{}
	Timeout time.Duration
	Yes     bool
	JSON    bool
}

// ParseRunArgs parses "<tool> [--param value ...]" against the tool's schema.
// A nil registry entry is not an error here: the executor reports unknown
// tools with their own exit code.
//
// Flag names may use dashes for underscores (--app-name for app_name).
// Values are kept as strings; the executor coerces them to the schema type.
func ParseRunArgs(raw []string, registry *tools.Registry) (*RunOptions, error) {
	if len(raw) == 0 || strings.HasPrefix(raw[0], "-") {
		return nil, &ValidationError{
			Field:   "tool",
			Reason:  "a tool name is required",
			Example: "clitools run github_cli --command \"pr list\"",
		}
	}

	opts := &RunOptions{Tool: raw[0], Params: make(map[string]interface{})}
	var schema tools.Schema
	if tool := registry.Get(opts.Tool); tool != nil {
		schema = tool.Schema
	}

	args := raw[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			return nil, &ValidationError{
				Field:   "arguments",
				Value:   arg,
				Reason:  "unexpected positional argument",
				Example: "quote the whole command: --command \"" + arg + " ...\"",
			}
		}

		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")

		switch name {
		case "y", "yes":
			opts.Yes = true
			continue
		case "json":
			opts.JSON = true
			continue
		}

		// Tool parameters shadow the run options below
		param, isParam := lookupParam(schema, name)
		if isParam {
			name = param.Name
		}

		if isParam && param.Type == "boolean" && !hasValue {
			// An optional explicit value: --dry_run false
			if i+1 < len(args) {
				if _, err := util.ParseBool(args[i+1]); err == nil {
					value = args[i+1]
					i++
					opts.Params[name] = value
					continue
				}
			}
			opts.Params[name] = true
			continue
		}

		if !hasValue {
			if i+1 >= len(args) {
				return nil, &ValidationError{Field: name, Reason: "flag requires a value"}
			}
			i++
			value = args[i]
		}

		if isParam {
			opts.Params[name] = value
			continue
		}

		switch name {
		case "params":
			if err := mergeJSONParams(opts.Params, value); err != nil {
				return nil, err
			}
		case "timeout":
			secs, err := strconv.ParseFloat(value, 64)
			if err != nil || secs <= 0 {
				return nil, &ValidationError{Field: "timeout", Value: value, Reason: "must be a positive number of seconds", Example: "--timeout 120"}
			}
			opts.Timeout = time.Duration(secs * float64(time.Second))
		default:
			// Unknown names reach the executor, which rejects them by name
			opts.Params[strings.ReplaceAll(name, "-", "_")] = value
		}
	}
	return opts, nil
}

// lookupParam finds name in schema, accepting dashes for underscores.
func lookupParam(schema tools.Schema, name string) (tools.Parameter, bool) {
	if p, ok := schema.Parameter(name); ok {
		return p, true
	}
	return schema.Parameter(strings.ReplaceAll(name, "-", "_"))
}

// mergeJSONParams decodes a JSON object into params. Flags given before
// --params are overwritten by its keys.
func mergeJSONParams(params map[string]interface{}, raw string) error {
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return &ValidationError{
			Field:   "params",
			Reason:  fmt.Sprintf("must be a JSON object: %v", err),
			Example: `--params '{"command":"pr list"}'`,
		}
	}
	for k, v := range decoded {
		params[k] = v
	}
	return nil
}
