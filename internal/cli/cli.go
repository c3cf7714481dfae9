// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and usage text for clitools.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdHelp Command = iota
	CmdRun
	CmdList
	CmdDescribe
	CmdHistory
	CmdConfig
	CmdVersion
	CmdUnknown
)

// String returns the command name used in JSON envelopes.
func (c Command) String() string {
	switch c {
	case CmdRun:
		return "run"
	case CmdList:
		return "list"
	case CmdDescribe:
		return "describe"
	case CmdHistory:
		return "history"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet      bool
	Verbose    bool
	JSON       bool   // Output in JSON format
	ConfigPath string // --config override

	// Command-specific
	Name       string // unknown command name, for the error message
	Subcommand string

	// Raw args (remaining after the command name)
	Raw []string
}

const usageText = `clitools - agent-callable wrappers for infrastructure CLIs and REST APIs

Usage:
  clitools list                        List registered tools
  clitools describe <tool>             Show a tool's parameters and credentials
  clitools run <tool> [params]         Execute a tool
  clitools history [--limit N]         Show recent executions
  clitools config [show|path|init]     Configuration
  clitools version                     Show version information
  clitools help                        Show this help

Run Options:
  --<param> <value>                    Set a tool parameter (e.g. --command "pr list")
  --<param>=<value>                    Same, for values that start with '-'
  --params '<json>'                    Set parameters from a JSON object
  --timeout <seconds>                  Override the execution timeout
  --yes, -y                            Approve high-risk tools without prompting

History Options:
  --limit N                            Entries to show (default: 20)
  --tool <tool>                        Only executions of this tool

Global Options:
  --config <path>                      Use this config file
  --json                               Output in JSON format
  -v, --verbose                        Debug logging on stderr
  -q, --quiet                          Errors only on stderr

Examples:
  clitools run github_cli --command "pr list --state open"
  clitools run azure_subscriptions_list
  clitools run observe_api_command --command "dataset list"
  clitools run argocd_sync_application --app_name web --dry_run
  clitools run process_csv_to_s3 --params '{"data_source":"rights.csv","output_location":"out.json","s3_bucket":"b","s3_key":"k"}'

Exit Codes:
  0  success                           2  usage error
  1  tool failure or wrapped exit      3  config error or missing credentials
  6  permission denied                 7  unknown tool
  8  timeout

Environment:
  CLITOOLS_HOME                        Config and history directory (default: ~/.clitools)
  CLITOOLS_LOG_LEVEL                   debug, info, warn, error
  NO_COLOR                             Disable colored output

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "clitools version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
}

// ParseArgs parses argv (without the program name).
//
// Global flags are only recognized before the command and, for commands
// other than run, anywhere after it. Everything after "run <tool>" belongs
// to the tool so that --verbose or --config can be tool parameters.
func ParseArgs(argv []string) (Command, Args) {
	var parsed Args
	i := 0
	for ; i < len(argv); i++ {
		if !parseGlobalFlag(&parsed, argv, &i) {
			break
		}
	}
	remaining := argv[i:]

	if len(remaining) == 0 {
		return CmdHelp, parsed
	}

	name := strings.ToLower(remaining[0])
	remaining = remaining[1:]

	cmd := CmdUnknown
	switch name {
	case "run", "exec":
		cmd = CmdRun
		// Only --json and --yes-style flags are read later from the raw args
		parsed.Raw = remaining
		return cmd, parsed
	case "list", "ls", "tools":
		cmd = CmdList
	case "describe", "show", "info":
		cmd = CmdDescribe
	case "history":
		cmd = CmdHistory
	case "config":
		cmd = CmdConfig
	case "version", "--version":
		cmd = CmdVersion
	case "help", "-h", "--help":
		cmd = CmdHelp
	default:
		parsed.Name = name
	}

	var rest []string
	for j := 0; j < len(remaining); j++ {
		if !parseGlobalFlag(&parsed, remaining, &j) {
			rest = append(rest, remaining[j])
		}
	}
	parsed.Raw = rest
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		parsed.Subcommand = rest[0]
	}
	return cmd, parsed
}

// parseGlobalFlag consumes one global flag at args[*i]. It reports false
// when args[*i] is not a global flag.
func parseGlobalFlag(parsed *Args, args []string, i *int) bool {
	arg := args[*i]
	switch {
	case arg == "-q" || arg == "--quiet":
		parsed.Quiet = true
	case arg == "-v" || arg == "--verbose":
		parsed.Verbose = true
	case arg == "--json":
		parsed.JSON = true
	case arg == "--config":
		if *i+1 < len(args) {
			*i++
			parsed.ConfigPath = args[*i]
		}
	case strings.HasPrefix(arg, "--config="):
		parsed.ConfigPath = strings.TrimPrefix(arg, "--config=")
	default:
		return false
	}
	return true
}

// handleVersion prints version information, as JSON with --json.
func (a *App) handleVersion(args Args) error {
	if args.JSON {
		return a.writeJSON(CmdVersion.String(), VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		})
	}
	PrintVersion(a.Stdout)
	return nil
}
