// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/config"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/runner/runnertest"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/tools"
)

// =============================================================================
// COMMAND PARSING TESTS (cli.go)
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		argv     []string
		wantCmd  Command
		validate func(*testing.T, Args)
	}{
		{name: "no args shows help", argv: nil, wantCmd: CmdHelp},
		{name: "help flag", argv: []string{"--help"}, wantCmd: CmdHelp},
		{name: "list alias", argv: []string{"ls"}, wantCmd: CmdList},
		{
			name:    "describe tool",
			argv:    []string{"describe", "github_cli"},
			wantCmd: CmdDescribe,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "github_cli" {
					t.Errorf("Subcommand = %q, want github_cli", a.Subcommand)
				}
			},
		},
		{
			name:    "global flags before command",
			argv:    []string{"--json", "-v", "--config", "/tmp/c.toml", "history"},
			wantCmd: CmdHistory,
			validate: func(t *testing.T, a Args) {
				if !a.JSON || !a.Verbose {
					t.Errorf("JSON=%v Verbose=%v, want both true", a.JSON, a.Verbose)
				}
				if a.ConfigPath != "/tmp/c.toml" {
					t.Errorf("ConfigPath = %q", a.ConfigPath)
				}
			},
		},
		{
			name:    "global flags after command",
			argv:    []string{"history", "--limit", "5", "--json", "--config=x.toml"},
			wantCmd: CmdHistory,
			validate: func(t *testing.T, a Args) {
				if !a.JSON || a.ConfigPath != "x.toml" {
					t.Errorf("JSON=%v ConfigPath=%q", a.JSON, a.ConfigPath)
				}
				if len(a.Raw) != 2 || a.Raw[0] != "--limit" {
					t.Errorf("Raw = %v, want [--limit 5]", a.Raw)
				}
			},
		},
		{
			name:    "run keeps tool flags untouched",
			argv:    []string{"-q", "run", "github_cli", "--command", "pr list", "--verbose"},
			wantCmd: CmdRun,
			validate: func(t *testing.T, a Args) {
				if !a.Quiet || a.Verbose {
					t.Errorf("Quiet=%v Verbose=%v, want quiet only", a.Quiet, a.Verbose)
				}
				if len(a.Raw) != 4 || a.Raw[3] != "--verbose" {
					t.Errorf("Raw = %v", a.Raw)
				}
			},
		},
		{
			name:    "unknown command",
			argv:    []string{"deploy"},
			wantCmd: CmdUnknown,
			validate: func(t *testing.T, a Args) {
				if a.Name != "deploy" {
					t.Errorf("Name = %q, want deploy", a.Name)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.argv)
			if cmd != tt.wantCmd {
				t.Errorf("command = %v, want %v", cmd, tt.wantCmd)
			}
			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	p := NewArgParser([]string{"show", "--limit", "50", "--tool=github_cli", "--yes"})

	if p.Subcommand() != "show" {
		t.Errorf("Subcommand() = %q, want show", p.Subcommand())
	}
	if n, err := p.FlagInt("limit"); err != nil || n != 50 {
		t.Errorf("FlagInt(limit) = %d, %v, want 50", n, err)
	}
	if p.Flag("tool") != "github_cli" {
		t.Errorf("Flag(tool) = %q", p.Flag("tool"))
	}
	if !p.BoolFlag("yes") || !p.HasFlag("--yes") {
		t.Error("BoolFlag(yes) should be true")
	}
	if _, err := p.FlagInt("missing"); err == nil || p.HasFlag("missing") {
		t.Error("missing flag should not be found")
	}
	if p.Positional(3) != "" || p.PositionalCount() != 1 {
		t.Errorf("positional = %d", p.PositionalCount())
	}
}

func TestArgParser_InvalidInt(t *testing.T) {
	p := NewArgParser([]string{"--limit", "many"})
	if _, err := p.FlagInt("limit"); err == nil {
		t.Error("FlagInt should fail for a non-number")
	}
	if !p.HasFlag("--limit") {
		t.Error("HasFlag should see a flag with a bad value")
	}
}

// =============================================================================
// RUN ARGUMENT TESTS
// =============================================================================

func testRegistry() *tools.Registry {
	r := tools.NewRegistry()
	tools.RegisterBuiltins(r, tools.Deps{Config: config.Default(), Runner: &runnertest.FakeRunner{}})
	return r
}

func TestParseRunArgs(t *testing.T) {
	r := testRegistry()

	opts, err := ParseRunArgs([]string{"github_cli", "--command", "--version"}, r)
	if err != nil {
		t.Fatalf("ParseRunArgs: %v", err)
	}
	if opts.Tool != "github_cli" || opts.Params["command"] != "--version" {
		t.Errorf("got %+v, want command=--version", opts)
	}

	opts, err = ParseRunArgs([]string{"argocd_sync_application", "--app-name", "web", "--dry_run", "--prune", "false", "--timeout", "1.5", "-y", "--json"}, r)
	if err != nil {
		t.Fatalf("ParseRunArgs: %v", err)
	}
	if opts.Params["app_name"] != "web" {
		t.Errorf("dashes should map to app_name, got %v", opts.Params)
	}
	if opts.Params["dry_run"] != true {
		t.Errorf("bare boolean flag = %v, want true", opts.Params["dry_run"])
	}
	if opts.Params["prune"] != "false" {
		t.Errorf("explicit boolean value = %v, want \"false\"", opts.Params["prune"])
	}
	if opts.Timeout != 1500*time.Millisecond || !opts.Yes || !opts.JSON {
		t.Errorf("timeout=%v yes=%v json=%v", opts.Timeout, opts.Yes, opts.JSON)
	}
}

func TestParseRunArgs_JSONParams(t *testing.T) {
	opts, err := ParseRunArgs([]string{"confluence_search", "--query", "old", "--params", `{"query":"new","limit":5}`}, testRegistry())
	if err != nil {
		t.Fatalf("ParseRunArgs: %v", err)
	}
	if opts.Params["query"] != "new" || opts.Params["limit"] != float64(5) {
		t.Errorf("params = %v", opts.Params)
	}
}

func TestParseRunArgs_Errors(t *testing.T) {
	r := testRegistry()
	cases := map[string][]string{
		"no tool":        nil,
		"flag first":     {"--command", "x"},
		"positional":     {"github_cli", "pr", "list"},
		"missing value":  {"github_cli", "--command"},
		"bad json":       {"github_cli", "--params", "{"},
		"bad timeout":    {"github_cli", "--timeout", "soon"},
		"negative limit": {"github_cli", "--timeout", "-3"},
	}
	for name, argv := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRunArgs(argv, r)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if GetExitCode(err) != ExitUsageError {
				t.Errorf("exit code = %d, want %d", GetExitCode(err), ExitUsageError)
			}
		})
	}
}

func TestParseRunArgs_UnknownToolPassesThrough(t *testing.T) {
	opts, err := ParseRunArgs([]string{"not_a_tool", "--some-flag", "v"}, testRegistry())
	if err != nil {
		t.Fatalf("ParseRunArgs: %v", err)
	}
	if opts.Params["some_flag"] != "v" {
		t.Errorf("params = %v", opts.Params)
	}
}

// =============================================================================
// CONFIRMATION TESTS
// =============================================================================

func TestRequireConfirmation_NoTerminal(t *testing.T) {
	p := &Prompter{In: strings.NewReader("y\n"), Out: &bytes.Buffer{}, CanPrompt: func() bool { return false }}

	ok, err := p.RequireConfirmation(false, "overwrite x")
	var ttyErr *TTYRequiredError
	if !errors.As(err, &ttyErr) {
		t.Fatalf("err = %v, want *TTYRequiredError", err)
	}
	if ok || ttyErr.Operation != "overwrite x" {
		t.Errorf("ok=%v operation=%q", ok, ttyErr.Operation)
	}

	ok, err = p.RequireConfirmation(true, "overwrite x")
	if err != nil || !ok {
		t.Errorf("--yes should confirm without a terminal: ok=%v err=%v", ok, err)
	}
}

func TestPermissionError_UnwrapsTTYError(t *testing.T) {
	err := &PermissionError{Action: "config init", Reason: "overwrite not confirmed", Err: &TTYRequiredError{Operation: "overwrite x"}}
	var ttyErr *TTYRequiredError
	if !errors.As(err, &ttyErr) {
		t.Fatal("PermissionError should unwrap to the TTY error")
	}
	if GetExitCode(err) != ExitSecurityError {
		t.Errorf("exit code = %d, want %d", GetExitCode(err), ExitSecurityError)
	}
}
