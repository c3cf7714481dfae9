// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation.
//
// Command: config [subcommand]
// Short:   View and create the configuration file
//
// Subcommands:
//   show (default)      Display the effective configuration (file + env)
//   path                Show configuration file path
//   init                Write a default config file (asks before overwriting)
//
// Examples:
//   clitools config
//   clitools config show --json
//   clitools config path
//   clitools config init --yes
//   clitools --config ./ci.toml config show
//
// Credentials are never part of the config; tools read them from the
// environment. The redis URL may carry a password and is redacted.
package cli

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/BurntSushi/toml"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/config"
)

// handleConfig dispatches the config subcommands. show needs a loaded
// session; path and init work even when the current file does not parse.
func (a *App) handleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		s, err := a.open(args)
		if err != nil {
			return err
		}
		return a.handleConfigShow(s, args)
	case "path":
		return a.handleConfigPath(args)
	case "init":
		return a.handleConfigInit(args)
	default:
		return &ValidationError{
			Field:   "config subcommand",
			Value:   args.Subcommand,
			Reason:  "unknown subcommand",
			Example: "clitools config [show|path|init]",
		}
	}
}

// configPath returns the file the command operates on.
func configPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

// redacted returns a copy of cfg that is safe to print.
// SECURITY: Passwords in the redis URL never reach stdout.
func redacted(cfg *config.Config) *config.Config {
	out := *cfg
	if out.ArgoCD.RedisURL != "" {
		if u, err := url.Parse(out.ArgoCD.RedisURL); err == nil {
			out.ArgoCD.RedisURL = u.Redacted()
		} else {
			out.ArgoCD.RedisURL = "(invalid url)"
		}
	}
	return &out
}

func (a *App) handleConfigShow(s *session, args Args) error {
	cfg := redacted(s.cfg)
	path, _ := configPath(args)

	if args.JSON {
		return a.writeJSON("config show", map[string]interface{}{
			"path":   path,
			"exists": fileExists(path),
			"config": cfg,
		})
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return NewCommandError("config", "show", "encode failed", err)
	}

	a.printf("%s\n", TitleStyle.Render("clitools Configuration"))
	a.printf("%s\n", RenderSeparator(41))
	a.printf("%s\n", buf.String())
	a.printf("%s\n", RenderSeparator(41))
	note := ""
	if !fileExists(path) {
		note = " " + DimStyle.Render("(not created, defaults in use)")
	}
	a.printf("Config file: %s%s\n", DimStyle.Render(path), note)
	return nil
}

func (a *App) handleConfigPath(args Args) error {
	path, err := configPath(args)
	if err != nil {
		return NewCommandError("config", "path", "cannot resolve config dir", err)
	}
	if args.JSON {
		return a.writeJSON("config path", ConfigPathData{Path: path, Exists: fileExists(path)})
	}
	a.printf("%s\n", path)
	if !fileExists(path) {
		fmt.Fprintf(a.Stderr, "%s (file does not exist; run 'clitools config init')\n", DimStyle.Render("Note"))
	}
	return nil
}

func (a *App) handleConfigInit(args Args) error {
	path, err := configPath(args)
	if err != nil {
		return NewCommandError("config", "init", "cannot resolve config dir", err)
	}

	if fileExists(path) {
		parser := NewArgParser(args.Raw)
		prompter := &Prompter{In: a.Stdin, Out: a.Stderr, CanPrompt: a.CanPrompt, JSONMode: args.JSON}
		ok, err := prompter.RequireConfirmation(parser.BoolFlag("yes") || parser.BoolFlag("y"), "overwrite "+path)
		if err != nil {
			return &PermissionError{Action: "config init", Reason: "overwrite not confirmed", Err: err}
		}
		if !ok {
			return &PermissionError{Action: "config init", Reason: "not confirmed"}
		}
	}

	if err := config.SaveTOML(config.Default(), path); err != nil {
		return NewCommandError("config", "init", "write failed", err)
	}

	if args.JSON {
		return a.writeJSON("config init", ConfigPathData{Path: path, Exists: true})
	}
	a.printf("%s Wrote default configuration to %s\n", SuccessStyle.Render("[OK]"), path)
	return nil
}
