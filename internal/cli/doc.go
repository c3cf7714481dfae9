// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the clitools command line.
//
// # Key Types
//
//   - App: process streams plus injectable tool dependencies; Run dispatches argv
//   - Command / Args: parsed command and global flags
//   - RunOptions: a parsed "run" invocation, built against the tool schema
//   - JSONResponse: the {success, data, error, timestamp, command} envelope
//   - Prompter: approval prompts for Ask-level tools
//
// # Usage
//
//	app := cli.NewApp()
//	os.Exit(app.Run(ctx, os.Args[1:]))
//
// # Commands Overview
//
//   - run: execute one wrapper tool; exits with the tool's exit code
//   - list, describe: registered tools and their parameters
//   - history: executions recorded in the sqlite history
//   - config: show, path, init
//   - version, help
//
// All commands support --json.
package cli
