// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for clitools.
//
// Credentials never live in the config file: every wrapped system reads its
// keys from the environment (GH_TOKEN, OBSERVE_API_KEY, ARGOCD_TOKEN, ...).
// The file only tunes behavior.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ExecutionConfig: Timeouts, output caps and approval policy
//   - ArgoCDConfig: Workspace cache location and backend
//   - S3Config: Object storage endpoint for process_csv_to_s3
//
// # Configuration Precedence
//
//   - Environment variables (CLITOOLS_*, AWS_REGION)
//   - --config <path>, or ~/.clitools/config.toml, or ~/.clitools/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	timeout := cfg.DefaultTimeout()
package config
