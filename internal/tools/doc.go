// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools provides the agent-callable wrapper tools and the executor
// that runs them.
//
// Each tool wraps one external surface: a CLI (gh, az, helm, bicep,
// datadog) run through a runner.Runner, or a REST API (Observe, ArgoCD,
// Confluence) called through restapi, plus the CSV to S3 processor.
//
// # Key Types
//
//   - Tool: definition with schema, required credentials and risk level
//   - Registry: tool lookup and permission overrides
//   - Executor: validation, credential checks, permission, timeouts, history
//   - Result: output, exit code and HTTP status of one call
//
// # Exit Codes
//
// Wrapped CLIs propagate their own exit code. Failures before a tool runs
// use fixed codes: 2 usage, 3 missing credentials, 6 denied, 7 unknown
// tool, 8 timeout.
//
// # Security
//
//   - Commands are split into argv and executed without a shell
//   - Unquoted shell operators are rejected
//   - Credentials are read from the environment, never from parameters
//   - Credential files (.dogrc, kubeconfig) are written 0600
package tools
