// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the wrapper tools.
//
// # Key Functions
//
// String Utilities:
//   - PrefixRunes: UTF-8 safe truncation
//   - StringWidth, PadRight, TruncateWidth: display-width aware table cells
//   - LimitOutput: line and character caps for tool output
//
// Conversion:
//   - ParseBool: loose boolean parsing for flags and env vars
//   - FormatBytes, FormatDuration: human readable sizes and durations
//
// File Operations:
//   - AtomicWriteFileWithDir: crash-safe file writing with fsync
//
// # Usage
//
//	// Cap an API response at 100 lines / 10000 characters
//	body, lim := util.LimitOutput(body, 100, 10000)
//
//	// Write a credentials file atomically with owner-only permissions
//	err := util.AtomicWriteFileWithDir(path, data, 0600, 0700)
package util
