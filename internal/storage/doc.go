// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists tool execution history in SQLite.
//
// # Key Types
//
//   - History: SQLite-backed store, usable as the executor's recorder
//   - Entry: one recorded tool call
//
// # Usage
//
//	h, err := storage.OpenHistory(ctx, path)
//	executor.SetRecorder(h)
//	recent, err := h.Recent(ctx, 20, "")
//
// Only tool parameters are stored. Credentials come from the environment
// and never reach the database.
package storage
