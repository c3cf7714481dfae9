// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/kubiya-solutions-engineering/cli-tools/internal/tools"
)

// DefaultRecentLimit is used by Recent when limit is not positive.
const DefaultRecentLimit = 20

// schema is applied on open; statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS executions (
		id          TEXT PRIMARY KEY,
		tool        TEXT NOT NULL,
		params      TEXT NOT NULL DEFAULT '{}',
		success     INTEGER NOT NULL,
		exit_code   INTEGER NOT NULL,
		status_code INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL,
		error       TEXT NOT NULL DEFAULT '',
		approved    INTEGER NOT NULL DEFAULT 1,
		started_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_executions_started ON executions(started_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_executions_tool ON executions(tool, started_at DESC)`,
}

// =============================================================================
// ENTRY
// =============================================================================

// Entry is one recorded tool call.
type Entry struct {
	ID         string                 `json:"id"`
	Tool       string                 `json:"tool"`
	Params     map[string]interface{} `json:"params"`
	Success    bool                   `json:"success"`
	ExitCode   int                    `json:"exit_code"`
	StatusCode int                    `json:"status_code,omitempty"`
	Duration   time.Duration          `json:"duration_ns"`
	Error      string                 `json:"error,omitempty"`
	Approved   bool                   `json:"approved"`
	StartedAt  time.Time              `json:"started_at"`
}

// =============================================================================
// HISTORY
// =============================================================================

// History stores executions in a SQLite database.
type History struct {
	db   *sql.DB
	path string
}

// OpenHistory opens or creates the database at path. The parent directory
// is created with mode 0700.
func OpenHistory(ctx context.Context, path string) (*History, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// SQLite single-writer: cap pool
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, stmt := range append(pragmas, schema...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init history: %w", err)
		}
	}
	return &History{db: db, path: path}, nil
}

// Path returns the database location.
func (h *History) Path() string {
	return h.path
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

// RecordExecution stores one execution. Re-recording an ID replaces the row.
func (h *History) RecordExecution(ctx context.Context, rec tools.ExecutionRecord) error {
	params := rec.Params
	if params == nil {
		params = map[string]interface{}{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO executions
			(id, tool, params, success, exit_code, status_code, duration_ms, error, approved, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ToolName, string(paramsJSON),
		boolInt(rec.Result.Success), rec.Result.ExitCode, rec.Result.StatusCode,
		rec.Duration.Milliseconds(), rec.Result.Error, boolInt(rec.Approved),
		rec.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record execution: %w", err)
	}
	return nil
}

// Recent returns the newest executions first, optionally for one tool.
func (h *History) Recent(ctx context.Context, limit int, tool string) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	var where []string
	var args []interface{}
	if tool != "" {
		where = append(where, "tool = ?")
		args = append(args, tool)
	}
	query := `SELECT id, tool, params, success, exit_code, status_code, duration_ms, error, approved, started_at
		FROM executions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                 Entry
			params            string
			success, approved int
			durationMs        int64
			startedMs         int64
		)
		if err := rows.Scan(&e.ID, &e.Tool, &params, &success, &e.ExitCode, &e.StatusCode,
			&durationMs, &e.Error, &approved, &startedMs); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &e.Params); err != nil {
			e.Params = map[string]interface{}{}
		}
		e.Success = success != 0
		e.Approved = approved != 0
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.StartedAt = time.UnixMilli(startedMs)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored executions.
func (h *History) Count(ctx context.Context) (int, error) {
	var n int
	if err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM executions").Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
