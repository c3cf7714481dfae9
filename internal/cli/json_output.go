// json_output.go - JSON envelope for machine callers.
//
// Every command supports --json. The envelope is the same for all of them
// so an agent can check success and error without knowing the command.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"io"
	"time"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/storage"
)

// JSONResponse is the response format for all commands in JSON mode.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the RFC3339 timestamp when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	return NewJSONErrorResponseStr(command, err.Error())
}

// NewJSONErrorResponseStr creates a new error JSON response from a string.
func NewJSONErrorResponseStr(command string, errMsg string) *JSONResponse {
	return &JSONResponse{
		Success:   false,
		Error:     &errMsg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response to w.
func (r *JSONResponse) Write(w io.Writer) error {
	return jsonEncode(w, r)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// RunData is the result of "run".
type RunData struct {
	Tool       string  `json:"tool"`
	Output     string  `json:"output"`
	ExitCode   int     `json:"exit_code"`
	StatusCode int     `json:"status_code,omitempty"`
	DurationMS float64 `json:"duration_ms"`
	Truncated  bool    `json:"truncated,omitempty"`
}

// ToolSummary is one row of "list".
type ToolSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Risk        string `json:"risk"`
	Permission  string `json:"permission"`
}

// ToolDetail is the result of "describe".
type ToolDetail struct {
	ToolSummary
	LongDescription string          `json:"long_description"`
	Parameters      []ParameterInfo `json:"parameters"`
	RequiredEnv     []string        `json:"required_env"`
}

// ParameterInfo describes one tool parameter.
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Required    bool        `json:"required"`
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
	Enum        []string    `json:"enum,omitempty"`
}

// HistoryData is the result of "history".
type HistoryData struct {
	Path    string          `json:"path"`
	Total   int             `json:"total"`
	Entries []storage.Entry `json:"entries"`
}

// ConfigPathData is the result of "config path".
type ConfigPathData struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// VersionData is the result of "version".
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}
