// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// RISK LEVELS
// =============================================================================

// RiskLevel indicates how dangerous a tool operation is.
type RiskLevel int

const (
	// RiskLow - Read-only queries against a remote system
	RiskLow RiskLevel = iota

	// RiskMedium - Writes local state or uploads data
	RiskMedium

	// RiskHigh - Free-form commands or deployments that may change remote state
	RiskHigh

	// RiskCritical - Reserved for destructive operations
	RiskCritical
)

// String returns the string representation of a risk level.
func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "Low"
	case RiskMedium:
		return "Medium"
	case RiskHigh:
		return "High"
	case RiskCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// Color returns the color associated with a risk level.
func (r RiskLevel) Color() string {
	switch r {
	case RiskLow:
		return "#34D399" // Emerald
	case RiskMedium:
		return "#FBBF24" // Amber
	case RiskHigh:
		return "#FB923C" // Orange
	case RiskCritical:
		return "#FB7185" // Rose
	default:
		return "#A6ADC8" // Text secondary
	}
}

// =============================================================================
// PERMISSION LEVELS
// =============================================================================

// PermissionLevel determines how tool execution is authorized.
type PermissionLevel int

const (
	// PermissionAuto - Always allowed without prompting.
	PermissionAuto PermissionLevel = iota

	// PermissionAsk - Needs approval (prompt, --yes, or auto_approve).
	PermissionAsk

	// PermissionNever - Never allowed, even with approval.
	PermissionNever
)

// String returns the string representation of a permission level.
func (p PermissionLevel) String() string {
	switch p {
	case PermissionAuto:
		return "Auto"
	case PermissionAsk:
		return "Ask"
	case PermissionNever:
		return "Never"
	default:
		return "Unknown"
	}
}

// =============================================================================
// TOOL DEFINITION
// =============================================================================

// Tool represents an executable wrapper tool.
type Tool struct {
	// Name is the tool identifier (e.g., "github_cli", "argocd_sync_application")
	Name string

	// Description explains what the tool does (full description for documentation)
	Description string

	// ShortDescription is a one-line summary for tool listings
	// If empty, the first line of Description is used
	ShortDescription string

	// Schema defines the tool's parameters
	Schema Schema

	// RequiredEnv lists credentials that must be present before execution
	RequiredEnv []EnvVar

	// RiskLevel indicates how dangerous the tool is
	RiskLevel RiskLevel

	// Permission determines how execution is authorized
	Permission PermissionLevel

	// PermissionFunc is an optional function to compute permission dynamically based on parameters
	// If set, this takes precedence over the static Permission field
	PermissionFunc func(params map[string]interface{}) PermissionLevel

	// Executor handles the actual execution
	Executor ToolExecutor
}

// GetShortDescription returns the concise description for listings.
func (t *Tool) GetShortDescription() string {
	if t.ShortDescription != "" {
		return t.ShortDescription
	}
	if idx := strings.Index(t.Description, "\n"); idx != -1 {
		return t.Description[:idx]
	}
	return t.Description
}

// Schema defines a tool's parameters.
type Schema struct {
	Parameters []Parameter
}

// Parameter returns the named parameter definition.
func (s Schema) Parameter(name string) (Parameter, bool) {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Parameter defines a single tool parameter.
type Parameter struct {
	// Name of the parameter
	Name string

	// Type is the parameter type ("string", "number", "boolean")
	Type string

	// Required indicates if the parameter must be provided
	Required bool

	// Description explains the parameter
	Description string

	// Default is the default value if not provided
	Default interface{}

	// Enum contains allowed values for string type (optional)
	Enum []string
}

// =============================================================================
// TOOL EXECUTOR INTERFACE
// =============================================================================

// ToolExecutor is the interface for individual tool execution.
// Each tool implements this to define its execution logic.
//
// A returned error means the tool could not run at all. A wrapped command
// or API call that ran and failed is reported through Result with
// Success=false and the propagated ExitCode.
type ToolExecutor interface {
	Execute(ctx context.Context, params map[string]interface{}) (Result, error)
}

// Exit codes set by the executor for failures before a tool runs.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitUsage      = 2
	ExitMissingEnv = 3
	ExitDenied     = 6
	ExitUnknown    = 7
	ExitTimeout    = 8
)

// Result holds the outcome of a tool execution.
type Result struct {
	// Success indicates if the tool executed successfully
	Success bool

	// Output is the tool's formatted output (also set on failure when the
	// wrapped system produced any)
	Output string

	// Error is the error message (for failed execution)
	Error string

	// ExitCode is the wrapped process exit code, or a code derived from the
	// HTTP status for REST tools (0 for 2xx, 1 otherwise)
	ExitCode int

	// StatusCode is the HTTP status of the primary API call (REST tools only)
	StatusCode int

	// Duration is how long execution took
	Duration time.Duration

	// Truncated indicates output was truncated
	Truncated bool
}

// =============================================================================
// TOOL REGISTRY
// =============================================================================

// Registry holds all available tools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool

	// Permission overrides (tool name -> permission)
	overrides map[string]PermissionLevel

	// "Always allow" preferences
	alwaysAllow map[string]bool
}

// NewRegistry creates an empty tool registry. Use RegisterBuiltins to add
// the wrapper tools.
func NewRegistry() *Registry {
	return &Registry{
		tools:       make(map[string]*Tool),
		overrides:   make(map[string]PermissionLevel),
		alwaysAllow: make(map[string]bool),
	}
}

// Register adds a tool to the registry, replacing any tool with the same name.
func (r *Registry) Register(tool *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name] = tool
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// All returns all registered tools sorted by name.
func (r *Registry) All() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Names returns the sorted tool names.
func (r *Registry) Names() []string {
	all := r.All()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = t.Name
	}
	return names
}

// =============================================================================
// PERMISSION MANAGEMENT
// =============================================================================

// GetPermissionWithParams returns the effective permission level for a tool with parameters.
//
// SECURITY: PermissionFunc is checked FIRST so a parameter-based PermissionNever
// cannot be bypassed by alwaysAllow preferences.
// The order of checks is:
// 1. PermissionFunc - if it returns PermissionNever, honor it
// 2. alwaysAllow (user preference)
// 3. overrides (config)
// 4. PermissionFunc result, else static Permission (tool default)
func (r *Registry) GetPermissionWithParams(toolName string, params map[string]interface{}) PermissionLevel {
	tool := r.Get(toolName)
	if tool == nil {
		return PermissionNever
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if tool.PermissionFunc != nil && tool.PermissionFunc(params) == PermissionNever {
		return PermissionNever
	}

	if r.alwaysAllow[toolName] {
		return PermissionAuto
	}

	if override, ok := r.overrides[toolName]; ok {
		return override
	}

	if tool.PermissionFunc != nil {
		return tool.PermissionFunc(params)
	}
	return tool.Permission
}

// ParsePermissionLevel parses "auto", "ask" or "never" in any case.
func ParsePermissionLevel(s string) (PermissionLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto":
		return PermissionAuto, nil
	case "ask":
		return PermissionAsk, nil
	case "never":
		return PermissionNever, nil
	}
	return PermissionNever, fmt.Errorf("invalid permission level %q (want auto, ask or never)", s)
}

// SetPermissionOverride sets a permission override for a tool.
func (r *Registry) SetPermissionOverride(toolName string, perm PermissionLevel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[toolName] = perm
}

// SetAlwaysAllow marks a tool as always allowed.
func (r *Registry) SetAlwaysAllow(toolName string, always bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alwaysAllow[toolName] = always
}

// =============================================================================
// TOOL CALL
// =============================================================================

// ToolCall represents one invocation request.
type ToolCall struct {
	Name   string
	Params map[string]interface{}

	// Timeout overrides the executor default (capped by its maximum)
	Timeout time.Duration
}
