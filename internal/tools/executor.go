// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/ctxlog"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/util"
)

// =============================================================================
// PERMISSION CALLBACK
// =============================================================================

// PermissionCallback is called to check if a tool execution should be allowed.
// Returns true if the tool call is approved.
type PermissionCallback func(tool *Tool, params map[string]interface{}) bool

// AllowAllCallback returns a permission callback that allows all executions.
func AllowAllCallback() PermissionCallback {
	return func(tool *Tool, params map[string]interface{}) bool {
		return true
	}
}

// DenyAllCallback returns a permission callback that denies all executions.
func DenyAllCallback() PermissionCallback {
	return func(tool *Tool, params map[string]interface{}) bool {
		return false
	}
}

// ConfirmHighRiskCallback returns a callback that denies high/critical risk tools.
func ConfirmHighRiskCallback() PermissionCallback {
	return func(tool *Tool, params map[string]interface{}) bool {
		return tool.RiskLevel < RiskHigh
	}
}

// =============================================================================
// EXECUTION RECORD
// =============================================================================

// ExecutionRecord tracks the result of a tool execution for audit purposes.
type ExecutionRecord struct {
	// ID uniquely identifies the execution
	ID string

	// ToolName is the name of the executed tool
	ToolName string

	// Params are the parameters passed to the tool. Credentials never appear
	// here; they come from the environment.
	Params map[string]interface{}

	// Result is the outcome of the execution
	Result Result

	// Timestamp is when the execution started
	Timestamp time.Time

	// Duration is how long the execution took
	Duration time.Duration

	// Approved indicates whether the execution was approved
	Approved bool
}

// HistoryRecorder persists execution records.
type HistoryRecorder interface {
	RecordExecution(ctx context.Context, rec ExecutionRecord) error
}

// =============================================================================
// EXECUTOR
// =============================================================================

// Executor orchestrates tool execution with validation, permission handling,
// timeouts and audit logging.
type Executor struct {
	registry     *Registry
	permissionCb PermissionCallback
	autoApprove  PermissionLevel // Auto-approve up to this level
	getenv       Getenv
	recorder     HistoryRecorder
	history      []ExecutionRecord
	mu           sync.Mutex

	defaultTimeout time.Duration
	maxTimeout     time.Duration
	maxOutputSize  int // Max output size in runes
}

// DefaultToolTimeout is the default timeout applied when a call has none.
const DefaultToolTimeout = 5 * time.Minute

// NewExecutor creates a new tool executor with the given registry.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{
		registry:       registry,
		permissionCb:   ConfirmHighRiskCallback(),
		autoApprove:    PermissionAuto,
		getenv:         OSGetenv,
		history:        make([]ExecutionRecord, 0),
		defaultTimeout: DefaultToolTimeout,
		maxTimeout:     30 * time.Minute,
		maxOutputSize:  100000,
	}
}

// SetPermissionCallback sets the callback function for permission checks.
func (e *Executor) SetPermissionCallback(cb PermissionCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.permissionCb = cb
}

// SetAutoApproveLevel sets the permission level up to which tools are auto-approved.
func (e *Executor) SetAutoApproveLevel(level PermissionLevel) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.autoApprove = level
}

// SetGetenv replaces the environment lookup used for credential checks.
func (e *Executor) SetGetenv(getenv Getenv) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.getenv = getenv
}

// SetRecorder attaches a persistent history recorder.
func (e *Executor) SetRecorder(rec HistoryRecorder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recorder = rec
}

// SetTimeouts sets the default and maximum tool timeouts.
func (e *Executor) SetTimeouts(def, max time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if def > 0 {
		e.defaultTimeout = def
	}
	if max > 0 {
		e.maxTimeout = max
	}
}

// SetMaxOutputSize caps the output returned by Execute.
func (e *Executor) SetMaxOutputSize(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n > 0 {
		e.maxOutputSize = n
	}
}

// History returns a copy of the execution history.
func (e *Executor) History() []ExecutionRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := make([]ExecutionRecord, len(e.history))
	copy(result, e.history)
	return result
}

// Registry returns the tool registry.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// =============================================================================
// EXECUTION
// =============================================================================

// Execute runs a tool call and returns the result.
//
// Order of checks: unknown tool, parameter validation, required environment,
// permission. No subprocess or HTTP request happens unless all four pass.
func (e *Executor) Execute(ctx context.Context, call ToolCall) Result {
	start := time.Now()
	logger := ctxlog.FromContext(ctx).With("tool", call.Name)

	tool := e.registry.Get(call.Name)
	if tool == nil {
		return Result{
			Success:  false,
			Error:    "unknown tool: " + call.Name,
			ExitCode: ExitUnknown,
			Duration: time.Since(start),
		}
	}

	params := CoerceParams(tool.Schema, call.Params)
	record := ExecutionRecord{
		ID:        uuid.NewString(),
		ToolName:  call.Name,
		Params:    params,
		Timestamp: start,
	}

	finish := func(result Result) Result {
		result.Duration = time.Since(start)
		record.Duration = result.Duration
		record.Result = result
		e.addToHistory(ctx, record)
		return result
	}

	if err := validateParams(tool, params); err != nil {
		logger.Debug("parameter validation failed", "err", err)
		return finish(Result{Success: false, Error: err.Error(), ExitCode: ExitUsage})
	}
	applyDefaults(tool.Schema, params)

	e.mu.Lock()
	getenv := e.getenv
	e.mu.Unlock()
	if err := CheckEnv(getenv, tool.RequiredEnv); err != nil {
		var missing *MissingEnvError
		errors.As(err, &missing)
		logger.Warn("missing credentials", "vars", len(missing.Missing))
		return finish(Result{Success: false, Error: err.Error(), Output: missing.Detail(), ExitCode: ExitMissingEnv})
	}

	record.Approved = e.checkPermission(tool, params)
	if !record.Approved {
		return finish(Result{Success: false, Error: "permission denied for tool: " + call.Name, ExitCode: ExitDenied})
	}

	timeout := e.timeoutFor(call)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Info("executing tool", "timeout", util.FormatDuration(timeout))

	// Execute with timeout using goroutine pattern so a stuck executor
	// cannot hold the caller past its deadline
	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := tool.Executor.Execute(runCtx, params)
		done <- outcome{result, err}
	}()

	var result Result
	select {
	case o := <-done:
		result = o.result
		if o.err != nil {
			result.Success = false
			result.Error = o.err.Error()
			if result.ExitCode == 0 {
				result.ExitCode = ExitFailure
			}
		}
	case <-runCtx.Done():
		result = Result{
			Success:  false,
			Error:    "tool execution timed out: " + runCtx.Err().Error(),
			ExitCode: ExitTimeout,
		}
	}

	if !result.Success && result.ExitCode == 0 {
		result.ExitCode = ExitFailure
	}

	if util.RuneLen(result.Output) > e.maxOutputSize {
		result.Output = util.PrefixRunes(result.Output, e.maxOutputSize) +
			fmt.Sprintf("\n\n[Output truncated at %d characters]", e.maxOutputSize)
		result.Truncated = true
	}

	result = finish(result)
	logger.Info("tool finished", "success", result.Success, "exit_code", result.ExitCode, "duration", result.Duration)
	return result
}

// timeoutFor picks the call timeout within the executor bounds.
func (e *Executor) timeoutFor(call ToolCall) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	timeout := e.defaultTimeout
	if call.Timeout > 0 {
		timeout = call.Timeout
	}
	if timeout > e.maxTimeout {
		timeout = e.maxTimeout
	}
	if timeout < time.Second {
		timeout = time.Second
	}
	return timeout
}

// checkPermission determines if a tool execution should be allowed.
func (e *Executor) checkPermission(tool *Tool, params map[string]interface{}) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	toolPermission := e.registry.GetPermissionWithParams(tool.Name, params)
	if toolPermission == PermissionNever {
		return false
	}

	if toolPermission <= e.autoApprove {
		return true
	}

	if e.permissionCb != nil {
		return e.permissionCb(tool, params)
	}
	return false
}

// addToHistory adds an execution record to the history.
func (e *Executor) addToHistory(ctx context.Context, record ExecutionRecord) {
	e.mu.Lock()
	const maxHistorySize = 1000
	if len(e.history) >= maxHistorySize {
		e.history = e.history[len(e.history)-maxHistorySize+1:]
	}
	e.history = append(e.history, record)
	recorder := e.recorder
	e.mu.Unlock()

	if recorder != nil {
		// A history failure never fails the tool call
		if err := recorder.RecordExecution(context.WithoutCancel(ctx), record); err != nil {
			ctxlog.FromContext(ctx).Warn("failed to record execution", "err", err)
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a parameter validation error.
type ValidationError struct {
	Param   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Param + ": " + e.Message
}

// MissingArgsError lists required parameters that were not provided.
type MissingArgsError struct {
	Names []string
}

func (e *MissingArgsError) Error() string {
	return "Missing required arguments: " + strings.Join(e.Names, ", ")
}

// validateParams validates tool parameters against the schema.
func validateParams(tool *Tool, params map[string]interface{}) error {
	var missing []string
	for _, param := range tool.Schema.Parameters {
		val, exists := params[param.Name]
		if param.Required && (!exists || val == nil || isBlank(val)) {
			missing = append(missing, param.Name)
		}
	}
	if len(missing) > 0 {
		return &MissingArgsError{Names: missing}
	}

	for _, param := range tool.Schema.Parameters {
		val, exists := params[param.Name]
		if !exists || val == nil {
			continue
		}
		if err := validateType(param, val); err != nil {
			return err
		}
		if len(param.Enum) > 0 {
			if s, ok := val.(string); ok && s != "" && !contains(param.Enum, s) {
				return &ValidationError{
					Param:   param.Name,
					Message: fmt.Sprintf("invalid value %q, must be one of: %s", s, strings.Join(param.Enum, ", ")),
				}
			}
		}
	}

	var unknown []string
	for name := range params {
		if _, ok := tool.Schema.Parameter(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &ValidationError{
			Param:   strings.Join(unknown, ", "),
			Message: "unknown parameter",
		}
	}
	return nil
}

// validateType validates a parameter value against its expected type.
func validateType(param Parameter, val interface{}) error {
	switch param.Type {
	case "string":
		if _, ok := val.(string); !ok {
			return &ValidationError{Param: param.Name, Message: "expected string"}
		}
	case "number":
		switch val.(type) {
		case int, int64, float64:
		default:
			return &ValidationError{Param: param.Name, Message: "expected number"}
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return &ValidationError{Param: param.Name, Message: "expected boolean"}
		}
	}
	return nil
}

func isBlank(val interface{}) bool {
	s, ok := val.(string)
	return ok && strings.TrimSpace(s) == ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
