// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for clitools commands.
//
// PATTERN:
//   - Handlers return errors, they never print and return nil
//   - The caller displays the error once, in text or JSON form
//   - A tool run exits with the tool's own exit code; these codes cover
//     failures of clitools itself (bad flags, broken config, history I/O)

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/config"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/restapi"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/tools"
)

// =============================================================================
// EXIT CODES
// =============================================================================

// The codes shared with tool results come from the tools package so a
// usage error looks the same whether clitools or the executor caught it.
const (
	ExitSuccess       = tools.ExitOK
	ExitGeneralError  = tools.ExitFailure
	ExitUsageError    = tools.ExitUsage
	ExitConfigError   = tools.ExitMissingEnv
	ExitAuthError     = 4
	ExitNetworkError  = 5
	ExitSecurityError = tools.ExitDenied
	ExitNotFoundError = tools.ExitUnknown
	ExitTimeoutError  = tools.ExitTimeout
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "history", "config")
	Action  string // Action being performed (e.g., "open", "init")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// PermissionError is returned when an action was not approved.
type PermissionError struct {
	Action string // Action that was denied
	Reason string
	Err    error // Why no approval could be asked for (if any)
}

func (e *PermissionError) Error() string {
	msg := "permission denied: " + e.Action
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string // Type of resource (e.g., "tool")
	ID       string // Identifier that was not found
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{Field: argName, Reason: "required argument missing", Example: usage}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes an error in text or JSON form.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		DisplayErrorJSON(w, command, err)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

// DisplayErrorJSON writes the error envelope with structured details.
func DisplayErrorJSON(w io.Writer, command string, err error) {
	details := map[string]interface{}{"exit_code": GetExitCode(err)}

	var cmdErr *CommandError
	var valErr *ValidationError
	var nfErr *NotFoundError
	var permErr *PermissionError
	switch {
	case errors.As(err, &permErr):
		details["error_type"] = "permission_error"
		details["action"] = permErr.Action
		var ttyErr *TTYRequiredError
		if errors.As(err, &ttyErr) {
			details["tty_required"] = true
		}
	case errors.As(err, &valErr):
		details["error_type"] = "validation_error"
		details["field"] = valErr.Field
		if valErr.Value != "" {
			details["value"] = valErr.Value
		}
		if valErr.Example != "" {
			details["example"] = valErr.Example
		}
	case errors.As(err, &nfErr):
		details["error_type"] = "not_found_error"
		details["resource"] = nfErr.Resource
		details["id"] = nfErr.ID
	case errors.As(err, &cmdErr):
		details["error_type"] = "command_error"
		details["action"] = cmdErr.Action
	default:
		details["error_type"] = "generic_error"
	}

	resp := NewJSONErrorResponse(command, err)
	resp.Data = details
	_ = resp.Write(w)
}

// GetExitCode determines the exit code for an error returned by a handler.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return ExitNotFoundError
	}

	var permissionErr *PermissionError
	if errors.As(err, &permissionErr) {
		return ExitSecurityError
	}

	var configErrs config.ValidateErrors
	if errors.As(err, &configErrs) {
		return ExitConfigError
	}
	var configErr config.ValidationError
	if errors.As(err, &configErr) {
		return ExitConfigError
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Command == "config" {
		return ExitConfigError
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeoutError
	}

	if errors.Is(err, restapi.ErrAuthFailed) || errors.Is(err, restapi.ErrForbidden) {
		return ExitAuthError
	}

	var netErr *restapi.NetworkError
	if errors.As(err, &netErr) {
		return ExitNetworkError
	}

	return ExitGeneralError
}

// jsonEncode writes v as indented JSON.
func jsonEncode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
