// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/observe"
)

// =============================================================================
// OBSERVE TOOLS
// =============================================================================

func observeCommandTool(d *Deps) *Tool {
	return &Tool{
		Name: "observe_api_command",
		Description: "Execute Observe API operations with a command string: 'dataset list', 'dataset show <id>', " +
			"'monitors list', 'monitor-mute-rules list', 'referencetables list', 'query <dataset-id> <opal>', " +
			"'advanced-query <dataset-id> --startTime T --endTime T --interval D --opal Q', or " +
			"'api <METHOD> <ENDPOINT> [--time-preset P --filter-column C --filter-value V ...]'.",
		ShortDescription: "Run an Observe API operation",
		Schema: Schema{Parameters: []Parameter{{
			Name: "command",
			Type: "string",
			// Not required: an empty command prints the usage text
			Description: "The Observe operation to run, e.g. 'dataset list' or 'query 41000123 filter severity = \"error\"'",
		}}},
		RequiredEnv: []EnvVar{envObserveAPIKey, envObserveCustomerID},
		RiskLevel:   RiskLow,
		Permission:  PermissionAuto,
		Executor:    &ObserveCommandExecutor{deps: d},
	}
}

func observeQueryTool(d *Deps) *Tool {
	return &Tool{
		Name:             "observe_opal_query",
		Description:      "Run an OPAL query against an Observe dataset, optionally bounded by start/end time and interval.",
		ShortDescription: "Run an OPAL query against a dataset",
		Schema: Schema{Parameters: []Parameter{
			{Name: "dataset_id", Type: "string", Required: true, Description: "Dataset ID to query"},
			{Name: "opal_query", Type: "string", Required: true, Description: "OPAL pipeline, e.g. 'filter severity = \"error\" | limit 10'"},
			{Name: "start_time", Type: "string", Description: "Query window start (ISO 8601)"},
			{Name: "end_time", Type: "string", Description: "Query window end (ISO 8601)"},
			{Name: "interval", Type: "string", Description: "Window length instead of an end time, e.g. 1h"},
		}},
		RequiredEnv: []EnvVar{envObserveAPIKey, envObserveCustomerID},
		RiskLevel:   RiskLow,
		Permission:  PermissionAuto,
		Executor:    &ObserveQueryExecutor{deps: d},
	}
}

// ObserveCommandExecutor parses a command string into one API call.
type ObserveCommandExecutor struct {
	deps *Deps
}

func (e *ObserveCommandExecutor) Execute(ctx context.Context, params map[string]interface{}) (Result, error) {
	plan, err := observe.ParseCommand(getStringParam(params, "command", ""))
	if err != nil {
		return observeUsage(err), nil
	}
	return e.deps.observeCall(ctx, plan), nil
}

// ObserveQueryExecutor runs the named-parameter form of the query operations.
type ObserveQueryExecutor struct {
	deps *Deps
}

func (e *ObserveQueryExecutor) Execute(ctx context.Context, params map[string]interface{}) (Result, error) {
	plan, err := observe.PlanQuery(
		getStringParam(params, "dataset_id", ""),
		getStringParam(params, "opal_query", ""),
		observe.TimeRange{
			StartTime: getStringParam(params, "start_time", ""),
			EndTime:   getStringParam(params, "end_time", ""),
			Interval:  getStringParam(params, "interval", ""),
		},
	)
	if err != nil {
		return observeUsage(err), nil
	}
	return e.deps.observeCall(ctx, plan), nil
}

// observeUsage reports a command that never became an API call. Like the
// API failures it exits 1.
func observeUsage(err error) Result {
	var usage *observe.UsageError
	if errors.As(err, &usage) {
		first, _, _ := strings.Cut(usage.Message, "\n")
		return Result{Output: usage.Message, Error: strings.TrimPrefix(first, "Error: "), ExitCode: ExitFailure}
	}
	return failed(fmt.Sprintf("❌ Error: %v\n", err), ExitFailure, err)
}

// observeCall executes plan and renders the response report.
func (d *Deps) observeCall(ctx context.Context, plan *observe.Plan) Result {
	customerID := d.env(envObserveCustomerID)
	apiKey := d.env(envObserveAPIKey)

	base := observe.BaseURL(customerID, d.Config.Observe.BaseURL)
	client := observe.NewClient(d.newAPI(base, 0), customerID, apiKey)

	var b strings.Builder
	b.WriteString(observe.Header(plan))

	resp, err := client.Execute(ctx, plan)
	if err != nil {
		b.WriteString(observe.NetworkFailure(plan, client.BaseURL(), err, observe.Credentials{
			CustomerID: customerID,
			KeyLength:  len(apiKey),
		}))
		return failed(b.String(), ExitFailure, err)
	}

	report, code := observe.Report(plan, resp, observe.Limits{
		MaxLines: d.Config.Observe.MaxLines,
		MaxChars: d.Config.Observe.MaxChars,
	})
	b.WriteString(report)

	result := Result{Success: code == 0, Output: b.String(), ExitCode: code, StatusCode: resp.StatusCode}
	if code != 0 {
		result.Error = fmt.Sprintf("observe API returned HTTP %d", resp.StatusCode)
	}
	return result
}
