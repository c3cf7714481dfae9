// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package observe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/restapi"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/util"
)

// Default output limits for response bodies.
const (
	DefaultMaxLines = 100
	DefaultMaxChars = 10000
)

// Limits bounds the response body shown to the caller.
type Limits struct {
	MaxLines int
	MaxChars int
}

// DefaultLimits returns the standard body limits.
func DefaultLimits() Limits {
	return Limits{MaxLines: DefaultMaxLines, MaxChars: DefaultMaxChars}
}

// =============================================================================
// HEADER
// =============================================================================

// Header renders the operation banner and plan notes.
func Header(plan *Plan) string {
	var b strings.Builder
	b.WriteString("=== Observe API Operation ===\n")
	fmt.Fprintf(&b, "Command: %s\n", plan.Command)
	fmt.Fprintf(&b, "Operation: %s\n", plan.Operation)
	fmt.Fprintf(&b, "Sub-operation: %s\n\n", plan.SubOperation)
	for _, note := range plan.Notes {
		b.WriteString(note + "\n")
	}
	return b.String()
}

// =============================================================================
// RESPONSE REPORT
// =============================================================================

// Report renders the response and returns the exit code for it: 0 for 2xx
// and other non-error statuses, 1 for 4xx and 5xx.
func Report(plan *Plan, resp *restapi.Response, limits Limits) (string, int) {
	var b strings.Builder
	status := resp.StatusCode

	b.WriteString("=== Response ===\n")
	fmt.Fprintf(&b, "HTTP Status: %d\n", status)
	fmt.Fprintf(&b, "Response Time: %.3fs\n\n", resp.Duration.Seconds())

	switch {
	case status >= 200 && status < 300:
		fmt.Fprintf(&b, "✅ Success (%d)\n\n", status)
		writeBody(&b, resp.Body, limits)
		return b.String(), 0

	case status >= 400 && status < 500:
		fmt.Fprintf(&b, "❌ Client Error (%d)\n\n=== Error Details ===\n", status)
		b.WriteString(clientErrorText(status, plan))
		writeErrorFields(&b, resp.Body, true)
		writeFullError(&b, resp.Body, limits)
		return b.String(), 1

	case status >= 500:
		fmt.Fprintf(&b, "❌ Server Error (%d)\n\n=== Error Details ===\n", status)
		b.WriteString(serverErrorText(status))
		writeErrorFields(&b, resp.Body, false)
		writeFullError(&b, resp.Body, limits)
		return b.String(), 1

	default:
		fmt.Fprintf(&b, "⚠️  Unexpected Status (%d)\n\n=== Response Details ===\n", status)
		writeBody(&b, resp.Body, limits)
		return b.String(), 0
	}
}

func clientErrorText(status int, plan *Plan) string {
	switch status {
	case 400:
		return "Bad Request - The request was malformed or invalid\n"
	case 401:
		return "Unauthorized - Invalid or missing API key\n" +
			"Please check your OBSERVE_API_KEY environment variable\n"
	case 403:
		return "Forbidden - Insufficient permissions for this operation\n" +
			"Please check your API key permissions\n"
	case 404:
		return "Not Found - The requested resource was not found\n" +
			"Please verify the endpoint or resource ID\n" + notFoundHint(plan)
	case 409:
		return "Conflict - The request conflicts with current state\n"
	case 422:
		return "Unprocessable Entity - The request was well-formed but contains invalid parameters\n" +
			invalidHint(plan)
	case 429:
		return "Too Many Requests - Rate limit exceeded\n" +
			"Please wait before making additional requests\n"
	default:
		return fmt.Sprintf("Client Error - HTTP %d\n", status)
	}
}

func notFoundHint(plan *Plan) string {
	if plan.SubOperation == "show" {
		if res, ok := resources[plan.Operation]; ok {
			return fmt.Sprintf("\n💡 Hint: Make sure the %s ID is correct.\n"+
				"   Try '%s list' to see available %ss first.\n", res.noun, plan.Operation, res.noun)
		}
	}
	switch plan.Operation {
	case "query", "advanced-query":
		return "\n💡 Hint: Make sure the dataset ID is correct.\n" +
			"   Try 'dataset list' to see available datasets first.\n"
	case "api":
		return "\n💡 Hint: Check if the endpoint path is correct.\n" +
			"   Common endpoints: /v1/dataset, /v1/monitors, /v1/referencetables\n" +
			"   Try 'api GET /v1/dataset' for a working example.\n"
	}
	return ""
}

func invalidHint(plan *Plan) string {
	switch plan.Operation {
	case "query":
		return "\n💡 Hint: Check your OPAL query syntax.\n" +
			"   Common OPAL examples:\n" +
			"   - 'filter severity == \"error\"'\n" +
			"   - 'filter timestamp > \"2023-01-01T00:00:00Z\"'\n" +
			"   - 'make count()'\n" +
			"   - 'filter message =~ \"error\"'\n"
	case "advanced-query":
		return "\n💡 Hint: Check your query parameters:\n" +
			"   - startTime/endTime should be ISO8601 format (e.g., 2023-04-20T16:20:00Z)\n" +
			"   - interval should be valid duration (e.g., 1h, 10m, 30s)\n" +
			"   - OPAL syntax should be valid\n"
	case "api":
		return "\n💡 Hint: Check your request parameters:\n" +
			"   - Query parameters should be properly formatted\n" +
			"   - Request body should be valid JSON\n" +
			"   - URL encoding for special characters\n"
	}
	return ""
}

func serverErrorText(status int) string {
	switch status {
	case 500:
		return "Internal Server Error - The server encountered an unexpected condition\n"
	case 502:
		return "Bad Gateway - The server received an invalid response from upstream\n"
	case 503:
		return "Service Unavailable - The service is temporarily unavailable\n" +
			"Please try again later\n"
	case 504:
		return "Gateway Timeout - The server did not receive a timely response\n"
	default:
		return fmt.Sprintf("Server Error - HTTP %d\n", status)
	}
}

// ErrorFields are the message and code values APIs commonly put in error bodies.
type ErrorFields struct {
	Message string
	Code    string
}

// ExtractErrorFields reads the first of .error/.message/.detail and the first
// of .code/.error_code from a JSON object body.
func ExtractErrorFields(body []byte) ErrorFields {
	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err != nil {
		return ErrorFields{}
	}
	return ErrorFields{
		Message: firstField(obj, "error", "message", "detail"),
		Code:    firstField(obj, "code", "error_code"),
	}
}

func firstField(obj map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil || v == false {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return fmt.Sprintf("%v", t)
		default:
			data, err := json.Marshal(t)
			if err == nil {
				return string(data)
			}
		}
	}
	return ""
}

func writeErrorFields(b *strings.Builder, body []byte, withCode bool) {
	fields := ExtractErrorFields(body)
	if fields.Message != "" {
		b.WriteString("\nError Message: " + fields.Message + "\n")
	}
	if withCode && fields.Code != "" {
		b.WriteString("Error Code: " + fields.Code + "\n")
	}
}

func writeFullError(b *strings.Builder, body []byte, limits Limits) {
	b.WriteString("\n=== Full Error Response ===\n")
	writeBody(b, body, limits)
}

// writeBody pretty-prints JSON bodies, then applies the line and character
// limits with a notice for each one hit.
func writeBody(b *strings.Builder, body []byte, limits Limits) {
	text := PrettyJSON(body)
	limited, lim := util.LimitOutput(text, limits.MaxLines, limits.MaxChars)
	if lim.LinesTruncated {
		fmt.Fprintf(b, "⚠️  Output truncated to %d lines. Refine your query or use filters for more data.\n", limits.MaxLines)
	}
	if lim.CharsTruncated {
		fmt.Fprintf(b, "⚠️  Output truncated to %d characters. Refine your query or use filters for more data.\n", limits.MaxChars)
	}
	b.WriteString(limited)
	if !strings.HasSuffix(limited, "\n") {
		b.WriteString("\n")
	}
}

// PrettyJSON indents a JSON body; anything else is returned as text.
func PrettyJSON(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}

// =============================================================================
// NETWORK FAILURE
// =============================================================================

// Credentials describes the configured tenant without exposing the key.
type Credentials struct {
	CustomerID string
	KeyLength  int
}

// NetworkFailure renders a transport error with troubleshooting steps.
func NetworkFailure(plan *Plan, baseURL string, err error, creds Credentials) string {
	var b strings.Builder
	b.WriteString("❌ Error: Failed to execute API call\n\n")
	b.WriteString("=== Debug Information ===\n")
	fmt.Fprintf(&b, "Command: %s\n", plan.Command)
	fmt.Fprintf(&b, "Operation: %s\n", plan.Operation)
	fmt.Fprintf(&b, "Sub-operation: %s\n", plan.SubOperation)
	fmt.Fprintf(&b, "Base URL: %s\n\n", baseURL)

	var netErr *restapi.NetworkError
	if errors.As(err, &netErr) {
		switch netErr.Kind {
		case restapi.KindDNS:
			b.WriteString("❌ Network Error: Could not resolve host\n")
			fmt.Fprintf(&b, "Check if the base URL is correct: %s\n", baseURL)
		case restapi.KindConnect:
			b.WriteString("❌ Network Error: Failed to connect to host\n")
			fmt.Fprintf(&b, "Check network connectivity to: %s\n", baseURL)
		case restapi.KindTimeout:
			b.WriteString("❌ Timeout Error: Request timed out\n")
			b.WriteString("The request took too long. Check network connectivity.\n")
		case restapi.KindTLS:
			b.WriteString("❌ SSL Error: SSL/TLS connection failed\n")
			b.WriteString("Check if the endpoint supports HTTPS.\n")
		default:
			fmt.Fprintf(&b, "❌ Network Error: %v\n", netErr.Err)
		}
	} else {
		fmt.Fprintf(&b, "❌ Error: %v\n", err)
	}

	b.WriteString("\n=== Troubleshooting Steps ===\n")
	b.WriteString("1. Check if OBSERVE_API_KEY is set correctly\n")
	b.WriteString("2. Check if OBSERVE_CUSTOMER_ID is set correctly\n")
	fmt.Fprintf(&b, "3. Verify network connectivity to %s\n", baseURL)
	b.WriteString("4. Check if the endpoint exists and is accessible\n")
	b.WriteString("5. Ensure Bearer token format is correct: 'Bearer <customerid> <token>'\n\n")

	b.WriteString("=== Authentication Test ===\n")
	if creds.KeyLength > 0 {
		fmt.Fprintf(&b, "✅ API Token is set (length: %d characters)\n", creds.KeyLength)
	} else {
		b.WriteString("❌ API Token is not set\n")
	}
	if creds.CustomerID != "" {
		fmt.Fprintf(&b, "✅ Customer ID is set: %s\n", creds.CustomerID)
	} else {
		b.WriteString("❌ Customer ID is not set\n")
	}
	fmt.Fprintf(&b, "✅ Bearer token format: Bearer %s <token>\n", creds.CustomerID)
	return b.String()
}
