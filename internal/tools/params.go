// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"strconv"
	"strings"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/util"
)

// getStringParam extracts a non-empty string parameter with a default value.
func getStringParam(params map[string]interface{}, name string, defaultVal string) string {
	if val, ok := params[name]; ok {
		if s, ok := val.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return defaultVal
}

// getIntParam extracts an integer parameter with a default value.
func getIntParam(params map[string]interface{}, name string, defaultVal int) int {
	if val, ok := params[name]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return defaultVal
}

// getBoolParam extracts a boolean parameter with a default value.
func getBoolParam(params map[string]interface{}, name string, defaultVal bool) bool {
	if val, ok := params[name]; ok {
		switch v := val.(type) {
		case bool:
			return v
		case string:
			if b, err := util.ParseBool(v); err == nil && strings.TrimSpace(v) != "" {
				return b
			}
		}
	}
	return defaultVal
}

// CoerceParams converts string values to the schema's declared types.
// Command-line callers only ever produce strings ("50", "true"), while
// JSON callers produce numbers and booleans; both validate the same way.
// Values that cannot be converted are left as they are for validation to reject.
func CoerceParams(schema Schema, params map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		out[k] = v
	}

	for _, p := range schema.Parameters {
		raw, ok := out[p.Name].(string)
		if !ok {
			continue
		}
		switch p.Type {
		case "number":
			if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
				out[p.Name] = n
			}
		case "boolean":
			if strings.TrimSpace(raw) == "" {
				continue
			}
			if b, err := util.ParseBool(raw); err == nil {
				out[p.Name] = b
			}
		}
	}
	return out
}

// applyDefaults fills in declared defaults for parameters that were not given.
func applyDefaults(schema Schema, params map[string]interface{}) {
	for _, p := range schema.Parameters {
		if _, ok := params[p.Name]; !ok && p.Default != nil {
			params[p.Name] = p.Default
		}
	}
}
