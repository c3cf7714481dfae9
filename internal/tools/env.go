// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"os"
	"strings"
)

// Getenv looks up an environment variable. Executors take one so tests can
// supply credentials without touching the process environment.
type Getenv func(key string) string

// OSGetenv reads the process environment.
var OSGetenv Getenv = os.Getenv

// EnvVar is a required credential.
type EnvVar struct {
	// Name is the primary variable name
	Name string

	// Alternatives also satisfy the requirement (GITHUB_TOKEN for GH_TOKEN)
	Alternatives []string

	// Hint tells the caller how to provide the value
	Hint string
}

// Lookup returns the first non-empty value among Name and Alternatives.
func (v EnvVar) Lookup(getenv Getenv) (string, bool) {
	if val := strings.TrimSpace(getenv(v.Name)); val != "" {
		return val, true
	}
	for _, alt := range v.Alternatives {
		if val := strings.TrimSpace(getenv(alt)); val != "" {
			return val, true
		}
	}
	return "", false
}

// Label renders the variable with its alternatives, "GH_TOKEN (or GITHUB_TOKEN)".
func (v EnvVar) Label() string {
	if len(v.Alternatives) == 0 {
		return v.Name
	}
	return v.Name + " (or " + strings.Join(v.Alternatives, ", ") + ")"
}

// MissingEnvError lists credentials that were not set.
type MissingEnvError struct {
	Missing []EnvVar
}

func (e *MissingEnvError) Error() string {
	names := make([]string, len(e.Missing))
	for i, v := range e.Missing {
		names[i] = v.Name
	}
	return "Missing required environment variables: " + strings.Join(names, ", ")
}

// Detail renders one line per missing variable with its hint.
func (e *MissingEnvError) Detail() string {
	var b strings.Builder
	b.WriteString("❌ " + e.Error() + "\n")
	for _, v := range e.Missing {
		b.WriteString("   • " + v.Label())
		if v.Hint != "" {
			b.WriteString(": " + v.Hint)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// CheckEnv returns a *MissingEnvError when any variable is unset.
func CheckEnv(getenv Getenv, vars []EnvVar) error {
	if getenv == nil {
		getenv = OSGetenv
	}
	var missing []EnvVar
	for _, v := range vars {
		if _, ok := v.Lookup(getenv); !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return &MissingEnvError{Missing: missing}
	}
	return nil
}

// MapEnv adapts a map to Getenv. Used by tests.
func MapEnv(m map[string]string) Getenv {
	return func(key string) string {
		return m[key]
	}
}
