// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points CLITOOLS_HOME at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CLITOOLS_HOME", dir)
	for _, k := range []string{
		"CLITOOLS_LOG_LEVEL", "CLITOOLS_LOG_FORMAT", "CLITOOLS_TIMEOUT",
		"CLITOOLS_AUTO_APPROVE", "CLITOOLS_HISTORY", "CLITOOLS_KUBE_CONTEXT_MODE",
		"CLITOOLS_OBSERVE_BASE_URL", "CLITOOLS_ARGOCD_WORKSPACE",
		"CLITOOLS_ARGOCD_CACHE_BACKEND", "CLITOOLS_REDIS_URL", "CLITOOLS_S3_ENDPOINT",
		"AWS_REGION", "AWS_DEFAULT_REGION",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.Observe.MaxLines)
	assert.Equal(t, 10000, cfg.Observe.MaxChars)
	assert.Equal(t, "file", cfg.ArgoCD.CacheBackend)
	assert.True(t, cfg.Execution.AutoApprove)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Execution, cfg.Execution)
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := isolate(t)
	content := `
[logging]
level = "debug"

[argocd]
workspace = "/tmp/argo-ws"
poll_interval_secs = 1

[observe]
max_lines = 20
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/argo-ws", cfg.ArgoCD.Workspace)
	assert.Equal(t, 1, cfg.ArgoCD.PollIntervalSecs)
	assert.Equal(t, 20, cfg.Observe.MaxLines)
	// Untouched keys keep their defaults
	assert.Equal(t, 10000, cfg.Observe.MaxChars)
	assert.Equal(t, "gh", cfg.Binaries.GH)
}

func TestLoad_FixesPermissions(t *testing.T) {
	if os.PathSeparator == '\\' {
		t.Skip("file modes are not enforced on windows")
	}
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = \"1\"\n"), 0644))

	_, err := LoadFromPath(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[logging]\nlevel = \"loud\"\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "logging.level", verrs[0].Field)
}

func TestLoadFromPath_JSON(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"confluence":{"default_limit":25}}`), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Confluence.DefaultLimit)
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.toml")

	cfg := Default()
	cfg.ArgoCD.CacheBackend = "redis"
	cfg.ArgoCD.RedisURL = "redis://localhost:6379/2"
	require.NoError(t, SaveTOML(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "redis", loaded.ArgoCD.CacheBackend)
	assert.Equal(t, "redis://localhost:6379/2", loaded.ArgoCD.RedisURL)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"timeout order", func(c *Config) { c.Execution.MaxTimeoutSecs = 1 }, "execution.max_timeout_secs"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"rate limit", func(c *Config) { c.HTTP.RateLimit = -1 }, "http.rate_limit"},
		{"context mode", func(c *Config) { c.Kubernetes.ContextMode = "magic" }, "kubernetes.context_mode"},
		{"observe url", func(c *Config) { c.Observe.BaseURL = "ftp://x" }, "observe.base_url"},
		{"redis url", func(c *Config) { c.ArgoCD.CacheBackend = "redis" }, "argocd.redis_url"},
		{"cache backend", func(c *Config) { c.ArgoCD.CacheBackend = "memcached" }, "argocd.cache_backend"},
		{"scheme", func(c *Config) { c.ArgoCD.Scheme = "grpc" }, "argocd.scheme"},
		{"s3 endpoint", func(c *Config) { c.S3.Endpoint = "https://s3.example.com" }, "s3.endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("CLITOOLS_LOG_LEVEL", "DEBUG")
	t.Setenv("CLITOOLS_TIMEOUT", "45")
	t.Setenv("CLITOOLS_AUTO_APPROVE", "false")
	t.Setenv("CLITOOLS_ARGOCD_WORKSPACE", "/data/argo")
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 45, cfg.Execution.DefaultTimeoutSecs)
	assert.False(t, cfg.Execution.AutoApprove)
	assert.Equal(t, "/data/argo", cfg.ArgoCD.Workspace)
	assert.Equal(t, "eu-west-1", cfg.S3.Region)
}

func TestApplyEnvOverrides_IgnoresBadTimeout(t *testing.T) {
	isolate(t)
	t.Setenv("CLITOOLS_TIMEOUT", "soon")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, Default().Execution.DefaultTimeoutSecs, cfg.Execution.DefaultTimeoutSecs)
}

func TestDerivedPaths(t *testing.T) {
	dir := isolate(t)
	cfg := Default()

	p, err := cfg.HistoryPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "history.db"), p)

	cfg.ArgoCD.Workspace = "/explicit"
	ws, err := cfg.ArgoCDWorkspace()
	require.NoError(t, err)
	assert.Equal(t, "/explicit", ws)

	cfg.Datadog.DogrcPath = filepath.Join(dir, ".dogrc")
	rc, err := cfg.DogrcPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".dogrc"), rc)
}

func TestLoad_Permissions(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	content := `
[permissions]
always_allow = ["argocd_sync_application"]

[permissions.overrides]
github_cli = "never"
helm_cli_command = "Auto"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"argocd_sync_application"}, cfg.Permissions.AlwaysAllow)
	assert.Equal(t, map[string]string{"github_cli": "never", "helm_cli_command": "Auto"}, cfg.Permissions.Overrides)
}

func TestValidate_PermissionLevel(t *testing.T) {
	cfg := Default()
	cfg.Permissions.Overrides = map[string]string{"github_cli": "sometimes"}

	var errs ValidateErrors
	require.True(t, errors.As(cfg.Validate(), &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "permissions.overrides.github_cli", errs[0].Field)
}
