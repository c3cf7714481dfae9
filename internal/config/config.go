// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for clitools.
//
// Configuration file locations (in order of precedence):
//   - --config <path>
//   - $CLITOOLS_HOME/config.toml (default ~/.clitools/config.toml)
//   - $CLITOOLS_HOME/config.json
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/util"
)

// CurrentVersion is the config schema version written by SaveTOML.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete clitools configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Execution limits shared by every tool
	Execution ExecutionConfig `toml:"execution" json:"execution"`

	// Per-tool approval adjustments
	Permissions PermissionsConfig `toml:"permissions" json:"permissions"`

	// Logging configuration for the diagnostic logger (stderr)
	Logging LoggingConfig `toml:"logging" json:"logging"`

	// HTTP client settings for REST-backed tools
	HTTP HTTPConfig `toml:"http" json:"http"`

	// History database configuration
	History HistoryConfig `toml:"history" json:"history"`

	// Binaries maps wrapped CLIs to executable names or paths
	Binaries BinariesConfig `toml:"binaries" json:"binaries"`

	// Kubernetes context injection for helm
	Kubernetes KubernetesConfig `toml:"kubernetes" json:"kubernetes"`

	// Datadog CLI configuration
	Datadog DatadogConfig `toml:"datadog" json:"datadog"`

	// Observe API configuration
	Observe ObserveConfig `toml:"observe" json:"observe"`

	// ArgoCD API and workspace cache configuration
	ArgoCD ArgoCDConfig `toml:"argocd" json:"argocd"`

	// Confluence search configuration
	Confluence ConfluenceConfig `toml:"confluence" json:"confluence"`

	// S3 upload configuration for process_csv_to_s3
	S3 S3Config `toml:"s3" json:"s3"`
}

// ExecutionConfig controls tool timeouts, output caps and approval.
type ExecutionConfig struct {
	// DefaultTimeoutSecs applies when a call does not request a timeout
	DefaultTimeoutSecs int `toml:"default_timeout_secs" json:"default_timeout_secs"`

	// MaxTimeoutSecs caps any requested timeout
	MaxTimeoutSecs int `toml:"max_timeout_secs" json:"max_timeout_secs"`

	// MaxOutputChars caps the output returned to the caller
	MaxOutputChars int `toml:"max_output_chars" json:"max_output_chars"`

	// AutoApprove skips the confirmation prompt for high-risk tools.
	// Agents run non-interactively, so this defaults to true.
	AutoApprove bool `toml:"auto_approve" json:"auto_approve"`
}

// PermissionsConfig adjusts the approval level of individual tools.
type PermissionsConfig struct {
	// AlwaysAllow lists tools that run without approval. A tool that refuses
	// a call for its parameters still refuses it.
	AlwaysAllow []string `toml:"always_allow" json:"always_allow"`

	// Overrides maps a tool name to "auto", "ask" or "never"
	Overrides map[string]string `toml:"overrides" json:"overrides"`
}

// PermissionLevels are the values accepted in permissions.overrides.
var PermissionLevels = []string{"auto", "ask", "never"}

// LoggingConfig controls the diagnostic logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level" json:"level"`

	// Format is one of text, json, logfmt
	Format string `toml:"format" json:"format"`
}

// HTTPConfig contains settings for the shared REST client.
type HTTPConfig struct {
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// RateLimit is the client-side request rate per second (0 disables)
	RateLimit float64 `toml:"rate_limit" json:"rate_limit"`

	// RateBurst is the token bucket burst size
	RateBurst int `toml:"rate_burst" json:"rate_burst"`

	// MaxResponseBytes caps how much of a response body is read
	MaxResponseBytes int64 `toml:"max_response_bytes" json:"max_response_bytes"`
}

// HistoryConfig configures the execution history database.
type HistoryConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`

	// Path to the sqlite database; empty means $CLITOOLS_HOME/history.db
	Path string `toml:"path" json:"path"`
}

// BinariesConfig names the wrapped executables.
type BinariesConfig struct {
	GH      string `toml:"gh" json:"gh"`
	AZ      string `toml:"az" json:"az"`
	Helm    string `toml:"helm" json:"helm"`
	Kubectl string `toml:"kubectl" json:"kubectl"`
	Bicep   string `toml:"bicep" json:"bicep"`
	Datadog string `toml:"datadog" json:"datadog"`
}

// KubernetesConfig controls how helm gets a cluster context.
type KubernetesConfig struct {
	// ContextMode is "in-cluster" (inject service account context) or "kubeconfig"
	ContextMode string `toml:"context_mode" json:"context_mode"`

	TokenPath  string `toml:"token_path" json:"token_path"`
	CACertPath string `toml:"ca_cert_path" json:"ca_cert_path"`
	Server     string `toml:"server" json:"server"`
}

// DatadogConfig controls the .dogrc written before each call.
type DatadogConfig struct {
	// DogrcPath is where credentials are written; empty means ~/.dogrc
	DogrcPath string `toml:"dogrc_path" json:"dogrc_path"`
}

// ObserveConfig contains Observe API settings.
type ObserveConfig struct {
	// BaseURL overrides https://<customer>.observeinc.com
	BaseURL string `toml:"base_url" json:"base_url"`

	MaxLines int `toml:"max_lines" json:"max_lines"`
	MaxChars int `toml:"max_chars" json:"max_chars"`
}

// ArgoCDConfig contains ArgoCD API and cache settings.
type ArgoCDConfig struct {
	// Workspace holds cache/; empty resolves at runtime (see ArgoCDWorkspace)
	Workspace string `toml:"workspace" json:"workspace"`

	// CacheBackend is "file" or "redis"
	CacheBackend string `toml:"cache_backend" json:"cache_backend"`

	// RedisURL is used when CacheBackend is "redis" (redis://host:6379/0)
	RedisURL string `toml:"redis_url" json:"redis_url"`

	// Scheme is https unless the server is reached over plain http
	Scheme string `toml:"scheme" json:"scheme"`

	TimeoutSecs      int `toml:"timeout_secs" json:"timeout_secs"`
	SyncTimeoutSecs  int `toml:"sync_timeout_secs" json:"sync_timeout_secs"`
	PollIntervalSecs int `toml:"poll_interval_secs" json:"poll_interval_secs"`
	MaxPolls         int `toml:"max_polls" json:"max_polls"`
}

// ConfluenceConfig contains Confluence search settings.
type ConfluenceConfig struct {
	DefaultLimit int `toml:"default_limit" json:"default_limit"`
	TimeoutSecs  int `toml:"timeout_secs" json:"timeout_secs"`
}

// S3Config contains object storage settings.
type S3Config struct {
	// Endpoint is host[:port] without scheme
	Endpoint string `toml:"endpoint" json:"endpoint"`
	Region   string `toml:"region" json:"region"`
	UseSSL   bool   `toml:"use_ssl" json:"use_ssl"`

	// UseIAM allows uploads without static AWS_* credentials
	UseIAM bool `toml:"use_iam" json:"use_iam"`
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Execution: ExecutionConfig{
			DefaultTimeoutSecs: 300,
			MaxTimeoutSecs:     1800,
			MaxOutputChars:     100000,
			AutoApprove:        true,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		HTTP: HTTPConfig{
			TimeoutSecs:      30,
			RateLimit:        10,
			RateBurst:        20,
			MaxResponseBytes: 10 * 1024 * 1024,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Binaries: BinariesConfig{
			GH:      "gh",
			AZ:      "az",
			Helm:    "helm",
			Kubectl: "kubectl",
			Bicep:   "bicep",
			Datadog: "datadog",
		},
		Kubernetes: KubernetesConfig{
			ContextMode: "in-cluster",
			TokenPath:   "/var/run/secrets/kubernetes.io/serviceaccount/token",
			CACertPath:  "/var/run/secrets/kubernetes.io/serviceaccount/ca.crt",
			Server:      "https://kubernetes.default.svc",
		},
		Observe: ObserveConfig{
			MaxLines: 100,
			MaxChars: 10000,
		},
		ArgoCD: ArgoCDConfig{
			CacheBackend:     "file",
			Scheme:           "https",
			TimeoutSecs:      30,
			SyncTimeoutSecs:  60,
			PollIntervalSecs: 5,
			MaxPolls:         60,
		},
		Confluence: ConfluenceConfig{
			DefaultLimit: 10,
			TimeoutSecs:  30,
		},
		S3: S3Config{
			Endpoint: "s3.amazonaws.com",
			UseSSL:   true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the clitools configuration directory.
// CLITOOLS_HOME overrides the default ~/.clitools.
func ConfigDir() (string, error) {
	if dir := os.Getenv("CLITOOLS_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".clitools"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files may carry a redis password, keep them 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default location.
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			return LoadFromPath(tomlPath)
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			return LoadFromPath(jsonPath)
		}
	}

	cfg := Default()
	return finish(cfg)
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finish(cfg)
}

// finish applies env overrides, defaults and validation.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file into cfg.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// fillDefaults fills zero values that would otherwise disable a feature.
func fillDefaults(cfg *Config) {
	d := Default()

	if cfg.Version == "" {
		cfg.Version = d.Version
	}

	if cfg.Execution.DefaultTimeoutSecs <= 0 {
		cfg.Execution.DefaultTimeoutSecs = d.Execution.DefaultTimeoutSecs
	}
	if cfg.Execution.MaxTimeoutSecs <= 0 {
		cfg.Execution.MaxTimeoutSecs = d.Execution.MaxTimeoutSecs
	}
	if cfg.Execution.MaxOutputChars <= 0 {
		cfg.Execution.MaxOutputChars = d.Execution.MaxOutputChars
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = d.Logging.Format
	}

	if cfg.HTTP.TimeoutSecs <= 0 {
		cfg.HTTP.TimeoutSecs = d.HTTP.TimeoutSecs
	}
	if cfg.HTTP.MaxResponseBytes <= 0 {
		cfg.HTTP.MaxResponseBytes = d.HTTP.MaxResponseBytes
	}
	if cfg.HTTP.RateLimit > 0 && cfg.HTTP.RateBurst <= 0 {
		cfg.HTTP.RateBurst = d.HTTP.RateBurst
	}

	b := &cfg.Binaries
	for _, pair := range []struct {
		field *string
		def   string
	}{
		{&b.GH, d.Binaries.GH},
		{&b.AZ, d.Binaries.AZ},
		{&b.Helm, d.Binaries.Helm},
		{&b.Kubectl, d.Binaries.Kubectl},
		{&b.Bicep, d.Binaries.Bicep},
		{&b.Datadog, d.Binaries.Datadog},
	} {
		if *pair.field == "" {
			*pair.field = pair.def
		}
	}

	if cfg.Kubernetes.ContextMode == "" {
		cfg.Kubernetes.ContextMode = d.Kubernetes.ContextMode
	}
	if cfg.Kubernetes.TokenPath == "" {
		cfg.Kubernetes.TokenPath = d.Kubernetes.TokenPath
	}
	if cfg.Kubernetes.CACertPath == "" {
		cfg.Kubernetes.CACertPath = d.Kubernetes.CACertPath
	}
	if cfg.Kubernetes.Server == "" {
		cfg.Kubernetes.Server = d.Kubernetes.Server
	}

	if cfg.Observe.MaxLines <= 0 {
		cfg.Observe.MaxLines = d.Observe.MaxLines
	}
	if cfg.Observe.MaxChars <= 0 {
		cfg.Observe.MaxChars = d.Observe.MaxChars
	}

	if cfg.ArgoCD.CacheBackend == "" {
		cfg.ArgoCD.CacheBackend = d.ArgoCD.CacheBackend
	}
	if cfg.ArgoCD.Scheme == "" {
		cfg.ArgoCD.Scheme = d.ArgoCD.Scheme
	}
	if cfg.ArgoCD.TimeoutSecs <= 0 {
		cfg.ArgoCD.TimeoutSecs = d.ArgoCD.TimeoutSecs
	}
	if cfg.ArgoCD.SyncTimeoutSecs <= 0 {
		cfg.ArgoCD.SyncTimeoutSecs = d.ArgoCD.SyncTimeoutSecs
	}
	if cfg.ArgoCD.PollIntervalSecs <= 0 {
		cfg.ArgoCD.PollIntervalSecs = d.ArgoCD.PollIntervalSecs
	}
	if cfg.ArgoCD.MaxPolls <= 0 {
		cfg.ArgoCD.MaxPolls = d.ArgoCD.MaxPolls
	}

	if cfg.Confluence.DefaultLimit <= 0 {
		cfg.Confluence.DefaultLimit = d.Confluence.DefaultLimit
	}
	if cfg.Confluence.TimeoutSecs <= 0 {
		cfg.Confluence.TimeoutSecs = d.Confluence.TimeoutSecs
	}

	if cfg.S3.Endpoint == "" {
		cfg.S3.Endpoint = d.S3.Endpoint
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# clitools configuration file\n")
	buf.WriteString("# Generated by clitools - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Execution.MaxTimeoutSecs < c.Execution.DefaultTimeoutSecs {
		errs = append(errs, ValidationError{
			Field:   "execution.max_timeout_secs",
			Message: fmt.Sprintf("must be >= default_timeout_secs (%d)", c.Execution.DefaultTimeoutSecs),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}

	validFormats := map[string]bool{"text": true, "json": true, "logfmt": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: text, json, logfmt", c.Logging.Format),
		})
	}

	for tool, level := range c.Permissions.Overrides {
		if !validPermissionLevel(level) {
			errs = append(errs, ValidationError{
				Field:   "permissions.overrides." + tool,
				Message: fmt.Sprintf("invalid level '%s', must be one of: %s", level, strings.Join(PermissionLevels, ", ")),
			})
		}
	}

	if c.HTTP.RateLimit < 0 {
		errs = append(errs, ValidationError{
			Field:   "http.rate_limit",
			Message: "must not be negative",
		})
	}

	switch c.Kubernetes.ContextMode {
	case "in-cluster", "kubeconfig":
	default:
		errs = append(errs, ValidationError{
			Field:   "kubernetes.context_mode",
			Message: fmt.Sprintf("invalid mode '%s', must be one of: in-cluster, kubeconfig", c.Kubernetes.ContextMode),
		})
	}

	if c.Observe.BaseURL != "" {
		if err := validateURL(c.Observe.BaseURL); err != nil {
			errs = append(errs, ValidationError{Field: "observe.base_url", Message: err.Error()})
		}
	}

	switch c.ArgoCD.CacheBackend {
	case "file":
	case "redis":
		if c.ArgoCD.RedisURL == "" {
			errs = append(errs, ValidationError{
				Field:   "argocd.redis_url",
				Message: "required when cache_backend is redis",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "argocd.cache_backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, redis", c.ArgoCD.CacheBackend),
		})
	}

	if c.ArgoCD.Scheme != "http" && c.ArgoCD.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "argocd.scheme",
			Message: fmt.Sprintf("invalid scheme '%s', must be http or https", c.ArgoCD.Scheme),
		})
	}

	if strings.Contains(c.S3.Endpoint, "://") {
		errs = append(errs, ValidationError{
			Field:   "s3.endpoint",
			Message: "must be host[:port] without a scheme (use s3.use_ssl)",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validPermissionLevel(level string) bool {
	for _, l := range PermissionLevels {
		if strings.EqualFold(level, l) {
			return true
		}
	}
	return false
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("URL must include a host")
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies CLITOOLS_* environment variables on top of the file.
func (c *Config) ApplyEnvOverrides() {
	if level := os.Getenv("CLITOOLS_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	if format := os.Getenv("CLITOOLS_LOG_FORMAT"); format != "" {
		c.Logging.Format = strings.ToLower(format)
	}

	if timeout := os.Getenv("CLITOOLS_TIMEOUT"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil && secs > 0 {
			c.Execution.DefaultTimeoutSecs = secs
		}
	}
	if approve := os.Getenv("CLITOOLS_AUTO_APPROVE"); approve != "" {
		if v, err := util.ParseBool(approve); err == nil {
			c.Execution.AutoApprove = v
		}
	}

	if history := os.Getenv("CLITOOLS_HISTORY"); history != "" {
		if v, err := util.ParseBool(history); err == nil {
			c.History.Enabled = v
		}
	}

	if mode := os.Getenv("CLITOOLS_KUBE_CONTEXT_MODE"); mode != "" {
		c.Kubernetes.ContextMode = mode
	}

	if base := os.Getenv("CLITOOLS_OBSERVE_BASE_URL"); base != "" {
		c.Observe.BaseURL = base
	}

	if ws := os.Getenv("CLITOOLS_ARGOCD_WORKSPACE"); ws != "" {
		c.ArgoCD.Workspace = ws
	}
	if backend := os.Getenv("CLITOOLS_ARGOCD_CACHE_BACKEND"); backend != "" {
		c.ArgoCD.CacheBackend = strings.ToLower(backend)
	}
	if redisURL := os.Getenv("CLITOOLS_REDIS_URL"); redisURL != "" {
		c.ArgoCD.RedisURL = redisURL
	}

	if endpoint := os.Getenv("CLITOOLS_S3_ENDPOINT"); endpoint != "" {
		c.S3.Endpoint = endpoint
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		c.S3.Region = region
	} else if region := os.Getenv("AWS_DEFAULT_REGION"); region != "" && c.S3.Region == "" {
		c.S3.Region = region
	}
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// DefaultTimeout returns the default tool timeout.
func (c *Config) DefaultTimeout() time.Duration {
	return time.Duration(c.Execution.DefaultTimeoutSecs) * time.Second
}

// MaxTimeout returns the maximum tool timeout.
func (c *Config) MaxTimeout() time.Duration {
	return time.Duration(c.Execution.MaxTimeoutSecs) * time.Second
}

// HistoryPath returns the resolved history database path.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// ArgoCDWorkspace returns the directory holding the ArgoCD cache.
// Without an explicit setting, /workspace/argocd-data is used when /workspace
// exists (agent containers) and $CLITOOLS_HOME/argocd-data otherwise.
func (c *Config) ArgoCDWorkspace() (string, error) {
	if c.ArgoCD.Workspace != "" {
		return c.ArgoCD.Workspace, nil
	}
	if info, err := os.Stat("/workspace"); err == nil && info.IsDir() {
		return "/workspace/argocd-data", nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "argocd-data"), nil
}

// DogrcPath returns where Datadog credentials are written.
func (c *Config) DogrcPath() (string, error) {
	if c.Datadog.DogrcPath != "" {
		return c.Datadog.DogrcPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".dogrc"), nil
}
