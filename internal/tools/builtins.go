// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/config"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/restapi"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/runner"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/s3store"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Deps are the collaborators shared by the built-in tools.
type Deps struct {
	// Config supplies binaries, endpoints and limits; nil means config.Default()
	Config *config.Config

	// Runner executes wrapped CLIs; nil means runner.NewExecRunner()
	Runner runner.Runner

	// Getenv reads credentials; nil means the process environment.
	// Pass the same function to Executor.SetGetenv.
	Getenv Getenv

	// HTTPClient replaces the REST transport (tests point it at httptest)
	HTTPClient *http.Client

	// NewUploader builds the S3 uploader; nil means s3store.NewMinioUploader
	NewUploader func(opts s3store.Options) (s3store.Uploader, error)

	// TempDir holds per-call scratch files; empty means os.TempDir()
	TempDir string
}

func (d *Deps) withDefaults() *Deps {
	out := *d
	if out.Config == nil {
		out.Config = config.Default()
	}
	if out.Runner == nil {
		out.Runner = runner.NewExecRunner()
	}
	if out.Getenv == nil {
		out.Getenv = OSGetenv
	}
	if out.NewUploader == nil {
		out.NewUploader = func(opts s3store.Options) (s3store.Uploader, error) {
			return s3store.NewMinioUploader(opts)
		}
	}
	if out.TempDir == "" {
		out.TempDir = os.TempDir()
	}
	return &out
}

// env returns the value of a required variable. The executor has already
// checked it is set.
func (d *Deps) env(v EnvVar) string {
	val, _ := v.Lookup(d.Getenv)
	return val
}

// newAPI returns a REST client for baseURL with the configured limits.
// timeout overrides http.timeout_secs when positive.
func (d *Deps) newAPI(baseURL string, timeout time.Duration) *restapi.Client {
	api := restapi.New(baseURL)
	if d.HTTPClient != nil {
		// Copy so per-tool timeouts do not leak into the shared client
		hc := *d.HTTPClient
		api.WithHTTPClient(&hc)
	}
	if timeout <= 0 {
		timeout = time.Duration(d.Config.HTTP.TimeoutSecs) * time.Second
	}
	return api.WithTimeout(timeout).
		WithRateLimit(d.Config.HTTP.RateLimit, d.Config.HTTP.RateBurst).
		WithMaxResponseSize(d.Config.HTTP.MaxResponseBytes)
}

// =============================================================================
// REGISTRATION
// =============================================================================

// RegisterBuiltins registers every wrapper tool with r.
func RegisterBuiltins(r *Registry, deps Deps) {
	d := deps.withDefaults()

	for _, tool := range []*Tool{
		githubTool(d),
		azureCLITool(d),
		azureSubscriptionsTool(d),
		helmTool(d),
		datadogTool(d),
		bicepTool(d),
		observeCommandTool(d),
		observeQueryTool(d),
		confluenceSearchTool(d),
		processCSVTool(d),
	} {
		r.Register(tool)
	}
	for _, tool := range argocdTools(d) {
		r.Register(tool)
	}
}

// ApplyPermissions installs the configured overrides and always-allow
// entries. Names that are not registered are reported so a typo does not
// leave a tool at its default level.
func ApplyPermissions(r *Registry, cfg config.PermissionsConfig) error {
	var errs []error
	for _, name := range cfg.AlwaysAllow {
		if r.Get(name) == nil {
			errs = append(errs, fmt.Errorf("permissions.always_allow: unknown tool %q", name))
			continue
		}
		r.SetAlwaysAllow(name, true)
	}
	for name, value := range cfg.Overrides {
		if r.Get(name) == nil {
			errs = append(errs, fmt.Errorf("permissions.overrides: unknown tool %q", name))
			continue
		}
		level, err := ParsePermissionLevel(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("permissions.overrides.%s: %w", name, err))
			continue
		}
		r.SetPermissionOverride(name, level)
	}
	return errors.Join(errs...)
}

// =============================================================================
// CREDENTIALS
// =============================================================================

var (
	envGHToken = EnvVar{
		Name:         "GH_TOKEN",
		Alternatives: []string{"GITHUB_TOKEN"},
		Hint:         "a GitHub personal access token or app token",
	}

	envAzureClientID     = EnvVar{Name: "AZURE_CLIENT_ID", Hint: "service principal application (client) ID"}
	envAzureClientSecret = EnvVar{Name: "AZURE_CLIENT_SECRET", Hint: "service principal client secret"}
	envAzureTenantID     = EnvVar{Name: "AZURE_TENANT_ID", Hint: "Azure AD tenant ID"}
	azureEnv             = []EnvVar{envAzureClientID, envAzureClientSecret, envAzureTenantID}

	envDDAPIKey = EnvVar{
		Name: "DD_API_KEY",
		Hint: "export DD_API_KEY='your-api-key-here' (Datadog: Settings → API Keys → Create API Key)",
	}
	envDDAppKey = EnvVar{
		Name: "DD_APP_KEY",
		Hint: "export DD_APP_KEY='your-app-key-here' (Datadog: Settings → Application Keys → Create Application Key)",
	}
	envDDSite = EnvVar{
		Name: "DD_SITE",
		Hint: "export DD_SITE='datadoghq.com' (US), 'datadoghq.eu' (EU) or 'us3.datadoghq.com' (US3)",
	}

	envObserveAPIKey     = EnvVar{Name: "OBSERVE_API_KEY", Hint: "Observe API token"}
	envObserveCustomerID = EnvVar{Name: "OBSERVE_CUSTOMER_ID", Hint: "numeric Observe customer ID"}

	envArgoCDToken  = EnvVar{Name: "ARGOCD_TOKEN", Hint: "ArgoCD API token (argocd account generate-token)"}
	envArgoCDServer = EnvVar{Name: "ARGOCD_SERVER", Hint: "ArgoCD server host, e.g. argocd.example.com"}

	envConfluenceURL      = EnvVar{Name: "CONFLUENCE_URL", Hint: "https://<site>.atlassian.net/wiki"}
	envConfluenceUsername = EnvVar{Name: "CONFLUENCE_USERNAME", Hint: "Atlassian account email"}
	envConfluenceToken    = EnvVar{Name: "CONFLUENCE_API_TOKEN", Hint: "Atlassian API token"}

	envAWSAccessKeyID     = EnvVar{Name: "AWS_ACCESS_KEY_ID", Hint: "S3 access key (or set s3.use_iam)"}
	envAWSSecretAccessKey = EnvVar{Name: "AWS_SECRET_ACCESS_KEY", Hint: "S3 secret key (or set s3.use_iam)"}
)

// =============================================================================
// RESULT HELPERS
// =============================================================================

// failed reports a call that ran and did not succeed.
func failed(output string, code int, err error) Result {
	if code == 0 {
		code = ExitFailure
	}
	return Result{Success: false, Output: output, Error: err.Error(), ExitCode: code}
}

// usageResult reports parameters the tool could not use before anything ran.
func usageResult(output string, err error) Result {
	return Result{Success: false, Output: output, Error: err.Error(), ExitCode: ExitUsage}
}

// commandError explains a ParseCommandLine failure.
func commandError(binary string, err error) Result {
	var opErr *ShellOperatorError
	var b strings.Builder
	switch {
	case errors.Is(err, ErrEmptyCommand):
		fmt.Fprintf(&b, "❌ Command argument is required\nUsage: Pass any '%s' command as the 'command' argument\n", binary)
	case errors.As(err, &opErr):
		fmt.Fprintf(&b, "❌ %v\n", err)
	default:
		fmt.Fprintf(&b, "❌ Invalid command: %v\n", err)
	}
	return usageResult(b.String(), err)
}
