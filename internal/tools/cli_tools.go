// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/ctxlog"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/runner"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/util"
)

const rule = "----------------------------------------"

// commandParam is the free-form argument string shared by the passthroughs.
func commandParam(description string) Parameter {
	return Parameter{Name: "command", Type: "string", Required: true, Description: description}
}

// writeOutput appends the wrapped process output, newline terminated.
func writeOutput(b *strings.Builder, out *runner.Outcome) {
	if out == nil {
		return
	}
	if s := out.Combined(); s != "" {
		b.WriteString(s)
		if !strings.HasSuffix(s, "\n") {
			b.WriteString("\n")
		}
	}
}

// writeFooter closes a bannered command with its status line.
func writeFooter(b *strings.Builder, exitCode int) {
	b.WriteString(rule + "\n")
	if exitCode == 0 {
		b.WriteString("✅ Command executed successfully\n")
	} else {
		fmt.Fprintf(b, "❌ Command failed with exit code: %d\n", exitCode)
	}
}

// runFailure renders a runner error: the binary is missing, timed out or
// could not be started.
func runFailure(b *strings.Builder, binary string, out *runner.Outcome, err error) Result {
	writeOutput(b, out)
	code := ExitFailure
	if out != nil && out.ExitCode != 0 {
		code = out.ExitCode
	}
	switch {
	case errors.Is(err, runner.ErrNotInstalled):
		fmt.Fprintf(b, "❌ %s is not installed or not on PATH\n", binary)
		code = runner.ExitNotInstalled
	case errors.Is(err, runner.ErrTimeout):
		fmt.Fprintf(b, "❌ %s timed out\n", binary)
		code = runner.ExitTimeout
	default:
		fmt.Fprintf(b, "❌ Failed to run %s: %v\n", binary, err)
	}
	return failed(b.String(), code, err)
}

// completed turns a finished outcome into a Result with its exit code.
func completed(b *strings.Builder, binary string, out *runner.Outcome) Result {
	if out.Success() {
		return Result{Success: true, Output: b.String()}
	}
	return failed(b.String(), out.ExitCode, fmt.Errorf("%s exited with code %d", binary, out.ExitCode))
}

// =============================================================================
// GITHUB CLI
// =============================================================================

func githubTool(d *Deps) *Tool {
	return &Tool{
		Name: "github_cli",
		Description: "Execute GitHub CLI commands. Pass any 'gh' command as the 'command' argument. " +
			"The tool handles authentication and returns the output. Examples: 'repo list', " +
			"'issue create --title \"Bug\" --body \"Description\"', 'pr list --state open'.",
		ShortDescription: "Execute any gh command",
		Schema: Schema{Parameters: []Parameter{
			commandParam("The GitHub CLI command to execute (without 'gh' prefix), e.g. 'pr list --state open'"),
		}},
		RequiredEnv: []EnvVar{envGHToken},
		RiskLevel:   RiskHigh,
		Permission:  PermissionAsk,
		Executor:    &GitHubExecutor{deps: d},
	}
}

// GitHubExecutor runs gh with GH_TOKEN exported.
type GitHubExecutor struct {
	deps *Deps
}

func (e *GitHubExecutor) Execute(ctx context.Context, params map[string]interface{}) (Result, error) {
	bin := e.deps.Config.Binaries.GH
	command := getStringParam(params, "command", "")
	args, err := ParseCommandLine(command, bin)
	if err != nil {
		return commandError("gh", err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔧 Executing GitHub CLI command: gh %s\n%s\n", strings.Join(args, " "), rule)

	out, err := e.deps.Runner.Run(ctx, runner.Command{
		Name: bin,
		Args: args,
		Env:  []string{"GH_TOKEN=" + e.deps.env(envGHToken)},
	})
	if err != nil {
		return runFailure(&b, bin, out, err), nil
	}
	writeOutput(&b, out)
	writeFooter(&b, out.ExitCode)
	return completed(&b, bin, out), nil
}

// =============================================================================
// AZURE CLI
// =============================================================================

func azureCLITool(d *Deps) *Tool {
	return &Tool{
		Name: "azure_cli",
		Description: "Execute Azure CLI commands. Pass any 'az' command as the 'command' argument. " +
			"The tool authenticates with the service principal and returns the output. Use --subscription " +
			"in your commands to pick a subscription. Examples: 'group list --subscription mySubscription', " +
			"'monitor app-insights query --app myApp --analytics-query \"requests | limit 10\"'.",
		ShortDescription: "Execute any az command as the service principal",
		Schema: Schema{Parameters: []Parameter{
			commandParam("The Azure CLI command to execute (without 'az' prefix). Include --subscription to choose a subscription"),
		}},
		RequiredEnv: azureEnv,
		RiskLevel:   RiskHigh,
		Permission:  PermissionAsk,
		Executor:    &AzureExecutor{deps: d},
	}
}

func azureSubscriptionsTool(d *Deps) *Tool {
	return &Tool{
		Name: "azure_subscriptions_list",
		Description: "List all Azure subscriptions available to the authenticated service principal. " +
			"Use this to get subscription IDs for the --subscription parameter of azure_cli.",
		ShortDescription: "List available Azure subscriptions",
		RequiredEnv:      azureEnv,
		RiskLevel:        RiskLow,
		Permission:       PermissionAuto,
		Executor:         &AzureExecutor{deps: d, listSubscriptions: true},
	}
}

// AzureExecutor logs in with the service principal, then runs az.
type AzureExecutor struct {
	deps              *Deps
	listSubscriptions bool
}

func (e *AzureExecutor) Execute(ctx context.Context, params map[string]interface{}) (Result, error) {
	bin := e.deps.Config.Binaries.AZ

	var args []string
	if e.listSubscriptions {
		args = []string{"account", "list", "--output", "table"}
	} else {
		var err error
		args, err = ParseCommandLine(getStringParam(params, "command", ""), bin)
		if err != nil {
			res := commandError("az", err)
			res.Output += "\n💡 Use azure_subscriptions_list tool first to see available subscriptions\n"
			return res, nil
		}
	}

	var b strings.Builder
	if res, ok := e.deps.azureLogin(ctx, &b); !ok {
		return res, nil
	}

	if e.listSubscriptions {
		fmt.Fprintf(&b, "📋 Listing available Azure subscriptions:\n%s\n", rule)
	} else {
		fmt.Fprintf(&b, "🔧 Executing Azure CLI command: az %s\n%s\n", strings.Join(args, " "), rule)
	}

	out, err := e.deps.Runner.Run(ctx, runner.Command{Name: bin, Args: args})
	if err != nil {
		return runFailure(&b, bin, out, err), nil
	}
	writeOutput(&b, out)

	if e.listSubscriptions {
		b.WriteString(rule + "\n")
		b.WriteString("💡 To use a specific subscription in azure_cli commands, add: --subscription 'subscription-id-or-name'\n")
	} else {
		writeFooter(&b, out.ExitCode)
	}
	return completed(&b, bin, out), nil
}

// azureLogin signs in as the service principal. Login output is not shown;
// it echoes account details. ok is false when the caller must stop with res.
func (d *Deps) azureLogin(ctx context.Context, b *strings.Builder) (res Result, ok bool) {
	bin := d.Config.Binaries.AZ
	b.WriteString("🔐 Authenticating with Azure...\n")

	out, err := d.Runner.Run(ctx, runner.Command{
		Name: bin,
		Args: []string{
			"login", "--service-principal",
			"--username", d.env(envAzureClientID),
			"--password", d.env(envAzureClientSecret),
			"--tenant", d.env(envAzureTenantID),
		},
	})
	if err != nil {
		return runFailure(b, bin, out, err), false
	}
	if !out.Success() {
		ctxlog.FromContext(ctx).Warn("azure login failed", "exit_code", out.ExitCode)
		b.WriteString("❌ Azure authentication failed\n")
		return failed(b.String(), out.ExitCode, errors.New("azure authentication failed")), false
	}
	return Result{}, true
}

// =============================================================================
// HELM
// =============================================================================

func helmTool(d *Deps) *Tool {
	return &Tool{
		Name:             "helm_cli_command",
		Description:      "Execute any Helm CLI command against the cluster the tool runs in.",
		ShortDescription: "Execute any helm command",
		Schema: Schema{Parameters: []Parameter{
			commandParam("The command to pass to the Helm CLI (e.g., 'list', 'install my-release ./chart', 'upgrade my-release ./chart')"),
		}},
		RiskLevel:  RiskHigh,
		Permission: PermissionAsk,
		Executor:   &HelmExecutor{deps: d},
	}
}

// HelmExecutor runs helm, first pointing it at the in-cluster context unless
// kubernetes.context_mode is "kubeconfig".
type HelmExecutor struct {
	deps *Deps
}

func (e *HelmExecutor) Execute(ctx context.Context, params map[string]interface{}) (Result, error) {
	bin := e.deps.Config.Binaries.Helm
	args, err := ParseCommandLine(getStringParam(params, "command", ""), bin)
	if err != nil {
		return commandError("helm", err), nil
	}

	var b strings.Builder
	var env []string
	if e.deps.Config.Kubernetes.ContextMode == "in-cluster" {
		kubeconfig, cleanup, res, ok := e.deps.injectKubeContext(ctx, &b)
		if !ok {
			return res, nil
		}
		defer cleanup()
		env = append(env, "KUBECONFIG="+kubeconfig)
	}

	fmt.Fprintf(&b, "=== Executing Helm CLI Command ===\nCommand: helm %s\n\n", strings.Join(args, " "))

	out, err := e.deps.Runner.Run(ctx, runner.Command{Name: bin, Args: args, Env: env})
	if err != nil {
		return runFailure(&b, bin, out, err), nil
	}
	writeOutput(&b, out)
	return completed(&b, bin, out), nil
}

// injectKubeContext writes an "in-cluster" context built from the service
// account token and CA into a private temporary kubeconfig. The caller runs
// cleanup once helm exits.
//
// SECURITY: the token never lands in the shared ~/.kube/config.
func (d *Deps) injectKubeContext(ctx context.Context, b *strings.Builder) (kubeconfig string, cleanup func(), res Result, ok bool) {
	k := d.Config.Kubernetes
	token, tokenErr := os.ReadFile(k.TokenPath)
	_, certErr := os.Stat(k.CACertPath)
	if tokenErr != nil || certErr != nil {
		fmt.Fprintf(b, "Error: Kubernetes context token or cert file not found at %s or %s respectively.\n", k.TokenPath, k.CACertPath)
		err := errors.Join(tokenErr, certErr)
		return "", nil, failed(b.String(), ExitFailure, err), false
	}

	dir, err := os.MkdirTemp(d.TempDir, "clitools-kube-")
	if err != nil {
		fmt.Fprintf(b, "❌ Failed to create kubeconfig directory: %v\n", err)
		return "", nil, failed(b.String(), ExitFailure, err), false
	}
	cleanup = func() { os.RemoveAll(dir) }
	kubeconfig = filepath.Join(dir, "config")

	kubectl := d.Config.Binaries.Kubectl
	steps := [][]string{
		{"config", "set-cluster", "in-cluster", "--server=" + k.Server, "--certificate-authority=" + k.CACertPath},
		{"config", "set-credentials", "in-cluster", "--token=" + strings.TrimSpace(string(token))},
		{"config", "set-context", "in-cluster", "--cluster=in-cluster", "--user=in-cluster"},
		{"config", "use-context", "in-cluster"},
	}
	for _, args := range steps {
		out, err := d.Runner.Run(ctx, runner.Command{Name: kubectl, Args: args, Env: []string{"KUBECONFIG=" + kubeconfig}})
		if err != nil {
			cleanup()
			// Step output is dropped; set-credentials output may echo the token
			return "", nil, runFailure(b, kubectl, nil, err), false
		}
		if !out.Success() {
			cleanup()
			fmt.Fprintf(b, "❌ Failed to configure Kubernetes context: kubectl config %s exited with code %d\n", args[1], out.ExitCode)
			return "", nil, failed(b.String(), out.ExitCode, fmt.Errorf("kubectl config %s failed", args[1])), false
		}
	}
	return kubeconfig, cleanup, Result{}, true
}

// =============================================================================
// DATADOG
// =============================================================================

func datadogTool(d *Deps) *Tool {
	return &Tool{
		Name:             "datadog_cli_command",
		Description:      "Execute any Datadog CLI command (e.g., 'monitor show_all', 'dashboard show_all').",
		ShortDescription: "Execute any datadog command",
		Schema: Schema{Parameters: []Parameter{
			commandParam("The command to pass to the Datadog CLI (e.g., 'monitor show_all')"),
		}},
		RequiredEnv: []EnvVar{envDDAPIKey, envDDAppKey, envDDSite},
		RiskLevel:   RiskHigh,
		Permission:  PermissionAsk,
		Executor:    &DatadogExecutor{deps: d},
	}
}

// DatadogExecutor writes the .dogrc credentials file, then runs datadog.
type DatadogExecutor struct {
	deps *Deps
}

// Dogrc renders the Datadog CLI configuration file.
func Dogrc(apiKey, appKey, site string) string {
	site = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(site), "https://"), "http://")
	site = strings.TrimPrefix(strings.TrimSuffix(site, "/"), "api.")
	return fmt.Sprintf("[Connection]\napikey = %s\nappkey = %s\napi_host = https://api.%s\n", apiKey, appKey, site)
}

func (e *DatadogExecutor) Execute(ctx context.Context, params map[string]interface{}) (Result, error) {
	cfg := e.deps.Config
	bin := cfg.Binaries.Datadog
	args, err := ParseCommandLine(getStringParam(params, "command", ""), bin)
	if err != nil {
		return commandError("datadog", err), nil
	}

	var b strings.Builder
	path, err := cfg.DogrcPath()
	if err != nil {
		fmt.Fprintf(&b, "❌ Error: %v\n", err)
		return failed(b.String(), ExitFailure, err), nil
	}
	// SECURITY: the file holds both keys
	dogrc := Dogrc(e.deps.env(envDDAPIKey), e.deps.env(envDDAppKey), e.deps.env(envDDSite))
	if err := util.AtomicWriteFileWithDir(path, []byte(dogrc), 0600, 0700); err != nil {
		fmt.Fprintf(&b, "❌ Error: Datadog configuration file could not be written: %v\n", err)
		return failed(b.String(), ExitFailure, err), nil
	}
	b.WriteString("✅ Datadog configuration file found\n")

	fmt.Fprintf(&b, "=== Executing Datadog CLI Command ===\nCommand: datadog %s\n\n", strings.Join(args, " "))

	// A non-default location must be named explicitly
	if cfg.Datadog.DogrcPath != "" {
		args = append([]string{"--config", path}, args...)
	}
	out, err := e.deps.Runner.Run(ctx, runner.Command{Name: bin, Args: args})
	if err != nil {
		return runFailure(&b, bin, out, err), nil
	}
	writeOutput(&b, out)
	return completed(&b, bin, out), nil
}

// =============================================================================
// BICEP
// =============================================================================

func bicepTool(d *Deps) *Tool {
	return &Tool{
		Name: "bicep_template",
		Description: "Process Bicep templates: authenticate with Azure and build the template to an ARM template. " +
			"Pass a Bicep template file path, URL, or template content as the 'template' argument.",
		ShortDescription: "Build a Bicep template into an ARM template",
		Schema: Schema{Parameters: []Parameter{{
			Name:        "template",
			Type:        "string",
			Required:    true,
			Description: "Bicep template to process: a .bicep file path, an http(s) URL, or the template content itself",
		}}},
		RequiredEnv: azureEnv,
		RiskLevel:   RiskMedium,
		Permission:  PermissionAsk,
		Executor:    &BicepExecutor{deps: d},
	}
}

// BicepExecutor resolves a template, then runs bicep build.
type BicepExecutor struct {
	deps *Deps
}

func (e *BicepExecutor) Execute(ctx context.Context, params map[string]interface{}) (Result, error) {
	template := getStringParam(params, "template", "")

	var b strings.Builder
	b.WriteString("🔧 Setting up Azure CLI and Bicep environment...\n")
	if res, ok := e.deps.azureLogin(ctx, &b); !ok {
		return res, nil
	}

	// On success the work dir is kept so the ARM template can be deployed
	workDir, err := os.MkdirTemp(e.deps.TempDir, "clitools-bicep-")
	if err != nil {
		fmt.Fprintf(&b, "❌ Failed to create work directory: %v\n", err)
		return failed(b.String(), ExitFailure, err), nil
	}
	keep := false
	defer func() {
		if !keep {
			os.RemoveAll(workDir)
		}
	}()

	templateFile, res, ok := e.resolveTemplate(ctx, &b, template, workDir)
	if !ok {
		return res, nil
	}

	bin := e.deps.Config.Binaries.Bicep
	armTemplate := filepath.Join(workDir, "template.json")
	fmt.Fprintf(&b, "🔍 Validating Bicep template...\nTemplate file: %s\n%s\n", templateFile, rule)
	b.WriteString("🔨 Building Bicep template...\n")

	out, err := e.deps.Runner.Run(ctx, runner.Command{
		Name: bin,
		Args: []string{"build", templateFile, "--outfile", armTemplate},
	})
	if err != nil {
		return runFailure(&b, bin, out, err), nil
	}
	writeOutput(&b, out)
	if !out.Success() {
		b.WriteString("❌ Bicep template build failed\n")
		return failed(b.String(), out.ExitCode, fmt.Errorf("bicep build exited with code %d", out.ExitCode)), nil
	}

	arm, err := os.ReadFile(armTemplate)
	if err != nil {
		fmt.Fprintf(&b, "❌ Generated ARM template not found: %v\n", err)
		return failed(b.String(), ExitFailure, err), nil
	}
	b.WriteString("✅ Bicep template built successfully\n📋 Generated ARM template:\n")
	var pretty bytes.Buffer
	if json.Indent(&pretty, arm, "", "  ") == nil {
		b.Write(pretty.Bytes())
	} else {
		b.Write(arm)
	}
	b.WriteString("\n" + rule + "\n")
	b.WriteString("✅ Bicep template processing completed successfully\n")
	b.WriteString("💡 To deploy this template, you can use the generated ARM template with Azure CLI:\n")
	fmt.Fprintf(&b, "   az deployment group create --resource-group <resource-group> --template-file %s\n", armTemplate)
	keep = true
	return Result{Success: true, Output: b.String()}, nil
}

// resolveTemplate returns a local .bicep file for template: a downloaded
// URL, an existing path, or the content written to workDir.
func (e *BicepExecutor) resolveTemplate(ctx context.Context, b *strings.Builder, template, workDir string) (string, Result, bool) {
	trimmed := strings.TrimSpace(template)

	switch {
	case strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://"):
		b.WriteString("🌐 Downloading Bicep template from URL...\n")
		data, err := e.deps.newAPI("", 0).Download(ctx, trimmed)
		if err != nil {
			fmt.Fprintf(b, "❌ Failed to download template from URL: %s\n", trimmed)
			return "", failed(b.String(), ExitFailure, err), false
		}
		path := filepath.Join(workDir, "downloaded_template.bicep")
		if err := os.WriteFile(path, data, 0600); err != nil {
			fmt.Fprintf(b, "❌ Failed to save downloaded template: %v\n", err)
			return "", failed(b.String(), ExitFailure, err), false
		}
		b.WriteString("✅ Template downloaded successfully\n")
		return path, Result{}, true

	case isRegularFile(trimmed):
		fmt.Fprintf(b, "📁 Using Bicep template file: %s\n", trimmed)
		return trimmed, Result{}, true

	default:
		b.WriteString("📝 Processing Bicep template content...\n")
		path := filepath.Join(workDir, "template_content.bicep")
		if err := os.WriteFile(path, []byte(template+"\n"), 0600); err != nil {
			fmt.Fprintf(b, "❌ Failed to write template content: %v\n", err)
			return "", failed(b.String(), ExitFailure, err), false
		}
		b.WriteString("✅ Template content written to temporary file\n")
		return path, Result{}, true
	}
}

func isRegularFile(path string) bool {
	if path == "" || strings.ContainsAny(path, "\n{") {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
