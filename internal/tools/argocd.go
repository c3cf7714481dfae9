// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/argocd"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/ctxlog"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/restapi"
)

// =============================================================================
// ARGOCD TOOLS
// =============================================================================

var argocdEnv = []EnvVar{envArgoCDToken, envArgoCDServer}

func refreshParam() Parameter {
	return Parameter{Name: "refresh", Type: "boolean", Default: false, Description: "Bypass the workspace cache and fetch fresh data"}
}

func appNameParam() Parameter {
	return Parameter{Name: "app_name", Type: "string", Required: true, Description: "ArgoCD application name"}
}

func argocdTools(d *Deps) []*Tool {
	return []*Tool{
		{
			Name:             "argocd_list_applications",
			Description:      "List ArgoCD applications with optional project, health and sync filters. Responses are cached in the workspace for 15 minutes.",
			ShortDescription: "List ArgoCD applications",
			Schema: Schema{Parameters: []Parameter{
				{Name: "limit", Type: "number", Default: float64(50), Description: "Maximum applications to show"},
				{Name: "offset", Type: "number", Default: float64(0), Description: "Applications to skip"},
				{Name: "project_filter", Type: "string", Description: "Only applications in this project"},
				{Name: "health_filter", Type: "string", Description: "Only applications with this health status (Healthy, Degraded, ...)"},
				{Name: "sync_filter", Type: "string", Description: "Only applications with this sync status (Synced, OutOfSync)"},
				{Name: "output_format", Type: "string", Default: "table", Enum: []string{"table", "json", "compact", "summary", "yaml"}},
				refreshParam(),
			}},
			RequiredEnv: argocdEnv,
			RiskLevel:   RiskLow,
			Permission:  PermissionAuto,
			Executor: &ArgoCDExecutor{deps: d, op: func(ctx context.Context, s *argocd.Service, w io.Writer, p map[string]interface{}) error {
				return s.ListApplications(ctx, w, argocd.ListOptions{
					Limit:   getIntParam(p, "limit", 50),
					Offset:  getIntParam(p, "offset", 0),
					Project: getStringParam(p, "project_filter", ""),
					Health:  getStringParam(p, "health_filter", ""),
					Sync:    getStringParam(p, "sync_filter", ""),
					Format:  getStringParam(p, "output_format", "table"),
					Refresh: getBoolParam(p, "refresh", false),
				})
			}},
		},
		{
			Name:             "argocd_get_application",
			Description:      "Show one ArgoCD application: status, source, destination and optionally its resource tree.",
			ShortDescription: "Show an ArgoCD application",
			Schema: Schema{Parameters: []Parameter{
				appNameParam(),
				{Name: "output_format", Type: "string", Default: "detailed", Enum: []string{"basic", "detailed", "json", "resources", "yaml"}},
				{Name: "include_resources", Type: "boolean", Default: true, Description: "Fetch the resource tree"},
				refreshParam(),
			}},
			RequiredEnv: argocdEnv,
			RiskLevel:   RiskLow,
			Permission:  PermissionAuto,
			Executor: &ArgoCDExecutor{deps: d, op: func(ctx context.Context, s *argocd.Service, w io.Writer, p map[string]interface{}) error {
				return s.GetApplication(ctx, w, argocd.GetOptions{
					Name:             getStringParam(p, "app_name", ""),
					Format:           getStringParam(p, "output_format", "detailed"),
					IncludeResources: getBoolParam(p, "include_resources", true),
					Refresh:          getBoolParam(p, "refresh", false),
				})
			}},
		},
		{
			Name:             "argocd_list_clusters",
			Description:      "List clusters registered with ArgoCD and their connection state.",
			ShortDescription: "List ArgoCD clusters",
			Schema: Schema{Parameters: []Parameter{
				{Name: "output_format", Type: "string", Default: "table", Enum: []string{"table", "json", "summary"}},
				refreshParam(),
			}},
			RequiredEnv: argocdEnv,
			RiskLevel:   RiskLow,
			Permission:  PermissionAuto,
			Executor: &ArgoCDExecutor{deps: d, op: func(ctx context.Context, s *argocd.Service, w io.Writer, p map[string]interface{}) error {
				return s.ListClusters(ctx, w, getStringParam(p, "output_format", "table"), getBoolParam(p, "refresh", false))
			}},
		},
		{
			Name:             "argocd_list_repositories",
			Description:      "List repositories connected to ArgoCD, optionally only git or helm repositories.",
			ShortDescription: "List ArgoCD repositories",
			Schema: Schema{Parameters: []Parameter{
				{Name: "repo_type", Type: "string", Default: "all", Enum: []string{"git", "helm", "all"}},
				{Name: "output_format", Type: "string", Default: "table", Enum: []string{"table", "json", "summary"}},
				refreshParam(),
			}},
			RequiredEnv: argocdEnv,
			RiskLevel:   RiskLow,
			Permission:  PermissionAuto,
			Executor: &ArgoCDExecutor{deps: d, op: func(ctx context.Context, s *argocd.Service, w io.Writer, p map[string]interface{}) error {
				return s.ListRepositories(ctx, w, getStringParam(p, "repo_type", "all"), getStringParam(p, "output_format", "table"), getBoolParam(p, "refresh", false))
			}},
		},
		{
			Name:             "argocd_sync_application",
			Description:      "Sync an ArgoCD application, optionally as a dry run or for selected resources, and wait for the operation to finish.",
			ShortDescription: "Sync an ArgoCD application",
			Schema: Schema{Parameters: []Parameter{
				appNameParam(),
				{Name: "dry_run", Type: "boolean", Default: false, Description: "Preview the sync without applying it"},
				{Name: "prune", Type: "boolean", Default: false, Description: "Delete resources no longer defined in git"},
				{Name: "force", Type: "boolean", Default: false, Description: "Force apply"},
				{Name: "resources", Type: "string", Description: "Only these resources, as 'Kind/Name,Kind/Name'"},
				{Name: "wait", Type: "boolean", Default: true, Description: "Poll until the sync finishes"},
			}},
			RequiredEnv: argocdEnv,
			RiskLevel:   RiskHigh,
			Permission:  PermissionAsk,
			PermissionFunc: func(p map[string]interface{}) PermissionLevel {
				if getBoolParam(p, "dry_run", false) {
					return PermissionAuto
				}
				return PermissionAsk
			},
			Executor: &ArgoCDExecutor{deps: d, op: func(ctx context.Context, s *argocd.Service, w io.Writer, p map[string]interface{}) error {
				return s.Sync(ctx, w, argocd.SyncOptions{
					Name:      getStringParam(p, "app_name", ""),
					DryRun:    getBoolParam(p, "dry_run", false),
					Prune:     getBoolParam(p, "prune", false),
					Force:     getBoolParam(p, "force", false),
					Resources: getStringParam(p, "resources", ""),
					Wait:      getBoolParam(p, "wait", true),
				})
			}},
		},
		{
			Name:             "argocd_application_history",
			Description:      "Show an ArgoCD application's deployment history, or roll it back to a previous revision.",
			ShortDescription: "Show history or roll back an application",
			Schema: Schema{Parameters: []Parameter{
				appNameParam(),
				{Name: "action", Type: "string", Default: "history", Enum: []string{"history", "list", "rollback"}},
				{Name: "limit", Type: "number", Default: float64(10), Description: "Maximum history entries"},
				{Name: "revision", Type: "string", Description: "Revision to roll back to (rollback only)"},
				{Name: "output_format", Type: "string", Default: "table", Enum: []string{"table", "json", "summary"}},
			}},
			RequiredEnv: argocdEnv,
			RiskLevel:   RiskHigh,
			Permission:  PermissionAsk,
			PermissionFunc: func(p map[string]interface{}) PermissionLevel {
				if getStringParam(p, "action", "history") == "rollback" {
					return PermissionAsk
				}
				return PermissionAuto
			},
			Executor: &ArgoCDExecutor{deps: d, op: func(ctx context.Context, s *argocd.Service, w io.Writer, p map[string]interface{}) error {
				return s.History(ctx, w, argocd.HistoryOptions{
					Name:     getStringParam(p, "app_name", ""),
					Action:   getStringParam(p, "action", "history"),
					Limit:    getIntParam(p, "limit", 10),
					Revision: getStringParam(p, "revision", ""),
					Format:   getStringParam(p, "output_format", "table"),
				})
			}},
		},
		{
			Name:             "argocd_workspace_manager",
			Description:      "Inspect and maintain the ArgoCD workspace cache: status, list-cache, cleanup (entries older than 24h), clear-cache, stats.",
			ShortDescription: "Manage the ArgoCD workspace cache",
			Schema: Schema{Parameters: []Parameter{
				{Name: "action", Type: "string", Default: "status", Enum: []string{"status", "info", "list-cache", "cleanup", "clear-cache", "stats"}},
			}},
			RiskLevel:  RiskLow,
			Permission: PermissionAuto,
			Executor:   &ArgoCDWorkspaceExecutor{deps: d},
		},
	}
}

// argoOperation runs one service call, writing its report to w.
type argoOperation func(ctx context.Context, s *argocd.Service, w io.Writer, params map[string]interface{}) error

// ArgoCDExecutor binds an operation to a service built per call from the
// environment and config.
type ArgoCDExecutor struct {
	deps *Deps
	op   argoOperation
}

func (e *ArgoCDExecutor) Execute(ctx context.Context, params map[string]interface{}) (Result, error) {
	var b strings.Builder

	cache, closeCache, err := e.deps.argoCache()
	if err != nil {
		fmt.Fprintf(&b, "❌ Workspace cache unavailable: %v\n", err)
		return failed(b.String(), ExitFailure, err), nil
	}
	defer closeCache()

	svc := e.deps.argoService(cache)
	if err := e.op(ctx, svc, &b, params); err != nil {
		res := failed(b.String(), ExitFailure, err)
		var statusErr *restapi.StatusError
		if errors.As(err, &statusErr) {
			res.StatusCode = statusErr.StatusCode
		}
		if errors.Is(err, argocd.ErrInvalidArgument) {
			res.ExitCode = ExitUsage
		}
		return res, nil
	}
	return Result{Success: true, Output: b.String()}, nil
}

// argoService builds a service for the configured server and cache.
func (d *Deps) argoService(cache argocd.Cache) *argocd.Service {
	cfg := d.Config.ArgoCD
	base := argocd.BaseURL(cfg.Scheme, d.env(envArgoCDServer))
	api := d.newAPI(base, time.Duration(cfg.TimeoutSecs)*time.Second)
	client := argocd.NewClient(api, d.env(envArgoCDToken), time.Duration(cfg.SyncTimeoutSecs)*time.Second)

	svc := argocd.NewService(client, cache)
	svc.PollInterval = time.Duration(cfg.PollIntervalSecs) * time.Second
	svc.MaxPolls = cfg.MaxPolls
	return svc
}

// argoCache opens the configured cache backend. The returned func releases it.
func (d *Deps) argoCache() (argocd.Cache, func(), error) {
	cfg := d.Config.ArgoCD
	if cfg.CacheBackend == "redis" {
		rc, err := argocd.NewRedisCache(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { rc.Close() }, nil
	}

	workspace, err := d.Config.ArgoCDWorkspace()
	if err != nil {
		return nil, nil, err
	}
	return argocd.NewFileCache(workspace), func() {}, nil
}

// ArgoCDWorkspaceExecutor runs workspace cache actions. It needs no
// credentials; only the local or redis cache is touched.
type ArgoCDWorkspaceExecutor struct {
	deps *Deps
}

func (e *ArgoCDWorkspaceExecutor) Execute(ctx context.Context, params map[string]interface{}) (Result, error) {
	var b strings.Builder

	cache, closeCache, err := e.deps.argoCache()
	if err != nil {
		fmt.Fprintf(&b, "❌ Workspace cache unavailable: %v\n", err)
		return failed(b.String(), ExitFailure, err), nil
	}
	defer closeCache()

	action := getStringParam(params, "action", "status")
	ctxlog.FromContext(ctx).Debug("argocd workspace", "action", action, "location", cache.Location())
	if err := argocd.NewWorkspace(cache).Run(ctx, &b, action); err != nil {
		code := ExitFailure
		if errors.Is(err, argocd.ErrInvalidArgument) {
			code = ExitUsage
		}
		return failed(b.String(), code, err), nil
	}
	return Result{Success: true, Output: b.String()}, nil
}
