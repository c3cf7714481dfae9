// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package argocd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/ctxlog"
)

var (
	// ErrSyncFailed is returned when a sync operation ends Failed or Error.
	ErrSyncFailed = errors.New("sync failed")

	// ErrUnexpectedResponse is returned for a body that is not the expected shape.
	ErrUnexpectedResponse = errors.New("unexpected response format")

	// ErrInvalidArgument is returned for parameters the API call cannot use.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Default sync-wait polling.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultMaxPolls     = 60
)

// Service implements the ArgoCD tools on top of a Client and a Cache.
// Every operation writes its report to w and returns an error when the
// operation failed. The report is written either way.
type Service struct {
	client *Client
	cache  Cache

	// PollInterval and MaxPolls bound sync waiting
	PollInterval time.Duration
	MaxPolls     int
}

// NewService creates a service. A nil cache disables caching.
func NewService(client *Client, cache Cache) *Service {
	return &Service{
		client:       client,
		cache:        cache,
		PollInterval: DefaultPollInterval,
		MaxPolls:     DefaultMaxPolls,
	}
}

// cached returns the entry for key unless refresh is set or it is older than
// ttl, otherwise fetches and stores it. Cache failures never fail the call.
func (s *Service) cached(ctx context.Context, w io.Writer, key string, ttl time.Duration, refresh bool, label string, fetch func() ([]byte, error)) ([]byte, error) {
	logger := ctxlog.FromContext(ctx)

	if s.cache != nil && !refresh {
		data, ok, err := s.cache.Get(ctx, key, ttl)
		if err != nil {
			logger.Warn("cache read failed", "key", key, "err", err)
		}
		if ok {
			fmt.Fprintf(w, "⚡ Using cached %s from: %s\n", label, key)
			return data, nil
		}
	}

	data, err := fetch()
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(data) > 0 {
		if err := s.cache.Set(ctx, key, data); err != nil {
			logger.Warn("cache write failed", "key", key, "err", err)
		} else {
			fmt.Fprintf(w, "💾 %s cached to workspace: argocd-data/cache/%s\n", capitalize(label), key)
		}
	}
	return data, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// =============================================================================
// APPLICATIONS
// =============================================================================

// ListOptions are the argocd_list_applications parameters.
type ListOptions struct {
	Limit   int
	Offset  int
	Project string
	Health  string
	Sync    string
	Format  string
	Refresh bool
}

type appItem struct {
	raw json.RawMessage
	app Application
}

// ListApplications lists, filters and pages applications.
func (s *Service) ListApplications(ctx context.Context, w io.Writer, opts ListOptions) error {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	fmt.Fprintf(w, "🚀 Fetching ArgoCD applications (limit: %d, offset: %d)...\n", opts.Limit, opts.Offset)

	key := Key(PrefixApplications, strconv.Itoa(opts.Limit), strconv.Itoa(opts.Offset), opts.Project, opts.Health, opts.Sync)
	data, err := s.cached(ctx, w, key, TTLApplications, opts.Refresh, "applications list", func() ([]byte, error) {
		return s.client.ApplicationsRaw(ctx, opts.Project)
	})
	if err != nil {
		fmt.Fprintln(w, "❌ API request failed. Check ARGOCD_SERVER, ARGOCD_TOKEN, and network connectivity.")
		fmt.Fprintf(w, "   %v\n", err)
		return err
	}

	var list rawList
	if err := json.Unmarshal(data, &list); err != nil {
		fmt.Fprintln(w, "⚠️ Unexpected response format")
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	items := make([]appItem, 0, len(list.Items))
	for _, raw := range list.Items {
		var app Application
		if err := json.Unmarshal(raw, &app); err == nil {
			items = append(items, appItem{raw: raw, app: app})
		}
	}

	if opts.Health != "" || opts.Sync != "" {
		fmt.Fprintln(w, "🔍 Applying additional filters...")
		filtered := items[:0]
		for _, it := range items {
			if opts.Health != "" && it.app.Status.Health.Status != opts.Health {
				continue
			}
			if opts.Sync != "" && it.app.Status.Sync.Status != opts.Sync {
				continue
			}
			filtered = append(filtered, it)
		}
		items = filtered
	}
	fmt.Fprintf(w, "📊 Found %d applications\n", len(items))

	page := paginate(items, opts.Offset, opts.Limit)
	return formatApplications(w, page, opts.Format)
}

func paginate(items []appItem, offset, limit int) []appItem {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func formatApplications(w io.Writer, page []appItem, format string) error {
	raws := make([]json.RawMessage, len(page))
	for i, it := range page {
		raws[i] = it.raw
	}

	switch format {
	case "", "table":
		if len(page) == 0 {
			fmt.Fprintln(w, "No applications found")
			return nil
		}
		rows := make([][]string, len(page))
		for i, it := range page {
			a := it.app
			rows[i] = []string{
				a.Metadata.Name,
				or(a.Spec.Project, "default"),
				or(a.Spec.Destination.Server, or(a.Spec.Destination.Name, "unknown")),
				or(a.Spec.Destination.Namespace, "default"),
				or(a.Status.Health.Status, "unknown"),
				or(a.Status.Sync.Status, "unknown"),
				or(a.Spec.Source.RepoURL, "unknown"),
			}
		}
		writeTable(w, []string{"NAME", "PROJECT", "CLUSTER", "NAMESPACE", "HEALTH", "SYNC", "SOURCE"}, rows)
	case "compact":
		for _, it := range page {
			a := it.app
			fmt.Fprintf(w, "%s: %s/%s in %s\n", a.Metadata.Name,
				or(a.Status.Health.Status, "unknown"), or(a.Status.Sync.Status, "unknown"),
				or(a.Spec.Destination.Namespace, "default"))
		}
	case "summary":
		health := make([]string, len(page))
		sync := make([]string, len(page))
		for i, it := range page {
			health[i] = it.app.Status.Health.Status
			sync[i] = it.app.Status.Sync.Status
		}
		fmt.Fprintf(w, "Total applications: %d\n", len(page))
		writeBreakdown(w, "Health status breakdown", health)
		writeBreakdown(w, "Sync status breakdown", sync)
	case "yaml":
		return writeYAML(w, joinRaw(raws))
	default:
		writeJSON(w, joinRaw(raws))
	}
	return nil
}

// GetOptions are the argocd_get_application parameters.
type GetOptions struct {
	Name             string
	Format           string
	IncludeResources bool
	Refresh          bool
}

// GetApplication shows one application and optionally its resource tree.
func (s *Service) GetApplication(ctx context.Context, w io.Writer, opts GetOptions) error {
	fmt.Fprintf(w, "🔍 Fetching application: %s\n", opts.Name)

	appData, err := s.cached(ctx, w, Key(PrefixApplication, opts.Name), TTLApplication, opts.Refresh, "application data", func() ([]byte, error) {
		return s.client.ApplicationRaw(ctx, opts.Name)
	})
	if err != nil {
		fmt.Fprintf(w, "❌ Failed to fetch application %s. Check application name and permissions.\n", opts.Name)
		fmt.Fprintf(w, "   %v\n", err)
		return err
	}
	var app Application
	if err := json.Unmarshal(appData, &app); err != nil {
		fmt.Fprintln(w, "⚠️ Unexpected response format")
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	var treeData []byte
	var tree *ResourceTree
	if opts.IncludeResources || opts.Format == "resources" {
		treeData, err = s.cached(ctx, w, Key(PrefixResources, opts.Name), TTLResources, opts.Refresh, "resource tree", func() ([]byte, error) {
			return s.client.ResourceTreeRaw(ctx, opts.Name)
		})
		if err != nil {
			ctxlog.FromContext(ctx).Debug("resource tree unavailable", "app", opts.Name, "err", err)
			treeData = nil
		} else {
			tree = &ResourceTree{}
			if json.Unmarshal(treeData, tree) != nil {
				tree, treeData = nil, nil
			}
		}
	}

	switch opts.Format {
	case "basic":
		writeBasic(w, &app)
	case "", "detailed":
		writeDetailed(w, &app, tree, opts.IncludeResources)
	case "resources":
		writeResources(w, &app, tree)
	case "yaml":
		return writeYAML(w, appData)
	default:
		if opts.IncludeResources && treeData != nil {
			return writeValueJSON(w, map[string]json.RawMessage{
				"application": appData,
				"resources":   treeData,
			})
		}
		writeJSON(w, appData)
	}
	return nil
}

func writeBasic(w io.Writer, a *Application) {
	fmt.Fprintf(w, "Application: %s\n", a.Metadata.Name)
	fmt.Fprintf(w, "Project: %s\n", or(a.Spec.Project, "default"))
	fmt.Fprintf(w, "Cluster: %s\n", or(a.Spec.Destination.Server, or(a.Spec.Destination.Name, "unknown")))
	fmt.Fprintf(w, "Namespace: %s\n", or(a.Spec.Destination.Namespace, "default"))
	fmt.Fprintf(w, "Health: %s\n", or(a.Status.Health.Status, "unknown"))
	fmt.Fprintf(w, "Sync: %s\n", or(a.Status.Sync.Status, "unknown"))
	fmt.Fprintf(w, "Source: %s\n", or(a.Spec.Source.RepoURL, "unknown"))
	fmt.Fprintf(w, "Path: %s\n", or(a.Spec.Source.Path, "."))
}

// maxDetailedResources is how many resources the detailed view lists.
const maxDetailedResources = 20

func writeDetailed(w io.Writer, a *Application, tree *ResourceTree, includeResources bool) {
	fmt.Fprintln(w, "📱 Application Details:")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintf(w, "Name: %s\n", a.Metadata.Name)
	fmt.Fprintf(w, "Project: %s\n", or(a.Spec.Project, "default"))
	fmt.Fprintf(w, "Created: %s\n\n", or(a.Metadata.CreationTimestamp, "unknown"))
	fmt.Fprintln(w, "🎯 Destination:")
	fmt.Fprintf(w, "  Cluster: %s\n", or(a.Spec.Destination.Server, or(a.Spec.Destination.Name, "unknown")))
	fmt.Fprintf(w, "  Namespace: %s\n\n", or(a.Spec.Destination.Namespace, "default"))
	fmt.Fprintln(w, "📦 Source:")
	fmt.Fprintf(w, "  Repository: %s\n", or(a.Spec.Source.RepoURL, "unknown"))
	fmt.Fprintf(w, "  Path: %s\n", or(a.Spec.Source.Path, "."))
	fmt.Fprintf(w, "  Branch/Tag: %s\n\n", or(a.Spec.Source.TargetRevision, "HEAD"))
	fmt.Fprintf(w, "🏥 Health Status: %s\n", or(a.Status.Health.Status, "unknown"))
	fmt.Fprintf(w, "🔄 Sync Status: %s\n", or(a.Status.Sync.Status, "unknown"))

	if !includeResources || tree == nil {
		return
	}
	fmt.Fprintln(w, "\n📋 Resources:")
	for i, n := range tree.Nodes {
		if i == maxDetailedResources {
			fmt.Fprintf(w, "  ... and %d more resources\n", len(tree.Nodes)-maxDetailedResources)
			break
		}
		fmt.Fprintf(w, "  • %s/%s - %s\n", n.Kind, n.Name, nodeHealth(n))
	}
}

func writeResources(w io.Writer, a *Application, tree *ResourceTree) {
	if tree == nil {
		fmt.Fprintln(w, "No resource data available")
		return
	}
	syncByResource := make(map[string]string, len(a.Status.Resources))
	for _, r := range a.Status.Resources {
		syncByResource[r.Kind+"/"+r.Name] = r.Status
	}

	fmt.Fprintln(w, "📋 Application Resources:")
	fmt.Fprintln(w, "========================")
	for _, n := range tree.Nodes {
		sync := or(syncByResource[n.Kind+"/"+n.Name], "unknown")
		fmt.Fprintf(w, "%s/%s - Health: %s, Sync: %s\n", n.Kind, n.Name, nodeHealth(n), sync)
	}
}

func nodeHealth(n ResourceNode) string {
	if n.Health == nil {
		return "unknown"
	}
	return or(n.Health.Status, "unknown")
}

// =============================================================================
// CLUSTERS AND REPOSITORIES
// =============================================================================

// ListClusters shows registered clusters.
func (s *Service) ListClusters(ctx context.Context, w io.Writer, format string, refresh bool) error {
	fmt.Fprintln(w, "🌐 Fetching ArgoCD clusters...")

	data, err := s.cached(ctx, w, Key(PrefixClusters), TTLClusters, refresh, "clusters list", func() ([]byte, error) {
		return s.client.ClustersRaw(ctx)
	})
	if err != nil {
		fmt.Fprintln(w, "❌ API request failed. Check ARGOCD_SERVER, ARGOCD_TOKEN, and permissions.")
		fmt.Fprintf(w, "   %v\n", err)
		return err
	}

	var list struct {
		Items []Cluster `json:"items"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		fmt.Fprintln(w, "⚠️ Unexpected response format")
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	switch format {
	case "", "table":
		if len(list.Items) == 0 {
			fmt.Fprintln(w, "No clusters found")
			return nil
		}
		rows := make([][]string, len(list.Items))
		for i, c := range list.Items {
			conn := c.Connection()
			rows[i] = []string{or(c.Name, "in-cluster"), c.Server, or(c.Version(), "unknown"), or(conn.Status, "unknown"), conn.Message}
		}
		writeTable(w, []string{"NAME", "SERVER", "VERSION", "STATUS", "MESSAGE"}, rows)
	case "summary":
		if len(list.Items) == 0 {
			fmt.Fprintln(w, "No clusters found")
			return nil
		}
		statuses := make([]string, len(list.Items))
		for i, c := range list.Items {
			statuses[i] = c.Connection().Status
		}
		fmt.Fprintf(w, "Total clusters: %d\n", len(list.Items))
		writeBreakdown(w, "Connection status", statuses)
	default:
		writeJSON(w, data)
	}
	return nil
}

// ListRepositories shows registered repositories, optionally of one type.
func (s *Service) ListRepositories(ctx context.Context, w io.Writer, repoType, format string, refresh bool) error {
	if repoType == "" {
		repoType = "all"
	}
	fmt.Fprintln(w, "📦 Fetching ArgoCD repositories...")

	data, err := s.cached(ctx, w, Key(PrefixRepositories, repoType), TTLRepositories, refresh, "repositories list", func() ([]byte, error) {
		return s.client.RepositoriesRaw(ctx)
	})
	if err != nil {
		fmt.Fprintln(w, "❌ API request failed. Check ARGOCD_SERVER, ARGOCD_TOKEN, and permissions.")
		fmt.Fprintf(w, "   %v\n", err)
		return err
	}

	var list rawList
	if err := json.Unmarshal(data, &list); err != nil {
		fmt.Fprintln(w, "⚠️ Unexpected response format")
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	var repos []Repository
	var raws []json.RawMessage
	for _, raw := range list.Items {
		var r Repository
		if json.Unmarshal(raw, &r) != nil {
			continue
		}
		if repoType != "all" && r.RepoType() != repoType {
			continue
		}
		repos = append(repos, r)
		raws = append(raws, raw)
	}

	switch format {
	case "", "table":
		if len(repos) == 0 {
			fmt.Fprintln(w, "No repositories found")
			return nil
		}
		rows := make([][]string, len(repos))
		for i, r := range repos {
			rows[i] = []string{r.Repo, r.RepoType(), or(r.ConnectionState.Status, "unknown"), or(r.Project, "default"), strconv.FormatBool(r.Insecure)}
		}
		writeTable(w, []string{"REPOSITORY", "TYPE", "STATUS", "PROJECT", "INSECURE"}, rows)
	case "summary":
		if len(repos) == 0 {
			fmt.Fprintln(w, "No repositories found")
			return nil
		}
		types := make([]string, len(repos))
		statuses := make([]string, len(repos))
		for i, r := range repos {
			types[i] = r.RepoType()
			statuses[i] = r.ConnectionState.Status
		}
		fmt.Fprintf(w, "Total repositories: %d\n", len(repos))
		writeBreakdown(w, "Repository types", types)
		writeBreakdown(w, "Connection status", statuses)
	default:
		writeJSON(w, []byte(`{"items":`+string(joinRaw(raws))+`}`))
	}
	return nil
}

// =============================================================================
// SYNC
// =============================================================================

// SyncOptions are the argocd_sync_application parameters.
type SyncOptions struct {
	Name      string
	DryRun    bool
	Prune     bool
	Force     bool
	Resources string
	Wait      bool
}

// Sync starts a sync and, unless dry-run, optionally waits for it to finish.
// Waiting polls the application status; it never re-issues the sync.
func (s *Service) Sync(ctx context.Context, w io.Writer, opts SyncOptions) error {
	fmt.Fprintf(w, "🔄 Initiating sync for application: %s\n", opts.Name)

	req := SyncRequest{DryRun: opts.DryRun, Prune: opts.Prune, Force: opts.Force}
	if opts.Resources != "" {
		resources, err := ParseResources(opts.Resources)
		if err != nil {
			fmt.Fprintf(w, "❌ %v\n", err)
			return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		req.Resources = resources
	}

	fmt.Fprintln(w, "📋 Sync options:")
	fmt.Fprintf(w, "  Dry run: %t\n", opts.DryRun)
	fmt.Fprintf(w, "  Prune: %t\n", opts.Prune)
	fmt.Fprintf(w, "  Force: %t\n", opts.Force)
	if opts.Resources != "" {
		fmt.Fprintf(w, "  Target resources: %s\n", opts.Resources)
	}
	fmt.Fprintln(w)

	data, err := s.client.Sync(ctx, opts.Name, req)
	if err != nil {
		fmt.Fprintln(w, "❌ Sync request failed. Check application name, permissions, and server connectivity.")
		fmt.Fprintf(w, "   %v\n", err)
		return err
	}

	var app Application
	if json.Unmarshal(data, &app) != nil || app.Metadata.Name == "" {
		fmt.Fprintln(w, "❌ Unexpected response format:")
		writeJSON(w, data)
		return ErrUnexpectedResponse
	}
	fmt.Fprintln(w, "✅ Sync initiated successfully")
	fmt.Fprintf(w, "🆔 Operation: %s\n", app.Metadata.Name)
	s.invalidate(ctx, opts.Name)

	if opts.DryRun {
		msg := "Sync would be performed"
		if app.Status.OperationState != nil && app.Status.OperationState.Message != "" {
			msg = app.Status.OperationState.Message
		}
		fmt.Fprintln(w, "\n🧪 Dry Run Results:")
		fmt.Fprintln(w, msg)
		return nil
	}

	if opts.Wait {
		if err := s.waitForSync(ctx, w, opts.Name); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "\n📱 Final Application Status:")
	final, err := s.client.Application(ctx, opts.Name)
	if err != nil {
		fmt.Fprintf(w, "  (status unavailable: %v)\n", err)
		return nil
	}
	lastSync := "unknown"
	if final.Status.OperationState != nil {
		lastSync = or(final.Status.OperationState.FinishedAt, "unknown")
	}
	fmt.Fprintf(w, "  Health: %s\n", or(final.Status.Health.Status, "unknown"))
	fmt.Fprintf(w, "  Sync: %s\n", or(final.Status.Sync.Status, "unknown"))
	fmt.Fprintf(w, "  Last Sync: %s\n", lastSync)
	return nil
}

func (s *Service) waitForSync(ctx context.Context, w io.Writer, name string) error {
	fmt.Fprintln(w, "\n⏳ Waiting for sync to complete...")

	polls := max(s.MaxPolls, 1)
	for i := 0; i < polls; i++ {
		if err := sleepContext(ctx, s.PollInterval); err != nil {
			fmt.Fprintln(w, "⚠️ Stopped waiting: "+err.Error())
			return err
		}

		app, err := s.client.Application(ctx, name)
		if err != nil {
			fmt.Fprintf(w, "⚠️ Could not check sync status: %v\n", err)
			return nil
		}
		op := app.Status.OperationState
		if op == nil {
			fmt.Fprintln(w, "✅ Sync completed (no active operation)")
			return nil
		}

		phase := or(op.Phase, "unknown")
		fmt.Fprintf(w, "⏳ Status: %s - %s\n", phase, op.Message)
		switch phase {
		case "Succeeded":
			fmt.Fprintln(w, "✅ Sync completed successfully!")
			return nil
		case "Failed", "Error":
			fmt.Fprintf(w, "❌ Sync failed: %s\n", op.Message)
			writeSyncResult(w, op.SyncResult)
			return fmt.Errorf("%w: %s", ErrSyncFailed, op.Message)
		}
	}
	fmt.Fprintf(w, "⚠️ Sync still running after %d status checks\n", polls)
	return nil
}

func writeSyncResult(w io.Writer, result *SyncResult) {
	if result == nil || len(result.Resources) == 0 {
		fmt.Fprintln(w, "No detailed error available")
		return
	}
	for _, r := range result.Resources {
		if r.Status == "Synced" {
			continue
		}
		fmt.Fprintf(w, "  %s/%s: %s %s\n", r.Kind, r.Name, or(r.Status, "unknown"), r.Message)
	}
}

// invalidate drops cached views of an application after it changed,
// including every cached application list since those carry its status.
func (s *Service) invalidate(ctx context.Context, name string) {
	if s.cache == nil {
		return
	}
	logger := ctxlog.FromContext(ctx)
	keys := []string{Key(PrefixApplication, name), Key(PrefixResources, name)}

	entries, err := s.cache.Entries(ctx)
	if err != nil {
		logger.Debug("cache scan failed", "app", name, "err", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name, PrefixApplications+"_") {
			keys = append(keys, e.Name)
		}
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Debug("cache invalidate failed", "app", name, "err", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// =============================================================================
// HISTORY AND ROLLBACK
// =============================================================================

// HistoryOptions are the argocd_application_history parameters.
type HistoryOptions struct {
	Name     string
	Action   string
	Limit    int
	Revision string
	Format   string
}

// HistoryEntry is one row of deployment history.
type HistoryEntry struct {
	ID       int64  `json:"id"`
	Revision string `json:"revision"`
	Date     string `json:"date"`
	Author   string `json:"author"`
	Message  string `json:"message,omitempty"`
}

// History lists recent deployments or rolls back to one.
func (s *Service) History(ctx context.Context, w io.Writer, opts HistoryOptions) error {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	switch opts.Action {
	case "", "history", "list":
		return s.listHistory(ctx, w, opts)
	case "rollback":
		return s.rollback(ctx, w, opts)
	default:
		fmt.Fprintf(w, "❌ Unknown action: %s\n", opts.Action)
		fmt.Fprintln(w, "Available actions: history, list, rollback")
		return fmt.Errorf("%w: unknown action %q", ErrInvalidArgument, opts.Action)
	}
}

func (s *Service) listHistory(ctx context.Context, w io.Writer, opts HistoryOptions) error {
	fmt.Fprintf(w, "📚 Fetching deployment history for: %s\n", opts.Name)

	app, err := s.client.Application(ctx, opts.Name)
	if err != nil {
		fmt.Fprintln(w, "❌ Failed to fetch application history. Check application name and permissions.")
		fmt.Fprintf(w, "   %v\n", err)
		return err
	}

	// Most recent first
	history := app.Status.History
	entries := make([]HistoryEntry, 0, len(history))
	for i := len(history) - 1; i >= 0 && len(entries) < opts.Limit; i-- {
		h := history[i]
		entry := HistoryEntry{
			ID:       h.ID,
			Revision: or(h.Revision, "unknown"),
			Date:     or(h.DeployedAt, "unknown"),
			Author:   initiator(h.InitiatedBy),
		}
		if h.Revision != "" {
			if meta, err := s.client.RevisionMetadata(ctx, opts.Name, h.Revision); err == nil {
				entry.Author = or(meta.Author, entry.Author)
				entry.Message = meta.Message
				if entry.Date == "unknown" {
					entry.Date = or(meta.Date, "unknown")
				}
			}
		}
		entries = append(entries, entry)
	}

	switch opts.Format {
	case "", "table":
		if len(entries) == 0 {
			fmt.Fprintln(w, "No history found")
			return nil
		}
		rows := make([][]string, len(entries))
		for i, e := range entries {
			rows[i] = []string{e.Revision, e.Date, e.Author, oneLine(e.Message, 50)}
		}
		writeTable(w, []string{"REVISION", "DATE", "AUTHOR", "MESSAGE"}, rows)
	case "summary":
		if len(entries) == 0 {
			fmt.Fprintln(w, "No history found")
			return nil
		}
		fmt.Fprintf(w, "Total revisions: %d\n", len(history))
		fmt.Fprintf(w, "Showing last %d revisions:\n", opts.Limit)
		for _, e := range entries {
			fmt.Fprintf(w, "  %s - %s by %s\n", e.Revision, e.Date, e.Author)
		}
	default:
		return writeValueJSON(w, entries)
	}
	return nil
}

func initiator(by InitiatedBy) string {
	switch {
	case by.Username != "":
		return by.Username
	case by.Automated:
		return "automated"
	default:
		return "unknown"
	}
}

func (s *Service) rollback(ctx context.Context, w io.Writer, opts HistoryOptions) error {
	if opts.Revision == "" {
		fmt.Fprintln(w, "❌ Revision parameter required for rollback action")
		return fmt.Errorf("%w: revision is required for rollback", ErrInvalidArgument)
	}
	fmt.Fprintf(w, "🔄 Rolling back to revision: %s\n", opts.Revision)

	data, err := s.client.Sync(ctx, opts.Name, SyncRequest{Revision: opts.Revision, Prune: false, DryRun: false})
	if err != nil {
		fmt.Fprintln(w, "❌ Rollback failed. Check revision and permissions.")
		fmt.Fprintf(w, "   %v\n", err)
		return err
	}
	s.invalidate(ctx, opts.Name)

	var app Application
	_ = json.Unmarshal(data, &app)
	fmt.Fprintf(w, "✅ Rollback initiated to revision %s\n", opts.Revision)
	fmt.Fprintf(w, "🆔 Operation: %s\n", or(app.Metadata.Name, "unknown"))
	return nil
}
