// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package argocd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/util"
)

// Windows for the "recent" listings of the workspace manager.
const (
	recentActivity = time.Hour
	recentListing  = 4 * time.Hour
)

// Workspace manages the ArgoCD response cache.
type Workspace struct {
	cache Cache
	now   func() time.Time
}

// NewWorkspace wraps cache.
func NewWorkspace(cache Cache) *Workspace {
	return &Workspace{cache: cache, now: time.Now}
}

// Run performs one workspace action. Unknown actions print the action list
// and return ErrInvalidArgument.
func (ws *Workspace) Run(ctx context.Context, w io.Writer, action string) error {
	if action == "" {
		action = "status"
	}

	fmt.Fprintln(w, "🗂️  ArgoCD Workspace Manager")
	fmt.Fprintln(w, "===========================")
	fmt.Fprintf(w, "Workspace: %s\n\n", ws.cache.Location())

	switch action {
	case "status", "info":
		return ws.status(ctx, w)
	case "list-cache":
		return ws.list(ctx, w)
	case "cleanup":
		fmt.Fprintln(w, "🧹 Workspace Cleanup:")
		fmt.Fprintln(w, "====================")
		n, err := ws.cache.Cleanup(ctx, StaleAfter)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "🗄️  Cleaned %d old cache files (>24 hours)\n", n)
		entries, err := ws.cache.Entries(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "📊 Remaining cache files: %d\n", len(entries))
	case "clear-cache":
		fmt.Fprintln(w, "🧹 Cache Clear:")
		fmt.Fprintln(w, "===============")
		n, err := ws.cache.Clear(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "🗄️  Cleared %d cache files\n", n)
	case "stats":
		return ws.stats(ctx, w)
	default:
		fmt.Fprintf(w, "❌ Unknown action: %s\n\n", action)
		fmt.Fprintln(w, "Available actions:")
		fmt.Fprintln(w, "• status/info - Show workspace status")
		fmt.Fprintln(w, "• list-cache - List cached files")
		fmt.Fprintln(w, "• cleanup - Clean old cache files (>24 hours)")
		fmt.Fprintln(w, "• clear-cache - Clear all cache files")
		fmt.Fprintln(w, "• stats - Show cache statistics by type")
		return fmt.Errorf("%w: unknown action %q", ErrInvalidArgument, action)
	}
	return nil
}

func (ws *Workspace) status(ctx context.Context, w io.Writer) error {
	entries, err := ws.cache.Entries(ctx)
	if err != nil {
		return err
	}
	var size int64
	recent := 0
	cutoff := ws.now().Add(-recentActivity)
	for _, e := range entries {
		size += e.Size
		if e.ModTime.After(cutoff) {
			recent++
		}
	}

	fmt.Fprintln(w, "📊 Workspace Status:")
	fmt.Fprintln(w, "===================")
	fmt.Fprintf(w, "🗄️  Cache: %d files (%s)\n", len(entries), util.FormatBytes(size))
	fmt.Fprintf(w, "💾 Total workspace size: %s\n\n", util.FormatBytes(size))
	fmt.Fprintln(w, "🕒 Recent activity:")
	fmt.Fprintf(w, "  %d files cached in the last hour\n", recent)
	return nil
}

func (ws *Workspace) list(ctx context.Context, w io.Writer) error {
	entries, err := ws.cache.Entries(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "🗄️  Cache Files:")
	fmt.Fprintln(w, "===============")
	if len(entries) == 0 {
		fmt.Fprintln(w, "No cache files found")
	}
	for _, e := range entries {
		fmt.Fprintln(w, e.Name)
	}

	fmt.Fprintln(w, "\nRecent cache files (last 4 hours):")
	cutoff := ws.now().Add(-recentListing)
	shown := 0
	for _, e := range entries {
		if e.ModTime.Before(cutoff) {
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", e.Name, util.FormatBytes(e.Size), e.ModTime.Format("Jan 2 15:04"))
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(w, "No recent cache files")
	}
	return nil
}

func (ws *Workspace) stats(ctx context.Context, w io.Writer) error {
	entries, err := ws.cache.Entries(ctx)
	if err != nil {
		return err
	}
	counts := make(map[string]int)
	for _, e := range entries {
		prefix, _, _ := strings.Cut(e.Name, "_")
		counts[prefix]++
	}

	fmt.Fprintln(w, "📈 Cache Statistics:")
	fmt.Fprintln(w, "===================")
	fmt.Fprintf(w, "📱 Application cache files: %d\n", counts[PrefixApplications])
	fmt.Fprintf(w, "🌐 Cluster cache files: %d\n", counts[PrefixClusters])
	fmt.Fprintf(w, "📦 Repository cache files: %d\n", counts[PrefixRepositories])
	fmt.Fprintf(w, "🔍 Individual app cache files: %d\n", counts[PrefixApplication])
	fmt.Fprintf(w, "🌲 Resource tree cache files: %d\n", counts[PrefixResources])
	return nil
}
