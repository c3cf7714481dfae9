// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package argocd

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/util"
)

// Cache TTLs by entry prefix.
const (
	TTLApplications = 15 * time.Minute
	TTLApplication  = 10 * time.Minute
	TTLResources    = 10 * time.Minute
	TTLClusters     = 30 * time.Minute
	TTLRepositories = 30 * time.Minute

	// StaleAfter is the age at which cleanup removes an entry.
	StaleAfter = 24 * time.Hour
)

// Cache key prefixes, also used by the workspace stats.
const (
	PrefixApplications = "apps"
	PrefixApplication  = "app"
	PrefixResources    = "resources"
	PrefixClusters     = "clusters"
	PrefixRepositories = "repos"
)

// Key builds the entry name "<prefix>_<md5>.json" for the request parts.
func Key(prefix string, parts ...string) string {
	sum := md5.Sum([]byte(prefix + "_" + strings.Join(parts, "_")))
	return prefix + "_" + hex.EncodeToString(sum[:]) + ".json"
}

// Entry describes one cached response.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Cache stores raw API responses for the workspace.
type Cache interface {
	// Get returns the entry when it exists and is younger than ttl.
	Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error)

	// Set stores data under key, stamped with the current time.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Entries lists every stored entry sorted by name.
	Entries(ctx context.Context) ([]Entry, error)

	// Cleanup removes entries older than age and returns how many it removed.
	Cleanup(ctx context.Context, age time.Duration) (int, error)

	// Clear removes every entry and returns how many it removed.
	Clear(ctx context.Context) (int, error)

	// Location describes where entries live, for display.
	Location() string
}

// =============================================================================
// FILE CACHE
// =============================================================================

// FileCache keeps entries as files under <workspace>/cache. Freshness is the
// file modification time.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache returns a cache rooted at workspace/cache.
func NewFileCache(workspace string) *FileCache {
	return &FileCache{dir: filepath.Join(workspace, "cache"), now: time.Now}
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string {
	return c.dir
}

func (c *FileCache) Location() string {
	return c.dir
}

func (c *FileCache) path(key string) (string, error) {
	// SECURITY: keys are generated names; reject anything that could escape dir
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(c.dir, key), nil
}

func (c *FileCache) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	path, err := c.path(key)
	if err != nil {
		return nil, false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if c.now().Sub(info.ModTime()) >= ttl {
		return nil, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *FileCache) Set(ctx context.Context, key string, data []byte) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}
	return util.AtomicWriteFileWithDir(path, data, 0600, 0700)
}

func (c *FileCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		path, err := c.path(key)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (c *FileCache) Entries(ctx context.Context) ([]Entry, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Name: de.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (c *FileCache) Cleanup(ctx context.Context, age time.Duration) (int, error) {
	cutoff := c.now().Add(-age)
	return c.remove(ctx, func(e Entry) bool { return e.ModTime.Before(cutoff) })
}

func (c *FileCache) Clear(ctx context.Context) (int, error) {
	return c.remove(ctx, func(Entry) bool { return true })
}

func (c *FileCache) remove(ctx context.Context, match func(Entry) bool) (int, error) {
	entries, err := c.Entries(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if !match(e) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
