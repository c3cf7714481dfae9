// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package argocd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/restapi"
)

const appsBody = `{"items":[
 {"metadata":{"name":"web"},"spec":{"project":"shop","destination":{"server":"https://k8s","namespace":"prod"},"source":{"repoURL":"https://git/web"}},"status":{"health":{"status":"Healthy"},"sync":{"status":"Synced"}}},
 {"metadata":{"name":"api"},"spec":{"project":"shop","destination":{"name":"edge"},"source":{"repoURL":"https://git/api"}},"status":{"health":{"status":"Degraded"},"sync":{"status":"OutOfSync"}}},
 {"metadata":{"name":"jobs"},"spec":{},"status":{"health":{"status":"Healthy"},"sync":{"status":"OutOfSync"}}}
]}`

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *FileCache) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cache := NewFileCache(t.TempDir())
	client := NewClient(restapi.New(BaseURL("", server.URL)), "tok", time.Second)
	svc := NewService(client, cache)
	svc.PollInterval = 0
	return svc, cache
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "https://argo.example.com/api/v1", BaseURL("", "argo.example.com"))
	assert.Equal(t, "http://argo:8080/api/v1", BaseURL("http", "argo:8080/"))
	assert.Equal(t, "http://argo/api/v1", BaseURL("https", "http://argo/api/v1"))
}

func TestParseResources(t *testing.T) {
	res, err := ParseResources("Deployment/web, Service/web")
	require.NoError(t, err)
	assert.Equal(t, []SyncResource{
		{Version: "v1", Kind: "Deployment", Name: "web"},
		{Version: "v1", Kind: "Service", Name: "web"},
	}, res)

	_, err = ParseResources("Deployment")
	assert.Error(t, err)
}

// =============================================================================
// APPLICATIONS
// =============================================================================

func TestListApplications_TableAndCache(t *testing.T) {
	var calls atomic.Int32
	var gotAuth, gotQuery string
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/api/v1/applications", r.URL.Path)
		io.WriteString(w, appsBody)
	})
	ctx := context.Background()
	opts := ListOptions{Limit: 50, Project: "shop"}

	var out bytes.Buffer
	require.NoError(t, svc.ListApplications(ctx, &out, opts))
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "projects=shop", gotQuery)
	assert.Contains(t, out.String(), "📊 Found 3 applications")
	assert.Contains(t, out.String(), "💾 Applications list cached to workspace: argocd-data/cache/apps_")
	assert.Regexp(t, `NAME\s+PROJECT\s+CLUSTER\s+NAMESPACE\s+HEALTH\s+SYNC\s+SOURCE`, out.String())
	assert.Regexp(t, `api\s+shop\s+edge\s+default\s+Degraded\s+OutOfSync\s+https://git/api`, out.String())

	out.Reset()
	require.NoError(t, svc.ListApplications(ctx, &out, opts))
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, out.String(), "⚡ Using cached applications list from: apps_")

	out.Reset()
	opts.Refresh = true
	require.NoError(t, svc.ListApplications(ctx, &out, opts))
	assert.Equal(t, int32(2), calls.Load())
}

func TestListApplications_FiltersPagingFormats(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, appsBody)
	})
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, svc.ListApplications(ctx, &out, ListOptions{Sync: "OutOfSync", Format: "compact"}))
	s := out.String()
	assert.Contains(t, s, "🔍 Applying additional filters...")
	assert.Contains(t, s, "📊 Found 2 applications")
	assert.Contains(t, s, "api: Degraded/OutOfSync in default")
	assert.Contains(t, s, "jobs: Healthy/OutOfSync in default")
	assert.NotContains(t, s, "web:")

	out.Reset()
	require.NoError(t, svc.ListApplications(ctx, &out, ListOptions{Limit: 1, Offset: 1, Format: "json", Refresh: true}))
	assert.Contains(t, out.String(), `"name": "api"`)
	assert.NotContains(t, out.String(), `"name": "web"`)

	out.Reset()
	require.NoError(t, svc.ListApplications(ctx, &out, ListOptions{Format: "summary"}))
	assert.Contains(t, out.String(), "Total applications: 3\nHealth status breakdown:\n  Degraded: 1\n  Healthy: 2\n")
	assert.Contains(t, out.String(), "Sync status breakdown:\n  OutOfSync: 2\n  Synced: 1\n")

	out.Reset()
	require.NoError(t, svc.ListApplications(ctx, &out, ListOptions{Offset: 10}))
	assert.Contains(t, out.String(), "No applications found")
}

func TestListApplications_APIError(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	var out bytes.Buffer
	err := svc.ListApplications(context.Background(), &out, ListOptions{})
	require.Error(t, err)
	var statusErr *restapi.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, out.String(), "❌ API request failed")
}

func TestGetApplication_Views(t *testing.T) {
	app := `{"metadata":{"name":"web","creationTimestamp":"2024-01-01T00:00:00Z"},
		"spec":{"project":"shop","destination":{"server":"https://k8s","namespace":"prod"},"source":{"repoURL":"https://git/web","path":"deploy","targetRevision":"main"}},
		"status":{"health":{"status":"Healthy"},"sync":{"status":"Synced"},
		"resources":[{"kind":"Deployment","name":"web","status":"OutOfSync"}]}}`
	tree := `{"nodes":[{"kind":"Deployment","name":"web","health":{"status":"Progressing"}},{"kind":"Service","name":"web"}]}`

	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/applications/web":
			io.WriteString(w, app)
		case "/api/v1/applications/web/resource-tree":
			io.WriteString(w, tree)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, svc.GetApplication(ctx, &out, GetOptions{Name: "web", IncludeResources: true}))
	s := out.String()
	assert.Contains(t, s, "📱 Application Details:")
	assert.Contains(t, s, "  Branch/Tag: main")
	assert.Contains(t, s, "  • Deployment/web - Progressing")
	assert.Contains(t, s, "  • Service/web - unknown")

	out.Reset()
	require.NoError(t, svc.GetApplication(ctx, &out, GetOptions{Name: "web", Format: "resources"}))
	assert.Contains(t, out.String(), "Deployment/web - Health: Progressing, Sync: OutOfSync")
	assert.Contains(t, out.String(), "Service/web - Health: unknown, Sync: unknown")

	out.Reset()
	require.NoError(t, svc.GetApplication(ctx, &out, GetOptions{Name: "web", Format: "basic"}))
	assert.Contains(t, out.String(), "Path: deploy")

	out.Reset()
	require.NoError(t, svc.GetApplication(ctx, &out, GetOptions{Name: "web", Format: "json", IncludeResources: true}))
	jsonStart := strings.Index(out.String(), "{")
	require.GreaterOrEqual(t, jsonStart, 0)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out.String()[jsonStart:]), &doc))
	assert.Contains(t, doc, "application")
	assert.Contains(t, doc, "resources")

	out.Reset()
	require.NoError(t, svc.GetApplication(ctx, &out, GetOptions{Name: "web", Format: "yaml"}))
	assert.Contains(t, out.String(), "name: web")
}

func TestGetApplication_DetailedLimitsResources(t *testing.T) {
	nodes := make([]ResourceNode, 25)
	for i := range nodes {
		nodes[i] = ResourceNode{Kind: "Pod", Name: "p"}
	}
	treeBody, err := json.Marshal(ResourceTree{Nodes: nodes})
	require.NoError(t, err)

	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/resource-tree") {
			w.Write(treeBody)
			return
		}
		io.WriteString(w, `{"metadata":{"name":"big"}}`)
	})

	var out bytes.Buffer
	require.NoError(t, svc.GetApplication(context.Background(), &out, GetOptions{Name: "big", IncludeResources: true}))
	assert.Equal(t, maxDetailedResources, strings.Count(out.String(), "• Pod/p"))
	assert.Contains(t, out.String(), "... and 5 more resources")
}

// =============================================================================
// CLUSTERS AND REPOSITORIES
// =============================================================================

func TestListClusters(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"items":[
			{"name":"","server":"https://kubernetes.default.svc","info":{"serverVersion":"1.29","connectionState":{"status":"Successful"}}},
			{"name":"edge","server":"https://edge","connectionState":{"status":"Failed","message":"timeout"}}]}`)
	})

	var out bytes.Buffer
	require.NoError(t, svc.ListClusters(context.Background(), &out, "table", false))
	assert.Regexp(t, `in-cluster\s+https://kubernetes.default.svc\s+1.29\s+Successful`, out.String())
	assert.Regexp(t, `edge\s+https://edge\s+unknown\s+Failed\s+timeout`, out.String())

	out.Reset()
	require.NoError(t, svc.ListClusters(context.Background(), &out, "summary", false))
	assert.Contains(t, out.String(), "Total clusters: 2\nConnection status:\n  Failed: 1\n  Successful: 1\n")
}

func TestListRepositories_TypeFilter(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"items":[
			{"repo":"https://git/a","connectionState":{"status":"Successful"}},
			{"repo":"https://charts","type":"helm","insecure":true}]}`)
	})
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, svc.ListRepositories(ctx, &out, "git", "table", false))
	assert.Regexp(t, `https://git/a\s+git\s+Successful\s+default\s+false`, out.String())
	assert.NotContains(t, out.String(), "https://charts")

	out.Reset()
	require.NoError(t, svc.ListRepositories(ctx, &out, "", "summary", false))
	assert.Contains(t, out.String(), "Repository types:\n  git: 1\n  helm: 1\n")
}

// =============================================================================
// SYNC
// =============================================================================

func TestSync_WaitSucceeds(t *testing.T) {
	var polls atomic.Int32
	var body SyncRequest
	svc, cache := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/applications/web/sync":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			io.WriteString(w, `{"metadata":{"name":"web"}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/applications/web":
			n := polls.Add(1)
			if n == 1 {
				io.WriteString(w, `{"metadata":{"name":"web"},"status":{"operationState":{"phase":"Running","message":"syncing"}}}`)
				return
			}
			io.WriteString(w, `{"metadata":{"name":"web"},"status":{"health":{"status":"Healthy"},"sync":{"status":"Synced"},"operationState":{"phase":"Succeeded","finishedAt":"2024-05-01T10:00:00Z"}}}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()
	listKey := Key(PrefixApplications, "50", "0", "", "", "")
	clustersKey := Key(PrefixClusters, "all")
	for _, k := range []string{Key(PrefixApplication, "web"), listKey, clustersKey} {
		require.NoError(t, cache.Set(ctx, k, []byte(`{}`)))
	}

	var out bytes.Buffer
	err := svc.Sync(ctx, &out, SyncOptions{Name: "web", Prune: true, Resources: "Deployment/web", Wait: true})
	require.NoError(t, err)

	assert.True(t, body.Prune)
	assert.False(t, body.DryRun)
	assert.Equal(t, []SyncResource{{Version: "v1", Kind: "Deployment", Name: "web"}}, body.Resources)

	s := out.String()
	assert.Contains(t, s, "✅ Sync initiated successfully")
	assert.Contains(t, s, "⏳ Status: Running - syncing")
	assert.Contains(t, s, "✅ Sync completed successfully!")
	assert.Contains(t, s, "  Last Sync: 2024-05-01T10:00:00Z")

	_, ok, err := cache.Get(ctx, Key(PrefixApplication, "web"), time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "sync should drop the cached application")
	_, ok, err = cache.Get(ctx, listKey, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "sync should drop cached application lists")
	_, ok, err = cache.Get(ctx, clustersKey, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "cluster entries are unaffected by a sync")
}

func TestSync_WaitFails(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			io.WriteString(w, `{"metadata":{"name":"web"}}`)
			return
		}
		io.WriteString(w, `{"metadata":{"name":"web"},"status":{"operationState":{"phase":"Failed","message":"one or more objects failed",
			"syncResult":{"resources":[{"kind":"Deployment","name":"web","status":"SyncFailed","message":"invalid spec"},{"kind":"Service","name":"web","status":"Synced"}]}}}}`)
	})

	var out bytes.Buffer
	err := svc.Sync(context.Background(), &out, SyncOptions{Name: "web", Wait: true})
	require.ErrorIs(t, err, ErrSyncFailed)
	assert.Contains(t, out.String(), "❌ Sync failed: one or more objects failed")
	assert.Contains(t, out.String(), "  Deployment/web: SyncFailed invalid spec")
	assert.NotContains(t, out.String(), "Service/web")
}

func TestSync_WaitGivesUp(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			io.WriteString(w, `{"metadata":{"name":"web"}}`)
			return
		}
		io.WriteString(w, `{"metadata":{"name":"web"},"status":{"operationState":{"phase":"Running"}}}`)
	})
	svc.MaxPolls = 3

	var out bytes.Buffer
	require.NoError(t, svc.Sync(context.Background(), &out, SyncOptions{Name: "web", Wait: true}))
	assert.Equal(t, 3, strings.Count(out.String(), "⏳ Status: Running"))
	assert.Contains(t, out.String(), "⚠️ Sync still running after 3 status checks")
}

func TestSync_WaitPollsAtLeastOnce(t *testing.T) {
	var gets atomic.Int32
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			io.WriteString(w, `{"metadata":{"name":"web"}}`)
			return
		}
		gets.Add(1)
		io.WriteString(w, `{"metadata":{"name":"web"},"status":{"operationState":{"phase":"Succeeded"}}}`)
	})
	svc.MaxPolls = 0

	var out bytes.Buffer
	require.NoError(t, svc.Sync(context.Background(), &out, SyncOptions{Name: "web", Wait: true}))
	assert.GreaterOrEqual(t, gets.Load(), int32(1))
	assert.Contains(t, out.String(), "✅ Sync completed successfully!")
	assert.NotContains(t, out.String(), "still running")
}

func TestSync_DryRun(t *testing.T) {
	var gets atomic.Int32
	var body SyncRequest
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets.Add(1)
		}
		json.NewDecoder(r.Body).Decode(&body)
		io.WriteString(w, `{"metadata":{"name":"web"}}`)
	})

	var out bytes.Buffer
	require.NoError(t, svc.Sync(context.Background(), &out, SyncOptions{Name: "web", DryRun: true, Wait: true}))
	assert.True(t, body.DryRun)
	assert.Contains(t, out.String(), "🧪 Dry Run Results:\nSync would be performed")
	assert.Equal(t, int32(0), gets.Load())
}

func TestSync_InvalidResources(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	var out bytes.Buffer
	err := svc.Sync(context.Background(), &out, SyncOptions{Name: "web", Resources: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSync_UnexpectedResponse(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error":"nope"}`)
	})

	var out bytes.Buffer
	err := svc.Sync(context.Background(), &out, SyncOptions{Name: "web"})
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
	assert.Contains(t, out.String(), "❌ Unexpected response format:")
}

func TestClientSync_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)

	client := NewClient(restapi.New(BaseURL("", server.URL)), "tok", 20*time.Millisecond)
	_, err := client.Sync(context.Background(), "web", SyncRequest{Revision: "HEAD"})

	var ne *restapi.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, restapi.KindTimeout, ne.Kind)
}

// =============================================================================
// HISTORY AND ROLLBACK
// =============================================================================

func TestHistory_List(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/applications/web":
			io.WriteString(w, `{"metadata":{"name":"web"},"status":{"history":[
				{"id":1,"revision":"aaa","deployedAt":"2024-01-01"},
				{"id":2,"revision":"bbb","deployedAt":"2024-02-01","initiatedBy":{"automated":true}},
				{"id":3,"revision":"ccc","deployedAt":"2024-03-01","initiatedBy":{"username":"dana"}}]}}`)
		case "/api/v1/applications/web/revisions/ccc/metadata":
			io.WriteString(w, `{"author":"Dana <dana@example.com>","message":"bump image\nsecond line"}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, svc.History(ctx, &out, HistoryOptions{Name: "web", Limit: 2}))
	s := out.String()
	assert.Regexp(t, `ccc\s+2024-03-01\s+Dana <dana@example.com>\s+bump image second line`, s)
	assert.Regexp(t, `bbb\s+2024-02-01\s+automated`, s)
	assert.NotContains(t, s, "aaa")
	assert.Less(t, strings.Index(s, "ccc"), strings.Index(s, "bbb"))

	out.Reset()
	require.NoError(t, svc.History(ctx, &out, HistoryOptions{Name: "web", Format: "json"}))
	jsonStart := strings.Index(out.String(), "[")
	var entries []HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(out.String()[jsonStart:]), &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, int64(3), entries[0].ID)
	assert.Equal(t, "unknown", entries[2].Author)
}

func TestHistory_Rollback(t *testing.T) {
	var body SyncRequest
	var method string
	svc, cache := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		json.NewDecoder(r.Body).Decode(&body)
		io.WriteString(w, `{"metadata":{"name":"web"}}`)
	})
	ctx := context.Background()
	listKey := Key(PrefixApplications, "10", "0", "shop", "", "")
	require.NoError(t, cache.Set(ctx, listKey, []byte(`{}`)))

	var out bytes.Buffer
	require.NoError(t, svc.History(ctx, &out, HistoryOptions{Name: "web", Action: "rollback", Revision: "abc123"}))
	_, ok, err := cache.Get(ctx, listKey, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "rollback should drop cached application lists")
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "abc123", body.Revision)
	assert.False(t, body.Prune)
	assert.False(t, body.DryRun)
	assert.Contains(t, out.String(), "✅ Rollback initiated to revision abc123")
}

func TestHistory_ArgumentErrors(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	ctx := context.Background()

	var out bytes.Buffer
	assert.ErrorIs(t, svc.History(ctx, &out, HistoryOptions{Name: "web", Action: "rollback"}), ErrInvalidArgument)
	assert.Contains(t, out.String(), "❌ Revision parameter required for rollback action")

	out.Reset()
	assert.ErrorIs(t, svc.History(ctx, &out, HistoryOptions{Name: "web", Action: "explode"}), ErrInvalidArgument)
	assert.Contains(t, out.String(), "❌ Unknown action: explode")
}

// =============================================================================
// WORKSPACE
// =============================================================================

func TestWorkspace_Actions(t *testing.T) {
	ctx := context.Background()
	cache := NewFileCache(t.TempDir())
	require.NoError(t, cache.Set(ctx, Key(PrefixApplications, "x"), []byte(`{}`)))
	require.NoError(t, cache.Set(ctx, Key(PrefixApplication, "web"), []byte(`{}`)))
	require.NoError(t, cache.Set(ctx, Key(PrefixClusters), []byte(`{}`)))
	ws := NewWorkspace(cache)

	var out bytes.Buffer
	require.NoError(t, ws.Run(ctx, &out, ""))
	assert.Contains(t, out.String(), "Workspace: "+cache.Dir())
	assert.Contains(t, out.String(), "🗄️  Cache: 3 files")
	assert.Contains(t, out.String(), "  3 files cached in the last hour")

	out.Reset()
	require.NoError(t, ws.Run(ctx, &out, "stats"))
	assert.Contains(t, out.String(), "📱 Application cache files: 1")
	assert.Contains(t, out.String(), "🌐 Cluster cache files: 1")
	assert.Contains(t, out.String(), "📦 Repository cache files: 0")
	assert.Contains(t, out.String(), "🔍 Individual app cache files: 1")

	out.Reset()
	require.NoError(t, ws.Run(ctx, &out, "list-cache"))
	assert.Contains(t, out.String(), Key(PrefixClusters))

	out.Reset()
	require.NoError(t, ws.Run(ctx, &out, "cleanup"))
	assert.Contains(t, out.String(), "Cleaned 0 old cache files")
	assert.Contains(t, out.String(), "📊 Remaining cache files: 3")

	out.Reset()
	require.NoError(t, ws.Run(ctx, &out, "clear-cache"))
	assert.Contains(t, out.String(), "🗄️  Cleared 3 cache files")

	out.Reset()
	assert.ErrorIs(t, ws.Run(ctx, &out, "nope"), ErrInvalidArgument)
	assert.Contains(t, out.String(), "• stats - Show cache statistics by type")
}
