// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package argocd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/restapi"
)

// BaseURL returns the API root for server. A server given with a scheme
// keeps it; otherwise scheme is used (https by default).
func BaseURL(scheme, server string) string {
	server = strings.TrimSuffix(strings.TrimSpace(server), "/")
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		if scheme == "" {
			scheme = "https"
		}
		server = scheme + "://" + server
	}
	server = strings.TrimSuffix(server, "/api/v1")
	return server + "/api/v1"
}

// Client calls the ArgoCD REST API with a bearer token.
type Client struct {
	api         *restapi.Client
	syncTimeout time.Duration
}

// NewClient binds api to token. syncTimeout bounds sync and rollback calls,
// which can take longer than reads.
func NewClient(api *restapi.Client, token string, syncTimeout time.Duration) *Client {
	api.WithBearerToken(token)
	return &Client{api: api, syncTimeout: syncTimeout}
}

// get returns the raw body of a 2xx GET; other statuses are *restapi.StatusError.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := c.api.Do(ctx, restapi.Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, &restapi.StatusError{Method: http.MethodGet, Path: path, StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return resp.Body, nil
}

// ApplicationsRaw fetches the application list, optionally for one project.
func (c *Client) ApplicationsRaw(ctx context.Context, project string) ([]byte, error) {
	var query url.Values
	if project != "" {
		query = url.Values{"projects": []string{project}}
	}
	return c.get(ctx, "/applications", query)
}

// ApplicationRaw fetches one application.
func (c *Client) ApplicationRaw(ctx context.Context, name string) ([]byte, error) {
	return c.get(ctx, "/applications/"+url.PathEscape(name), nil)
}

// ResourceTreeRaw fetches the live resource tree of an application.
func (c *Client) ResourceTreeRaw(ctx context.Context, name string) ([]byte, error) {
	return c.get(ctx, "/applications/"+url.PathEscape(name)+"/resource-tree", nil)
}

// ClustersRaw fetches the cluster list.
func (c *Client) ClustersRaw(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/clusters", nil)
}

// RepositoriesRaw fetches the repository list.
func (c *Client) RepositoriesRaw(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/repositories", nil)
}

// Application fetches and decodes one application.
func (c *Client) Application(ctx context.Context, name string) (*Application, error) {
	var app Application
	if err := c.api.GetJSON(ctx, "/applications/"+url.PathEscape(name), nil, &app); err != nil {
		return nil, decodeError("application", err)
	}
	return &app, nil
}

// RevisionMetadata fetches commit details for a deployed revision.
func (c *Client) RevisionMetadata(ctx context.Context, name, revision string) (*RevisionMetadata, error) {
	var meta RevisionMetadata
	path := "/applications/" + url.PathEscape(name) + "/revisions/" + url.PathEscape(revision) + "/metadata"
	if err := c.api.GetJSON(ctx, path, nil, &meta); err != nil {
		return nil, decodeError("revision metadata", err)
	}
	return &meta, nil
}

// decodeError labels a body that did not parse; transport and status
// errors pass through unchanged.
func decodeError(what string, err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("failed to parse %s: %w", what, err)
	}
	return err
}

// Sync starts a sync operation and returns the raw application response.
func (c *Client) Sync(ctx context.Context, name string, req SyncRequest) ([]byte, error) {
	if c.syncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.syncTimeout)
		defer cancel()
	}
	var body json.RawMessage
	if err := c.api.PostJSON(ctx, "/applications/"+url.PathEscape(name)+"/sync", req, &body); err != nil {
		return nil, err
	}
	return body, nil
}

// ParseResources turns "Deployment/web,Service/web" into sync selectors.
func ParseResources(spec string) ([]SyncResource, error) {
	var out []SyncResource
	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		kind, name, ok := strings.Cut(item, "/")
		if !ok || kind == "" || name == "" {
			return nil, fmt.Errorf("invalid resource %q: expected Kind/Name", item)
		}
		out = append(out, SyncResource{Group: "", Version: "v1", Kind: kind, Name: name})
	}
	return out, nil
}

// prettyJSON indents data; invalid JSON is returned as is.
func prettyJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(data), "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}
