// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package confluence searches Confluence pages through the REST search API.
package confluence

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/restapi"
)

// DefaultLimit is the result count when none is requested.
const DefaultLimit = 10

// searchExpand asks the server to inline space, version and rendered body.
const searchExpand = "content.space,content.version,content.body.view"

var (
	// ErrAuthFailed is returned for a 401 response.
	ErrAuthFailed = errors.New("confluence authentication failed")

	// ErrNotFound is returned for a 404 response, which means a wrong base URL.
	ErrNotFound = errors.New("confluence instance not found")
)

// SearchRequest is one search.
type SearchRequest struct {
	Query    string
	SpaceKey string
	Limit    int
}

// SearchResponse is the decoded /rest/api/search body.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchResult is one match.
type SearchResult struct {
	Content Content `json:"content"`
	Excerpt string  `json:"excerpt"`
}

// Content is the matched page or blog post.
type Content struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	Space Space  `json:"space"`
}

// Space identifies the space a page lives in.
type Space struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// BuildCQL renders the text search, optionally restricted to one space.
// Quotes and backslashes in the inputs are escaped for CQL string literals.
func BuildCQL(query, spaceKey string) string {
	cql := `text ~ "` + escapeCQL(query) + `"`
	if spaceKey != "" {
		cql += ` and space = "` + escapeCQL(spaceKey) + `"`
	}
	return cql
}

func escapeCQL(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// Client calls the search API with basic auth.
type Client struct {
	api     *restapi.Client
	baseURL string
}

// NewClient binds api to the Confluence URL and credentials.
func NewClient(api *restapi.Client, baseURL, username, token string) *Client {
	api.WithBasicAuth(username, token)
	return &Client{api: api, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// BaseURL returns the Confluence URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Search runs one CQL text search. Non-200 statuses are returned as
// ErrAuthFailed, ErrNotFound or a *restapi.StatusError.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	query := url.Values{
		"cql":    []string{BuildCQL(req.Query, req.SpaceKey)},
		"limit":  []string{strconv.Itoa(limit)},
		"expand": []string{searchExpand},
	}

	var out SearchResponse
	if err := c.api.GetJSON(ctx, "/rest/api/search", query, &out); err != nil {
		var statusErr *restapi.StatusError
		if errors.As(err, &statusErr) {
			switch statusErr.StatusCode {
			case http.StatusUnauthorized:
				return nil, ErrAuthFailed
			case http.StatusNotFound:
				return nil, ErrNotFound
			}
		}
		return nil, err
	}
	return &out, nil
}

// PageURL builds the display link for a result.
func PageURL(baseURL string, c Content) string {
	return fmt.Sprintf("%s/display/%s/%s", strings.TrimSuffix(baseURL, "/"), c.Space.Key, strings.ReplaceAll(c.Title, " ", "+"))
}
