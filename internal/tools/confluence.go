// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/confluence"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/restapi"
)

func confluenceSearchTool(d *Deps) *Tool {
	return &Tool{
		Name:             "confluence_search",
		Description:      "Search Confluence pages and blog posts by text, optionally within one space.",
		ShortDescription: "Search Confluence content",
		Schema: Schema{Parameters: []Parameter{
			{Name: "query", Type: "string", Required: true, Description: "Text to search for"},
			{Name: "space_key", Type: "string", Description: "Limit results to one space (e.g. ENG)"},
			{Name: "limit", Type: "number", Default: float64(d.Config.Confluence.DefaultLimit), Description: "Maximum number of results"},
		}},
		RequiredEnv: []EnvVar{envConfluenceURL, envConfluenceUsername, envConfluenceToken},
		RiskLevel:   RiskLow,
		Permission:  PermissionAuto,
		Executor:    &ConfluenceExecutor{deps: d},
	}
}

// ConfluenceExecutor runs one CQL text search.
type ConfluenceExecutor struct {
	deps *Deps
}

func (e *ConfluenceExecutor) Execute(ctx context.Context, params map[string]interface{}) (Result, error) {
	cfg := e.deps.Config.Confluence
	baseURL := strings.TrimSuffix(e.deps.env(envConfluenceURL), "/")
	api := e.deps.newAPI(baseURL, time.Duration(cfg.TimeoutSecs)*time.Second)
	client := confluence.NewClient(api, baseURL, e.deps.env(envConfluenceUsername), e.deps.env(envConfluenceToken))

	req := confluence.SearchRequest{
		Query:    getStringParam(params, "query", ""),
		SpaceKey: getStringParam(params, "space_key", ""),
		Limit:    getIntParam(params, "limit", cfg.DefaultLimit),
	}

	var b strings.Builder
	confluence.WriteHeader(&b, client.BaseURL(), req)

	resp, err := client.Search(ctx, req)
	if err != nil {
		confluence.WriteError(&b, err)
		res := failed(b.String(), ExitFailure, err)
		res.StatusCode = searchStatus(err)
		return res, nil
	}

	confluence.WriteResults(&b, client.BaseURL(), resp)
	return Result{Success: true, Output: b.String(), StatusCode: http.StatusOK}, nil
}

// searchStatus recovers the HTTP status behind a search error.
func searchStatus(err error) int {
	var statusErr *restapi.StatusError
	switch {
	case errors.Is(err, confluence.ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, confluence.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &statusErr):
		return statusErr.StatusCode
	}
	return 0
}
