// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/restapi"
)

// BaseURL returns the tenant API root. A configured override wins over the
// customer-derived https://<customer>.observeinc.com.
func BaseURL(customerID, override string) string {
	if override != "" {
		return strings.TrimSuffix(override, "/")
	}
	return "https://" + customerID + ".observeinc.com"
}

// Client executes plans against one Observe tenant.
type Client struct {
	api *restapi.Client
}

// NewClient binds api to the tenant credentials. Observe expects
// "Bearer <customer-id> <api-key>" rather than a bare token.
func NewClient(api *restapi.Client, customerID, apiKey string) *Client {
	api.WithAuthorization("Bearer " + customerID + " " + apiKey)
	return &Client{api: api}
}

// BaseURL returns the URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.api.BaseURL()
}

// Execute performs the plan's call. Any HTTP status is a response; only
// transport failures are errors (*restapi.NetworkError).
func (c *Client) Execute(ctx context.Context, plan *Plan) (*restapi.Response, error) {
	return c.api.Do(ctx, restapi.Request{
		Method:   plan.Method,
		Path:     plan.Path,
		RawQuery: plan.RawQuery,
		Body:     plan.Body,
	})
}

// encodePayload marshals v without HTML escaping so OPAL comparison
// operators reach the API as written.
func encodePayload(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode query payload: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
