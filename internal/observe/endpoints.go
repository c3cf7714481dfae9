// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package observe

import (
	"fmt"
	"strings"
)

// Endpoint is one supported method and path template of the Observe API.
type Endpoint struct {
	Method string
	Path   string
}

func (e Endpoint) String() string {
	return e.Path + " " + e.Method
}

// ValidEndpoints is the set of API calls the api operation accepts,
// taken from the Observe OpenAPI document.
var ValidEndpoints = []Endpoint{
	{"POST", "/v1/login"},
	{"POST", "/v1/login/delegated"},
	{"GET", "/v1/login/delegated/{serverToken}"},
	{"POST", "/v1/meta/export/query"},
	{"GET", "/v1/meta/export/query/page"},
	{"POST", "/v1/meta/export/worksheet/{worksheetId}"},
	{"GET", "/v1/meta/reftable"},
	{"POST", "/v1/meta/reftable"},
	{"GET", "/v1/meta/reftable/{id}"},
	{"PUT", "/v1/meta/reftable/{id}"},
	{"DELETE", "/v1/meta/reftable/{id}"},
	{"GET", "/v1/dataset"},
	{"GET", "/v1/dataset/{id}"},
	{"GET", "/v1/monitors"},
	{"POST", "/v1/monitors"},
	{"GET", "/v1/monitors/{id}"},
	{"PATCH", "/v1/monitors/{id}"},
	{"DELETE", "/v1/monitors/{id}"},
	{"GET", "/v1/monitor-mute-rules"},
	{"POST", "/v1/monitor-mute-rules"},
	{"GET", "/v1/monitor-mute-rules/{id}"},
	{"DELETE", "/v1/monitor-mute-rules/{id}"},
	{"GET", "/v1/referencetables"},
	{"POST", "/v1/referencetables"},
	{"GET", "/v1/referencetables/{id}"},
	{"PATCH", "/v1/referencetables/{id}"},
	{"DELETE", "/v1/referencetables/{id}"},
	{"PUT", "/v1/referencetables/{id}"},
}

// IsValidAPI reports whether method and path match a supported endpoint.
// Any query string on path is ignored and {x} template segments match any
// single non-empty segment.
func IsValidAPI(method, path string) bool {
	method = strings.ToUpper(method)
	path = stripQuery(path)
	for _, ep := range ValidEndpoints {
		if ep.Method == method && matchTemplate(ep.Path, path) {
			return true
		}
	}
	return false
}

func stripQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

func matchTemplate(template, path string) bool {
	want := strings.Split(template, "/")
	got := strings.Split(path, "/")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if strings.HasPrefix(want[i], "{") && strings.HasSuffix(want[i], "}") {
			if got[i] == "" {
				return false
			}
			continue
		}
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

// Suggest returns the endpoints closest to an invalid call: same resource
// with the same method first, then same resource, then same method.
func Suggest(method, path string) []Endpoint {
	method = strings.ToUpper(method)
	resource := resourceOf(stripQuery(path))

	var both, byPath, byMethod []Endpoint
	for _, ep := range ValidEndpoints {
		samePath := resource != "" && resourceOf(ep.Path) == resource
		switch {
		case samePath && ep.Method == method:
			both = append(both, ep)
		case samePath:
			byPath = append(byPath, ep)
		}
		if ep.Method == method {
			byMethod = append(byMethod, ep)
		}
	}
	switch {
	case len(both) > 0:
		return both
	case len(byPath) > 0:
		return byPath
	default:
		return byMethod
	}
}

// resourceOf returns the first two segments of a path ("/v1/monitors").
func resourceOf(path string) string {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 3)
	if len(parts) < 2 {
		return ""
	}
	return "/" + parts[0] + "/" + parts[1]
}

// FormatEndpoints renders the supported list, one endpoint per line.
func FormatEndpoints() string {
	var b strings.Builder
	b.WriteString("Supported API endpoints and methods (from Observe OpenAPI):\n")
	for _, ep := range ValidEndpoints {
		fmt.Fprintf(&b, "%-45s %s\n", ep.Path, ep.Method)
	}
	return b.String()
}
