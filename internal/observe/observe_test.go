// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package observe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/restapi"
)

// =============================================================================
// SANITIZE
// =============================================================================

func TestSanitizeOPAL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `filter severity == "error"`, `filter severity == "error"`},
		{"double quoted", `"filter severity == \"error\""`, `filter severity == "error"`},
		{"single quoted", `'make count()'`, `make count()`},
		{"surrounding space", `  "make count()"  `, `make count()`},
		{"escaped backslash", `"a\\b"`, `a\b`},
		{"regex escapes kept", `"filter msg ~ /\d+/"`, `filter msg ~ /\d+/`},
		{"unbalanced", `"filter x`, `"filter x`},
		{"mismatched quotes", `"filter x'`, `"filter x'`},
		{"escaped closing quote", `"filter x\"`, `"filter x\"`},
		{"empty literal", `""`, ``},
		{"single quote char", `"`, `"`},
		{"quoted at both ends", `"a" | "b"`, `a" | "b`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeOPAL(tt.in))
		})
	}
}

func TestSanitizeOPAL_IdempotentOnUnquoted(t *testing.T) {
	inputs := []string{
		`filter severity == "error"`,
		`make count()`,
		`filter message =~ "error" | make count()`,
		`pick_col timestamp, 'x'`,
		``,
	}
	for _, in := range inputs {
		once := SanitizeOPAL(in)
		assert.Equal(t, in, once)
		assert.Equal(t, once, SanitizeOPAL(once))
	}
}

// =============================================================================
// ENDPOINTS
// =============================================================================

func TestIsValidAPI(t *testing.T) {
	assert.True(t, IsValidAPI("GET", "/v1/dataset"))
	assert.True(t, IsValidAPI("get", "/v1/dataset/41007104"))
	assert.True(t, IsValidAPI("GET", "/v1/dataset?limit=5"))
	assert.True(t, IsValidAPI("GET", "/v1/dataset/"))
	assert.True(t, IsValidAPI("PATCH", "/v1/monitors/abc-def"))
	assert.True(t, IsValidAPI("GET", "/v1/login/delegated/tok123"))

	assert.False(t, IsValidAPI("POST", "/v1/dataset"))
	assert.False(t, IsValidAPI("GET", "/v1/dataset/1/extra"))
	assert.False(t, IsValidAPI("GET", "/v1/datasets"))
	assert.False(t, IsValidAPI("GET", "/v1/monitors//"))
}

func TestSuggest(t *testing.T) {
	got := Suggest("POST", "/v1/dataset")
	assert.Equal(t, []Endpoint{{"GET", "/v1/dataset"}, {"GET", "/v1/dataset/{id}"}}, got)

	got = Suggest("GET", "/v1/monitors/1/x")
	assert.Equal(t, []Endpoint{{"GET", "/v1/monitors"}, {"GET", "/v1/monitors/{id}"}}, got)

	got = Suggest("PUT", "/nope")
	assert.Equal(t, []Endpoint{{"PUT", "/v1/meta/reftable/{id}"}, {"PUT", "/v1/referencetables/{id}"}}, got)
}

func TestFormatEndpoints(t *testing.T) {
	out := FormatEndpoints()
	assert.Contains(t, out, "/v1/meta/export/query")
	assert.Equal(t, len(ValidEndpoints)+1, strings.Count(out, "\n"))
}

// =============================================================================
// QUERY PARAMS
// =============================================================================

func TestQueryParams_Encode(t *testing.T) {
	p := QueryParams{
		TimePreset:     "PAST_1_HOUR",
		FilterColumn:   "severity",
		FilterOperator: "=",
		FilterValue:    "error",
		ParamKey:       "env",
		ParamValue:     "prod",
	}
	assert.Equal(t, "time-preset=PAST_1_HOUR&filter=severity%7C%3D%7Cerror&param-env=prod", p.Encode())

	p = QueryParams{FilterColumn: "severity", FilterValue: "error", Tab: "logs", Dashboard: "42"}
	assert.Equal(t, "filter-severity=error&v-tab=logs&v-dash=42", p.Encode())

	// Column without a value is ignored
	p = QueryParams{FilterColumn: "severity", ParamKey: "env"}
	assert.Equal(t, "", p.Encode())
}

func TestTimeRange_Encode(t *testing.T) {
	tr := TimeRange{StartTime: "2023-04-20T16:20:00Z", Interval: "1h"}
	assert.Equal(t, "startTime=2023-04-20T16%3A20%3A00Z&interval=1h", tr.Encode())
	assert.Equal(t, "", TimeRange{}.Encode())
}

// =============================================================================
// COMMAND PARSING
// =============================================================================

func pipelineOf(t *testing.T, plan *Plan) QueryPayload {
	t.Helper()
	var payload QueryPayload
	require.NoError(t, json.Unmarshal(plan.Body, &payload))
	require.Len(t, payload.Query.Stages, 1)
	return payload
}

func TestParseCommand_Resources(t *testing.T) {
	plan, err := ParseCommand("dataset list")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, plan.Method)
	assert.Equal(t, "/v1/dataset", plan.Path)
	assert.Equal(t, []string{"Listing datasets..."}, plan.Notes)

	plan, err = ParseCommand("monitors show 123")
	require.NoError(t, err)
	assert.Equal(t, "/v1/monitors/123", plan.Path)
	assert.Equal(t, "show", plan.SubOperation)

	plan, err = ParseCommand("referencetables   show   t-9")
	require.NoError(t, err)
	assert.Equal(t, "/v1/referencetables/t-9", plan.Path)
}

func TestParseCommand_UsageErrors(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"", "Command is required"},
		{"dataset show", "Dataset ID is required for 'dataset show'"},
		{"monitor-mute-rules show", "Mute Rule ID is required"},
		{"dataset frob", "Unknown dataset operation: frob"},
		{"bogus list", "Unknown operation: bogus"},
		{"query 41007104", "Query requires dataset ID and OPAL query"},
		{"advanced-query", "Advanced query requires dataset ID"},
		{"advanced-query 1 --colour red", "Unknown option --colour"},
		{"advanced-query 1 --interval", "Option --interval requires a value"},
		{"api GET", "API call requires method and endpoint"},
		{"api GET /v1/bogus", "Invalid API endpoint or method: GET /v1/bogus"},
		{"api GET /v1/dataset a b c", "Unexpected arguments: c"},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			plan, err := ParseCommand(tt.command)
			require.Error(t, err)
			assert.Nil(t, plan)
			var usage *UsageError
			require.True(t, errors.As(err, &usage))
			assert.Contains(t, usage.Message, tt.want)
		})
	}
}

func TestParseCommand_QueryKeepsRawOPAL(t *testing.T) {
	plan, err := ParseCommand(`query 41007104 filter severity == "error" | make count()`)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, plan.Method)
	assert.Equal(t, "/v1/meta/export/query", plan.Path)
	assert.Empty(t, plan.RawQuery)

	payload := pipelineOf(t, plan)
	stage := payload.Query.Stages[0]
	assert.Equal(t, `filter severity == "error" | make count()`, stage.Pipeline)
	assert.Equal(t, "main", stage.StageID)
	assert.Equal(t, []StageInput{{DatasetID: "41007104"}}, stage.Input)
}

func TestParseCommand_QuerySanitizesQuotedOPAL(t *testing.T) {
	plan, err := ParseCommand(`query 41007104 "filter severity == \"error\""`)
	require.NoError(t, err)
	assert.Equal(t, `filter severity == "error"`, pipelineOf(t, plan).Query.Stages[0].Pipeline)
	assert.Contains(t, plan.Notes, `Query: filter severity == "error"`)
}

func TestParseCommand_PayloadIsValidJSONForAwkwardInput(t *testing.T) {
	plan, err := ParseCommand(`query 7 filter msg = "a\"b" and path = "C:\\tmp" <x>`)
	require.NoError(t, err)
	assert.True(t, json.Valid(plan.Body))
	assert.Contains(t, string(plan.Body), "<x>")
}

func TestParseCommand_AdvancedQuery(t *testing.T) {
	plan, err := ParseCommand(`advanced-query 41007104 --interval 1h --opal 'filter a | make count()'`)
	require.NoError(t, err)
	assert.Equal(t, "advanced-query", plan.Operation)
	assert.Equal(t, "interval=1h", plan.RawQuery)
	assert.Equal(t, "filter a | make count()", pipelineOf(t, plan).Query.Stages[0].Pipeline)

	plan, err = ParseCommand(`advanced-query 5 --startTime 2023-04-20T16:20:00Z --endTime 2023-04-20T16:30:00Z`)
	require.NoError(t, err)
	assert.Equal(t, "startTime=2023-04-20T16%3A20%3A00Z&endTime=2023-04-20T16%3A30%3A00Z", plan.RawQuery)
	assert.Equal(t, "", pipelineOf(t, plan).Query.Stages[0].Pipeline)
}

func TestParseCommand_API(t *testing.T) {
	plan, err := ParseCommand(`api GET /v1/dataset limit=10&offset=5`)
	require.NoError(t, err)
	assert.Equal(t, "GET", plan.Method)
	assert.Equal(t, "/v1/dataset", plan.Path)
	assert.Equal(t, "limit=10&offset=5", plan.RawQuery)
	assert.Nil(t, plan.Body)

	plan, err = ParseCommand(`api get /v1/monitors --time-preset PAST_1_HOUR --filter-column severity --filter-value error`)
	require.NoError(t, err)
	assert.Equal(t, "GET", plan.Method)
	assert.Equal(t, "time-preset=PAST_1_HOUR&filter-severity=error", plan.RawQuery)

	plan, err = ParseCommand(`api POST /v1/monitors limit=1 '{"name":"cpu high"}'`)
	require.NoError(t, err)
	assert.Equal(t, "POST", plan.Method)
	assert.Equal(t, `{"name":"cpu high"}`, string(plan.Body))
	assert.Equal(t, "limit=1", plan.RawQuery)

	plan, err = ParseCommand(`api GET /v1/dataset?match=x --opal '"filter a"'`)
	require.NoError(t, err)
	assert.Equal(t, "/v1/dataset", plan.Path)
	assert.Equal(t, "match=x&opal=filter+a", plan.RawQuery)
}

func TestPlanQuery(t *testing.T) {
	plan, err := PlanQuery("41007104", `'make count()'`, TimeRange{Interval: "10m"})
	require.NoError(t, err)
	assert.Equal(t, "advanced-query", plan.Operation)
	assert.Equal(t, "interval=10m", plan.RawQuery)
	assert.Equal(t, "make count()", pipelineOf(t, plan).Query.Stages[0].Pipeline)

	plan, err = PlanQuery("41007104", "make count()", TimeRange{})
	require.NoError(t, err)
	assert.Equal(t, "query", plan.Operation)

	_, err = PlanQuery(" ", "make count()", TimeRange{})
	require.Error(t, err)
}

// =============================================================================
// REPORT
// =============================================================================

func TestReport_Success(t *testing.T) {
	plan := &Plan{Operation: "dataset", SubOperation: "list"}
	out, code := Report(plan, &restapi.Response{StatusCode: 200, Body: []byte(`{"a":1}`), Duration: 120 * time.Millisecond}, DefaultLimits())
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "HTTP Status: 200")
	assert.Contains(t, out, "Response Time: 0.120s")
	assert.Contains(t, out, "✅ Success (200)")
	assert.Contains(t, out, "\"a\": 1")
}

func TestReport_ClientErrors(t *testing.T) {
	plan := &Plan{Operation: "dataset", SubOperation: "show"}
	out, code := Report(plan, &restapi.Response{StatusCode: 404, Body: []byte(`not here`)}, DefaultLimits())
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "❌ Client Error (404)")
	assert.Contains(t, out, "Make sure the dataset ID is correct")
	assert.Contains(t, out, "=== Full Error Response ===\nnot here")

	plan = &Plan{Operation: "query"}
	out, code = Report(plan, &restapi.Response{StatusCode: 422, Body: []byte(`{"message":"bad opal","code":"E42"}`)}, DefaultLimits())
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Unprocessable Entity")
	assert.Contains(t, out, "Check your OPAL query syntax")
	assert.Contains(t, out, "Error Message: bad opal")
	assert.Contains(t, out, "Error Code: E42")

	out, _ = Report(&Plan{Operation: "api"}, &restapi.Response{StatusCode: 401}, DefaultLimits())
	assert.Contains(t, out, "OBSERVE_API_KEY")
}

func TestReport_ServerAndUnexpected(t *testing.T) {
	out, code := Report(&Plan{}, &restapi.Response{StatusCode: 503, Body: []byte(`{"error":"down"}`)}, DefaultLimits())
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Service Unavailable")
	assert.Contains(t, out, "Error Message: down")

	out, code = Report(&Plan{}, &restapi.Response{StatusCode: 302, Body: []byte(`moved`)}, DefaultLimits())
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "⚠️  Unexpected Status (302)")
}

func TestReport_Truncation(t *testing.T) {
	var lines []string
	for i := 0; i < 150; i++ {
		lines = append(lines, "line")
	}
	out, _ := Report(&Plan{}, &restapi.Response{StatusCode: 200, Body: []byte(strings.Join(lines, "\n"))}, DefaultLimits())
	assert.Contains(t, out, "Output truncated to 100 lines")
	assert.NotContains(t, out, "characters. Refine")

	big := strings.Repeat("x", 20000)
	out, _ = Report(&Plan{}, &restapi.Response{StatusCode: 200, Body: []byte(big)}, DefaultLimits())
	assert.Contains(t, out, "Output truncated to 10000 characters")
	assert.Less(t, len(out), 11000)
}

func TestExtractErrorFields(t *testing.T) {
	f := ExtractErrorFields([]byte(`{"detail":"nope","error_code":17}`))
	assert.Equal(t, ErrorFields{Message: "nope", Code: "17"}, f)
	assert.Equal(t, ErrorFields{}, ExtractErrorFields([]byte(`[1,2]`)))
}

func TestNetworkFailure(t *testing.T) {
	plan := &Plan{Command: "dataset list", Operation: "dataset", SubOperation: "list"}
	err := &restapi.NetworkError{Kind: restapi.KindDNS, Err: errors.New("no such host")}
	out := NetworkFailure(plan, "https://acme.observeinc.com", err, Credentials{CustomerID: "acme", KeyLength: 5})
	assert.Contains(t, out, "Could not resolve host")
	assert.Contains(t, out, "length: 5 characters")
	assert.Contains(t, out, "Customer ID is set: acme")
}

// =============================================================================
// CLIENT
// =============================================================================

func TestClient_ExecuteQuery(t *testing.T) {
	var gotAuth, gotMethod, gotPath, gotQuery string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"rows":[]}`))
	}))
	defer server.Close()

	client := NewClient(restapi.New(BaseURL("acme", server.URL)), "acme", "secret")
	plan, err := ParseCommand(`advanced-query 99 --interval 1h --opal 'make count()'`)
	require.NoError(t, err)

	resp, err := client.Execute(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "Bearer acme secret", gotAuth)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/v1/meta/export/query", gotPath)
	assert.Equal(t, "interval=1h", gotQuery)
	assert.JSONEq(t, `{"query":{"stages":[{"input":[{"datasetId":"99"}],"stageID":"main","pipeline":"make count()"}]}}`, string(gotBody))
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "https://acme.observeinc.com", BaseURL("acme", ""))
	assert.Equal(t, "http://localhost:8080", BaseURL("acme", "http://localhost:8080/"))
}
