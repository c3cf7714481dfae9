// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package observe

import (
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/mattn/go-shellwords"
)

// =============================================================================
// PLAN
// =============================================================================

// Plan is a parsed command: the API call to make plus what to tell the caller.
type Plan struct {
	Command      string
	Operation    string
	SubOperation string

	Method   string
	Path     string
	RawQuery string
	Body     []byte

	// Notes are printed before the call ("Listing datasets...")
	Notes []string
}

// UsageError is a command that cannot be turned into an API call. Message is
// the full multi-line text shown to the caller.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

func usagef(format string, args ...interface{}) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// QueryPayload is the export-query request body.
type QueryPayload struct {
	Query QueryStages `json:"query"`
}

// QueryStages holds the pipeline stages of a query.
type QueryStages struct {
	Stages []Stage `json:"stages"`
}

// Stage is one OPAL pipeline applied to its inputs.
type Stage struct {
	Input    []StageInput `json:"input"`
	StageID  string       `json:"stageID"`
	Pipeline string       `json:"pipeline"`
}

// StageInput names an input dataset.
type StageInput struct {
	DatasetID string `json:"datasetId"`
}

// NewQueryPayload builds the single-stage payload for dataset and pipeline.
// The pipeline is sanitized here so every query path embeds it the same way.
func NewQueryPayload(datasetID, pipeline string) QueryPayload {
	return QueryPayload{Query: QueryStages{Stages: []Stage{{
		Input:    []StageInput{{DatasetID: datasetID}},
		StageID:  "main",
		Pipeline: SanitizeOPAL(pipeline),
	}}}}
}

const exportQueryPath = "/v1/meta/export/query"

// =============================================================================
// PARSING
// =============================================================================

// resources maps the list/show operations to their API collections.
var resources = map[string]struct {
	path  string
	noun  string
	idArg string
}{
	"dataset":            {"/v1/dataset", "dataset", "dataset-id"},
	"monitors":           {"/v1/monitors", "monitor", "monitor-id"},
	"monitor-mute-rules": {"/v1/monitor-mute-rules", "monitor mute rule", "mute-rule-id"},
	"referencetables":    {"/v1/referencetables", "reference table", "table-id"},
}

var listNotes = map[string]string{
	"dataset":            "Listing datasets...",
	"monitors":           "Listing monitors...",
	"monitor-mute-rules": "Listing monitor mute rules...",
	"referencetables":    "Listing reference tables...",
}

var idLabels = map[string]string{
	"dataset":            "Dataset ID",
	"monitors":           "Monitor ID",
	"monitor-mute-rules": "Mute Rule ID",
	"referencetables":    "Reference Table ID",
}

// ParseCommand turns a command string into a Plan.
func ParseCommand(command string) (*Plan, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, &UsageError{Message: "Error: Command is required\n" + usageText}
	}

	op, rest := nextField(command)
	sub, _ := nextField(rest)
	plan := &Plan{Command: command, Operation: op, SubOperation: sub}

	var err error
	switch op {
	case "dataset", "monitors", "monitor-mute-rules", "referencetables":
		err = parseResource(plan, rest)
	case "query":
		err = parseQuery(plan, rest)
	case "advanced-query":
		err = parseAdvancedQuery(plan, rest)
	case "api":
		err = parseAPI(plan, rest)
	default:
		err = usagef("Error: Unknown operation: %s\n"+
			"Supported operations: dataset, monitors, monitor-mute-rules, referencetables, query, api, advanced-query\n\n"+
			"💡 Hint: Try one of these common operations:\n"+
			"   - 'dataset list' - List all datasets\n"+
			"   - 'monitors list' - List all monitors\n"+
			"   - 'query <dataset-id> <opal-query>' - Execute a query\n"+
			"   - 'api GET /v1/dataset' - Make a custom API call\n", op)
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func parseResource(plan *Plan, rest string) error {
	res := resources[plan.Operation]
	fields := strings.Fields(rest)
	sub := ""
	if len(fields) > 0 {
		sub = fields[0]
	}

	switch sub {
	case "list":
		plan.Method = http.MethodGet
		plan.Path = res.path
		plan.Notes = append(plan.Notes, listNotes[plan.Operation])
		return nil
	case "show":
		if len(fields) < 2 {
			return usagef("Error: %s is required for '%s show'\n\n"+
				"💡 Hint: Use '%s list' to see available %s IDs first.\n"+
				"   Then use: %s show <%s>\n",
				idLabels[plan.Operation], plan.Operation, plan.Operation, res.noun, plan.Operation, res.idArg)
		}
		plan.Method = http.MethodGet
		plan.Path = res.path + "/" + fields[1]
		plan.Notes = append(plan.Notes, fmt.Sprintf("Showing %s: %s", res.noun, fields[1]))
		return nil
	default:
		return usagef("Error: Unknown %s operation: %s\nSupported: list, show\n", plan.Operation, sub)
	}
}

func parseQuery(plan *Plan, rest string) error {
	datasetID, opal := nextField(rest)
	opal = strings.TrimSpace(opal)
	if datasetID == "" || opal == "" {
		return &UsageError{Message: "Error: Query requires dataset ID and OPAL query\n" +
			"Usage: query <dataset-id> <opal-query>\n\n" +
			"💡 Hint: Use 'dataset list' to see available dataset IDs first.\n" +
			opalExamples}
	}
	return planQuery(plan, datasetID, opal, TimeRange{})
}

func parseAdvancedQuery(plan *Plan, rest string) error {
	args, err := splitArgs(rest)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return &UsageError{Message: "Error: Advanced query requires dataset ID\n" + advancedUsage}
	}

	datasetID := args[0]
	var tr TimeRange
	var opal string
	for i := 1; i < len(args); i += 2 {
		flag := args[i]
		if i+1 >= len(args) {
			return usagef("Error: Option %s requires a value\n", flag)
		}
		value := args[i+1]
		switch flag {
		case "--startTime":
			tr.StartTime = value
		case "--endTime":
			tr.EndTime = value
		case "--interval":
			tr.Interval = value
		case "--opal":
			opal = value
		default:
			return usagef("Error: Unknown option %s\n", flag)
		}
	}
	return planQuery(plan, datasetID, opal, tr)
}

// PlanQuery builds the export-query plan used by the named-parameter tool.
func PlanQuery(datasetID, opal string, tr TimeRange) (*Plan, error) {
	plan := &Plan{Operation: "query", Command: "query " + datasetID}
	if tr != (TimeRange{}) {
		plan.Operation = "advanced-query"
	}
	if strings.TrimSpace(datasetID) == "" {
		return nil, &UsageError{Message: "Error: dataset_id is required\n"}
	}
	if err := planQuery(plan, datasetID, opal, tr); err != nil {
		return nil, err
	}
	return plan, nil
}

func planQuery(plan *Plan, datasetID, opal string, tr TimeRange) error {
	body, err := encodePayload(NewQueryPayload(datasetID, opal))
	if err != nil {
		return err
	}
	plan.Method = http.MethodPost
	plan.Path = exportQueryPath
	plan.RawQuery = tr.Encode()
	plan.Body = body
	plan.Notes = append(plan.Notes, "Executing OPAL query on dataset: "+datasetID)
	if opal != "" {
		plan.Notes = append(plan.Notes, "Query: "+SanitizeOPAL(opal))
	}
	return nil
}

func parseAPI(plan *Plan, rest string) error {
	args, err := splitArgs(rest)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return &UsageError{Message: "Error: API call requires method and endpoint\n" +
			"Usage: api <method> <endpoint> [query-params] [body]\n\n" + FormatEndpoints()}
	}

	method := strings.ToUpper(args[0])
	endpoint := args[1]
	plan.SubOperation = method

	var params QueryParams
	var positional []string
	for i := 2; i < len(args); i++ {
		if strings.HasPrefix(args[i], "--") && i+1 < len(args) && params.set(args[i], args[i+1]) {
			i++
			continue
		}
		positional = append(positional, args[i])
	}
	if len(positional) > 2 {
		return usagef("Error: Unexpected arguments: %s\nUsage: api <method> <endpoint> [query-params] [body]\n",
			strings.Join(positional[2:], " "))
	}

	if !IsValidAPI(method, endpoint) {
		var b strings.Builder
		fmt.Fprintf(&b, "❌ Error: Invalid API endpoint or method: %s %s\n\n", method, endpoint)
		b.WriteString(FormatEndpoints())
		b.WriteString("\nHint: Did you mean one of these?\n")
		suggestions := Suggest(method, endpoint)
		if len(suggestions) == 0 {
			b.WriteString("(see full list above)\n")
		}
		for _, ep := range suggestions {
			b.WriteString("  " + ep.String() + "\n")
		}
		return &UsageError{Message: b.String()}
	}

	path, inlineQuery, _ := strings.Cut(endpoint, "?")
	var queries []string
	for _, q := range []string{inlineQuery, firstOf(positional, 0), params.Encode()} {
		if q = strings.TrimPrefix(q, "?"); q != "" {
			queries = append(queries, q)
		}
	}

	plan.Method = method
	plan.Path = path
	plan.RawQuery = strings.Join(queries, "&")
	if body := firstOf(positional, 1); body != "" {
		plan.Body = []byte(body)
	}
	plan.Notes = append(plan.Notes, fmt.Sprintf("Making API call: %s %s", method, path))
	return nil
}

// nextField splits off the first whitespace-delimited field and returns the
// raw remainder, so OPAL text after it keeps its spacing and quotes.
func nextField(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

// splitArgs tokenizes option-style arguments with shell quoting rules.
// Nothing runs in a shell here, so operators such as & in a query string or
// | in an OPAL pipeline are ordinary characters.
func splitArgs(s string) ([]string, error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = false
	parser.ParseBacktick = false
	args, err := parser.Parse(escapeOperators(s))
	if err != nil {
		return nil, usagef("Error: Invalid command syntax: %v\n", err)
	}
	if parser.Position >= 0 {
		return nil, usagef("Error: Invalid command syntax near position %d\n", parser.Position)
	}
	return args, nil
}

// escapeOperators backslash-escapes unquoted shell operator characters so the
// tokenizer keeps them inside the current word.
func escapeOperators(s string) string {
	var b strings.Builder
	var inSingle, inDouble, escaped bool
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && !inSingle:
			escaped = true
		case r == '\'' && !inDouble:
			inSingle = !inSingle
		case r == '"' && !inSingle:
			inDouble = !inDouble
		case !inSingle && !inDouble && strings.ContainsRune("&|;<>", r):
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func firstOf(list []string, i int) string {
	if i < len(list) {
		return list[i]
	}
	return ""
}

// =============================================================================
// USAGE TEXT
// =============================================================================

const opalExamples = `   Common OPAL query examples:
   - query <dataset-id> 'filter severity == "error"'
   - query <dataset-id> 'filter timestamp > "2023-01-01T00:00:00Z"'
   - query <dataset-id> 'make count()'
   - query <dataset-id> 'filter message =~ "error" | make count()'
`

const advancedUsage = `Usage: advanced-query <dataset-id> [options]

Options:
  --startTime <ISO8601>         Start time (e.g. 2023-04-20T16:20:00Z)
  --endTime <ISO8601>           End time (e.g. 2023-04-20T16:30:00Z)
  --interval <duration>         Interval (e.g. 1h, 10m)
  --opal <opal-statement>       OPAL statement

Examples:
  advanced-query 41007104 --interval 1h
  advanced-query 41007104 --startTime 2023-04-20T16:20:00Z --endTime 2023-04-20T16:30:00Z
  advanced-query 41007104 --opal 'filter severity == "error"'
`

const usageText = `Usage examples:
  'dataset list' - List all datasets
  'dataset show <dataset-id>' - Show dataset details
  'monitors list' - List all monitors
  'monitors show <monitor-id>' - Show monitor details
  'monitor-mute-rules list' - List all monitor mute rules
  'monitor-mute-rules show <mute-rule-id>' - Show monitor mute rule details
  'referencetables list' - List all reference tables
  'referencetables show <table-id>' - Show reference table details
  'query <dataset-id> <opal-query>' - Execute OPAL query
  'api <method> <endpoint> [query-params] [body]' - Custom API call
  'advanced-query <dataset-id> [options]' - Advanced query with filters and parameters

Advanced URL Parameters:
  Time ranges: startTime, endTime, interval
  Filters: filter-<column>=<value>, filter=<column>|<operator>|<value>
  OPAL: opal=<opal-statement>
  Parameters: param-<key>=<value>

Advanced Query Examples:
  advanced-query 41007104 --interval 1h
  advanced-query 41007104 --startTime 2023-04-20T16:20:00Z --endTime 2023-04-20T16:30:00Z
  advanced-query 41007104 --opal 'filter severity == "error"'
`
