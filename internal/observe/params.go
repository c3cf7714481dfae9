// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package observe

import (
	"net/url"
	"strings"
)

// QueryParams are the URL parameters the api operation can add on top of a
// raw query string.
type QueryParams struct {
	TimeStart  string
	TimeEnd    string
	TimePreset string

	// Filter is passed through as filter=<value>
	Filter string

	// FilterColumn/FilterValue become filter-<col>=<val>, or
	// filter=<col>|<op>|<val> when FilterOperator is set
	FilterColumn   string
	FilterOperator string
	FilterValue    string

	OPAL string

	ParamKey   string
	ParamValue string

	Tab       string
	Dashboard string
}

type pair struct{ key, value string }

// Encode renders the parameters in a stable order with values escaped.
// Unset parameters are omitted; an empty result means no parameters.
func (p QueryParams) Encode() string {
	var pairs []pair
	add := func(k, v string) {
		if v != "" {
			pairs = append(pairs, pair{k, v})
		}
	}

	add("time-start", p.TimeStart)
	add("time-end", p.TimeEnd)
	add("time-preset", p.TimePreset)
	add("filter", p.Filter)
	if p.FilterColumn != "" && p.FilterValue != "" {
		if p.FilterOperator != "" {
			add("filter", p.FilterColumn+"|"+p.FilterOperator+"|"+p.FilterValue)
		} else {
			add("filter-"+p.FilterColumn, p.FilterValue)
		}
	}
	add("opal", p.OPAL)
	if p.ParamKey != "" && p.ParamValue != "" {
		add("param-"+p.ParamKey, p.ParamValue)
	}
	add("v-tab", p.Tab)
	add("v-dash", p.Dashboard)

	parts := make([]string, len(pairs))
	for i, kv := range pairs {
		parts[i] = url.QueryEscape(kv.key) + "=" + url.QueryEscape(kv.value)
	}
	return strings.Join(parts, "&")
}

// set assigns a flag value by its command-line name. Returns false for an
// unknown flag.
func (p *QueryParams) set(flag, value string) bool {
	switch flag {
	case "--time-start":
		p.TimeStart = value
	case "--time-end":
		p.TimeEnd = value
	case "--time-preset":
		p.TimePreset = value
	case "--filter":
		p.Filter = value
	case "--filter-column":
		p.FilterColumn = value
	case "--filter-operator":
		p.FilterOperator = value
	case "--filter-value":
		p.FilterValue = value
	case "--opal":
		p.OPAL = SanitizeOPAL(value)
	case "--param-key":
		p.ParamKey = value
	case "--param-value":
		p.ParamValue = value
	case "--v-tab":
		p.Tab = value
	case "--v-dash":
		p.Dashboard = value
	default:
		return false
	}
	return true
}

// TimeRange holds the query-export window parameters.
type TimeRange struct {
	StartTime string
	EndTime   string
	Interval  string
}

// Encode renders startTime, endTime and interval in that order.
func (t TimeRange) Encode() string {
	var parts []string
	if t.StartTime != "" {
		parts = append(parts, "startTime="+url.QueryEscape(t.StartTime))
	}
	if t.EndTime != "" {
		parts = append(parts, "endTime="+url.QueryEscape(t.EndTime))
	}
	if t.Interval != "" {
		parts = append(parts, "interval="+url.QueryEscape(t.Interval))
	}
	return strings.Join(parts, "&")
}
