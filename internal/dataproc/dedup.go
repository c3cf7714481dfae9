// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dataproc

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// RECORDS
// =============================================================================

// Field is one named value of a record.
type Field struct {
	Name  string
	Value string
}

// Record is an ordered set of fields. It marshals as a JSON object with keys
// in field order; empty values become null.
type Record []Field

// Get returns the value of name.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func (r Record) has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// MarshalJSON writes the fields in order. Strings are written unescaped, but
// json.Marshal re-escapes HTML in the result; only an Encoder with
// SetEscapeHTML(false), as used by Report.Marshal, keeps them as written.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, f.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if f.Value == "" {
			buf.WriteString("null")
			continue
		}
		if err := writeString(&buf, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode appends a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}

// Records converts every row to a record without deduplication.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.Rows))
	for i, row := range t.Rows {
		rec := make(Record, len(t.Columns))
		for j, c := range t.Columns {
			rec[j] = Field{Name: c, Value: row[j]}
		}
		out[i] = rec
	}
	return out
}

// =============================================================================
// DEDUPLICATION
// =============================================================================

// DedupResult is the outcome of Dedup.
type DedupResult struct {
	Records []Record

	// SourceColumn is the column rows were grouped by
	SourceColumn string

	// Sources is the number of distinct source values
	Sources int

	// Combinations counts groups whose descriptions were merged from more
	// than one distinct value
	Combinations int
}

// Dedup groups rows by source, then by the rights profile, and emits one
// record per group. Distinct non-empty content descriptions are joined with
// "; " in first-seen order; other columns come from the group's first row.
// Groups are emitted sorted by source, then by rights profile.
func Dedup(t *Table) *DedupResult {
	res := &DedupResult{SourceColumn: ColSource}
	if !t.Has(ColSource) {
		res.SourceColumn = t.Columns[0]
	}
	srcIdx := t.index(res.SourceColumn)

	var rightsIdx []int
	var rightsCols []string
	for _, c := range RightsColumns {
		if i := t.index(c); i >= 0 {
			rightsIdx = append(rightsIdx, i)
			rightsCols = append(rightsCols, c)
		}
	}

	bySource := make(map[string][][]string)
	for _, row := range t.Rows {
		bySource[row[srcIdx]] = append(bySource[row[srcIdx]], row)
	}
	sources := sortedKeys(bySource)
	res.Sources = countNonEmpty(sources)

	contentIdx := t.index(ColContent)
	for _, source := range sources {
		byRights := make(map[string][][]string)
		for _, row := range bySource[source] {
			k := rightsKey(row, rightsIdx)
			byRights[k] = append(byRights[k], row)
		}

		for _, k := range sortedKeys(byRights) {
			group := byRights[k]
			first := group[0]

			var description string
			if contentIdx >= 0 {
				descs := uniqueValues(group, contentIdx)
				description = strings.Join(descs, "; ")
				if len(descs) > 1 {
					res.Combinations++
				}
			} else {
				description = fallbackDescription(t, first)
			}

			rec := Record{
				{Name: res.SourceColumn, Value: source},
				{Name: ColContent, Value: description},
			}
			for i, c := range rightsCols {
				rec = append(rec, Field{Name: c, Value: first[rightsIdx[i]]})
			}
			for i, c := range t.Columns {
				if !rec.has(c) {
					rec = append(rec, Field{Name: c, Value: first[i]})
				}
			}
			res.Records = append(res.Records, rec)
		}
	}
	return res
}

// rightsKey joins the profile cells with a separator no cell can contain.
func rightsKey(row []string, idx []int) string {
	parts := make([]string, len(idx))
	for i, j := range idx {
		parts[i] = row[j]
	}
	return strings.Join(parts, "\x1f")
}

func uniqueValues(rows [][]string, col int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range rows {
		v := row[col]
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// fallbackDescription is the first non-numeric cell of the row, for tables
// without a Content Description column.
func fallbackDescription(t *Table, row []string) string {
	for i := range t.Columns {
		v := row[i]
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return v
		}
	}
	return "No content description"
}

func sortedKeys(m map[string][][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func countNonEmpty(values []string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}
