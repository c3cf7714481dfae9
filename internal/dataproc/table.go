// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dataproc parses rights spreadsheets exported as CSV or TSV and
// collapses duplicate rows into one record per source and rights profile.
package dataproc

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column names of the expected rights export.
const (
	ColSource       = "Source"
	ColContent      = "Content Description"
	ColRights       = "Rights (Media - Territory - Term)"
	ColExclusions   = "Authorized Exclusions and/or Promotional Restrictions"
	ColRestrictions = "Program only / Series only / No usage restrictions"
)

// ExpectedColumns lists every column the deduplication understands.
var ExpectedColumns = []string{ColSource, ColContent, ColRights, ColExclusions, ColRestrictions}

// RightsColumns are the columns that together form a rights profile.
var RightsColumns = []string{ColRights, ColExclusions, ColRestrictions}

// metadataRows is how many leading rows shot-sheet exports carry before the
// header when no header row can be found.
const metadataRows = 15

// ErrNoData is returned when the input has no parseable table at all.
var ErrNoData = errors.New("no data could be parsed")

// Layout names how a table was read.
type Layout string

const (
	LayoutCSV         Layout = "csv"
	LayoutCSVMetadata Layout = "csv_metadata_skipped"
	LayoutTSV         Layout = "tsv"
)

// Table is parsed tabular data. Every row has len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
	Layout  Layout

	// SkippedRows is how many leading lines were dropped before the header
	SkippedRows int
}

// Has reports whether the table has column name.
func (t *Table) Has(name string) bool {
	return t.index(name) >= 0
}

func (t *Table) index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// MissingColumns returns the expected columns the table lacks.
func (t *Table) MissingColumns() []string {
	var missing []string
	for _, c := range ExpectedColumns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Recognized reports whether at least one expected column is present.
func (t *Table) Recognized() bool {
	return len(t.MissingColumns()) < len(ExpectedColumns)
}

// ParseTable reads content trying, in order: plain CSV, CSV starting at the
// detected metadata header row, CSV after the first 15 rows, and TSV. The
// first layout that carries an expected column wins. When none does, the
// first layout that parsed at all is returned so the caller can still export
// it as an unexpected format.
func ParseTable(content string) (*Table, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	lines := splitLines(content)
	if len(lines) == 0 {
		return nil, ErrNoData
	}

	var candidates []*Table
	try := func(layout Layout, skip int, comma rune) *Table {
		if skip >= len(lines) {
			return nil
		}
		t, err := parse(strings.Join(lines[skip:], "\n"), comma)
		if err != nil || len(t.Columns) == 0 {
			return nil
		}
		// A single column means the delimiter is wrong
		if comma == '\t' && len(t.Columns) < 2 {
			return nil
		}
		t.Layout = layout
		t.SkippedRows = skip
		candidates = append(candidates, t)
		if t.Recognized() {
			return t
		}
		return nil
	}

	if t := try(LayoutCSV, 0, ','); t != nil {
		return t, nil
	}
	if row := headerRow(lines); row > 0 {
		if t := try(LayoutCSVMetadata, row, ','); t != nil {
			return t, nil
		}
	}
	if t := try(LayoutCSVMetadata, metadataRows, ','); t != nil {
		return t, nil
	}
	if t := try(LayoutTSV, 0, '\t'); t != nil {
		return t, nil
	}

	if len(candidates) > 0 {
		return candidates[0], nil
	}
	return nil, ErrNoData
}

// headerRow returns the index of the first line naming both Source and
// Content Description, or -1.
func headerRow(lines []string) int {
	for i, line := range lines {
		if strings.Contains(line, ColSource) && strings.Contains(line, ColContent) {
			return i
		}
	}
	return -1
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimRight(content, "\n")
	if strings.TrimSpace(content) == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

func parse(content string, comma rune) (*Table, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	t := &Table{Columns: make([]string, len(header))}
	for i, h := range header {
		t.Columns[i] = strings.TrimSpace(h)
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if blank(rec) {
			continue
		}
		row := make([]string, len(t.Columns))
		for i := range row {
			if i < len(rec) {
				row[i] = strings.TrimSpace(rec[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
