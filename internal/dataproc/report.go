// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dataproc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Quality scores reported for each processing path.
const (
	QualityNormal     = 95
	QualityUnexpected = 50
)

// Report is the JSON document uploaded for one processed file.
type Report struct {
	ProcessingSummary   ProcessingSummary `json:"processing_summary"`
	ProcessedData       []Record          `json:"processed_data"`
	DeduplicationReport DedupReport       `json:"deduplication_report"`
	ValidationReport    ValidationReport  `json:"validation_report"`
}

// ProcessingSummary holds the headline counts.
type ProcessingSummary struct {
	TotalRecords                int    `json:"total_records"`
	DuplicatesRemoved           int    `json:"duplicates_removed"`
	GroupsCreated               int    `json:"groups_created"`
	ContentDescriptionsCombined int    `json:"content_descriptions_combined"`
	FormatConverted             string `json:"format_converted"`
	DataQualityScore            int    `json:"data_quality_score"`
	Error                       string `json:"error,omitempty"`
}

// DedupReport describes what deduplication did.
type DedupReport struct {
	SourcesProcessed        int    `json:"sources_processed"`
	RecordsBeforeDedup      int    `json:"records_before_dedup"`
	RecordsAfterDedup       int    `json:"records_after_dedup"`
	ContentCombinationsMade int    `json:"content_combinations_made"`
	Note                    string `json:"note,omitempty"`
}

// ValidationReport lists format problems.
type ValidationReport struct {
	IssuesFound     []string `json:"issues_found"`
	Recommendations []string `json:"recommendations"`
}

// Unexpected reports whether the input lacked every expected column and was
// exported without deduplication.
func (r *Report) Unexpected() bool {
	return r.ProcessingSummary.Error != ""
}

// Process deduplicates t, or exports it unchanged when none of the expected
// columns are present.
func Process(t *Table) *Report {
	missing := t.MissingColumns()
	total := len(t.Rows)

	if !t.Recognized() {
		records := t.Records()
		return &Report{
			ProcessingSummary: ProcessingSummary{
				TotalRecords:     total,
				GroupsCreated:    total,
				FormatConverted:  "csv_to_json",
				DataQualityScore: QualityUnexpected,
				Error:            "Unexpected CSV format - processed with available columns",
			},
			ProcessedData: records,
			DeduplicationReport: DedupReport{
				SourcesProcessed:   distinct(t, 0),
				RecordsBeforeDedup: total,
				RecordsAfterDedup:  total,
				Note:               "No deduplication performed due to unexpected format",
			},
			ValidationReport: ValidationReport{
				IssuesFound: []string{"Expected columns not found: " + strings.Join(missing, ", ")},
				Recommendations: []string{
					"Ensure CSV has the expected columns for proper deduplication",
					"Check the data source format and column names",
				},
			},
		}
	}

	res := Dedup(t)
	after := len(res.Records)
	if missing == nil {
		missing = []string{}
	}
	return &Report{
		ProcessingSummary: ProcessingSummary{
			TotalRecords:                total,
			DuplicatesRemoved:           total - after,
			GroupsCreated:               after,
			ContentDescriptionsCombined: res.Combinations,
			FormatConverted:             "csv_to_json",
			DataQualityScore:            QualityNormal,
		},
		ProcessedData: nonNil(res.Records),
		DeduplicationReport: DedupReport{
			SourcesProcessed:        res.Sources,
			RecordsBeforeDedup:      total,
			RecordsAfterDedup:       after,
			ContentCombinationsMade: res.Combinations,
		},
		ValidationReport: ValidationReport{
			IssuesFound:     missing,
			Recommendations: []string{"Ensure all expected columns are present in future uploads"},
		},
	}
}

// Marshal renders the report as indented JSON with non-ASCII kept as is.
func (r *Report) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return buf.Bytes(), nil
}

func distinct(t *Table, col int) int {
	seen := make(map[string]bool)
	for _, row := range t.Rows {
		if row[col] != "" {
			seen[row[col]] = true
		}
	}
	return len(seen)
}

func nonNil(r []Record) []Record {
	if r == nil {
		return []Record{}
	}
	return r
}
