// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package argocd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/util"
)

// =============================================================================
// TABLES
// =============================================================================

// columnGap separates table columns.
const columnGap = "  "

// writeTable prints rows aligned under headers. Widths are display widths, so
// names containing wide characters still line up.
func writeTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = util.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				if cw := util.StringWidth(cell); cw > widths[i] {
					widths[i] = cw
				}
			}
		}
	}

	writeRow := func(cells []string) {
		var b strings.Builder
		for i, cell := range cells {
			if i == len(cells)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(util.PadRight(cell, widths[i]))
			b.WriteString(columnGap)
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}

	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
}

// =============================================================================
// SUMMARIES
// =============================================================================

// writeBreakdown prints "title:" followed by one "  value: count" line per
// distinct value, sorted by value.
func writeBreakdown(w io.Writer, title string, values []string) {
	counts := make(map[string]int)
	for _, v := range values {
		counts[or(v, "unknown")]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w, title+":")
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %d\n", k, counts[k])
	}
}

// =============================================================================
// STRUCTURED OUTPUT
// =============================================================================

// writeJSON pretty-prints raw JSON.
func writeJSON(w io.Writer, data []byte) {
	fmt.Fprintln(w, prettyJSON(data))
}

// writeValueJSON marshals v with indentation.
func writeValueJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// writeYAML converts raw JSON to YAML.
func writeYAML(w io.Writer, data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	_, err = w.Write(out)
	return err
}

// joinRaw renders raw items as one JSON array.
func joinRaw(items []json.RawMessage) []byte {
	parts := make([][]byte, len(items))
	for i, item := range items {
		parts[i] = item
	}
	out := append([]byte("["), bytes.Join(parts, []byte(","))...)
	return append(out, ']')
}

// oneLine collapses newlines and cuts s to n runes.
func oneLine(s string, n int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return util.PrefixRunes(s, n)
}
