// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package confluence

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/restapi"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/util"
)

// maxExcerpt is how many characters of an excerpt are shown.
const maxExcerpt = 200

var separator = strings.Repeat("=", 60)

// CleanExcerpt strips markup from a search excerpt and cuts it to 200
// characters, appending "..." when it was longer.
func CleanExcerpt(excerpt string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(excerpt))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(z.Text())
		}
	}

	text := strings.TrimSpace(b.String())
	if util.RuneLen(text) > maxExcerpt {
		return util.PrefixRunes(text, maxExcerpt) + "..."
	}
	return text
}

// WriteHeader prints the search banner.
func WriteHeader(w io.Writer, baseURL string, req SearchRequest) {
	fmt.Fprintf(w, "🔍 Searching Confluence for: '%s'\n", req.Query)
	if req.SpaceKey != "" {
		fmt.Fprintf(w, "📁 In space: %s\n", req.SpaceKey)
	}
	fmt.Fprintf(w, "🔗 URL: %s\n", strings.TrimSuffix(baseURL, "/"))
	fmt.Fprintln(w, separator)
}

// WriteResults prints every result block and the closing summary.
func WriteResults(w io.Writer, baseURL string, resp *SearchResponse) {
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, "📭 No results found for your search query.")
		return
	}

	fmt.Fprintf(w, "📊 Found %d result(s):\n\n", len(resp.Results))
	for i, r := range resp.Results {
		c := r.Content
		fmt.Fprintf(w, "🔸 Result #%d\n", i+1)
		fmt.Fprintf(w, "   📄 Title: %s\n", orDefault(c.Title, "No title"))
		fmt.Fprintf(w, "   🏠 Space: %s\n", orDefault(c.Space.Name, "Unknown space"))
		fmt.Fprintf(w, "   📋 Type: %s\n", orDefault(c.Type, "page"))
		fmt.Fprintf(w, "   🔗 URL: %s\n", PageURL(baseURL, c))
		if excerpt := CleanExcerpt(r.Excerpt); excerpt != "" {
			fmt.Fprintf(w, "   📝 Excerpt: %s\n", excerpt)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "✅ Search completed successfully. Found %d result(s).\n", len(resp.Results))
}

// WriteError prints the message for a failed search.
func WriteError(w io.Writer, err error) {
	var statusErr *restapi.StatusError
	var netErr *restapi.NetworkError
	switch {
	case errors.Is(err, ErrAuthFailed):
		fmt.Fprintln(w, "❌ Authentication failed. Please check your credentials.")
	case errors.Is(err, ErrNotFound):
		fmt.Fprintln(w, "❌ Confluence instance not found. Please check the URL.")
	case errors.As(err, &statusErr):
		fmt.Fprintf(w, "❌ API request failed with status %d\n", statusErr.StatusCode)
		fmt.Fprintf(w, "Response: %s\n", statusErr.Body)
	case errors.As(err, &netErr):
		fmt.Fprintf(w, "❌ Network error: %v\n", err)
	default:
		fmt.Fprintf(w, "❌ Unexpected error: %v\n", err)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
