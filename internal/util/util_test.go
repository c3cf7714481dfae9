// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFileWithDir_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")

	require.NoError(t, AtomicWriteFileWithDir(path, []byte("hello, world!"), 0644, 0755))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello, world!", string(content))
}

func TestAtomicWriteFileWithDir_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "deep", "test.txt")

	require.NoError(t, AtomicWriteFileWithDir(path, []byte("test data"), 0644, 0755))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestAtomicWriteFileWithDir_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")

	require.NoError(t, AtomicWriteFileWithDir(path, []byte("initial"), 0644, 0755))
	require.NoError(t, AtomicWriteFileWithDir(path, []byte("updated"), 0644, 0755))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "updated", string(content))
}

func TestAtomicWriteFileWithDir_Permissions(t *testing.T) {
	if os.PathSeparator == '\\' {
		t.Skip("file modes are not enforced on windows")
	}
	path := filepath.Join(t.TempDir(), "secret")

	require.NoError(t, AtomicWriteFileWithDir(path, []byte("apikey = x"), 0600, 0755))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestAtomicWriteFileWithDir_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, AtomicWriteFileWithDir(filepath.Join(dir, "a.json"), []byte("{}"), 0644, 0755))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.json", entries[0].Name())
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestPrefixRunes(t *testing.T) {
	assert.Equal(t, "日本", PrefixRunes("日本語", 2))
	assert.Equal(t, "abc", PrefixRunes("abc", 10))
	assert.Equal(t, "", PrefixRunes("abc", 0))
}

func TestStringWidthAndPad(t *testing.T) {
	assert.Equal(t, 5, StringWidth("hello"))
	assert.Equal(t, 4, StringWidth("日本"))

	padded := PadRight("日本", 6)
	assert.Equal(t, 6, StringWidth(padded))
	assert.True(t, strings.HasPrefix(padded, "日本"))

	assert.Equal(t, "toolong", PadRight("toolong", 3))
}

func TestTruncateWidth(t *testing.T) {
	assert.Equal(t, "abc", TruncateWidth("abc", 5))
	assert.Equal(t, "ab...", TruncateWidth("abcdefgh", 5))
	assert.Equal(t, "", TruncateWidth("abc", 0))
}

// =============================================================================
// OUTPUT LIMIT TESTS
// =============================================================================

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, CountLines(""))
	assert.Equal(t, 1, CountLines("one"))
	assert.Equal(t, 1, CountLines("one\n"))
	assert.Equal(t, 3, CountLines("a\nb\nc"))
}

func TestLimitOutput_LineLimit(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 150; i++ {
		b.WriteString("line\n")
	}

	out, lim := LimitOutput(b.String(), 100, 0)

	assert.True(t, lim.LinesTruncated)
	assert.False(t, lim.CharsTruncated)
	assert.Equal(t, 150, lim.OriginalLines)
	assert.Equal(t, 100, CountLines(out))
}

func TestLimitOutput_CharLimit(t *testing.T) {
	out, lim := LimitOutput(strings.Repeat("é", 50), 0, 20)

	assert.True(t, lim.CharsTruncated)
	assert.Equal(t, 20, RuneLen(out))
	assert.Equal(t, 50, lim.OriginalChars)
}

func TestLimitOutput_Untouched(t *testing.T) {
	out, lim := LimitOutput("a\nb\n", 100, 10000)

	assert.Equal(t, "a\nb\n", out)
	assert.False(t, lim.Truncated())
}

func TestFirstLines(t *testing.T) {
	assert.Equal(t, "a\nb", FirstLines("a\nb\nc\nd", 2))
}

// =============================================================================
// CONVERSION TESTS
// =============================================================================

func TestParseBool(t *testing.T) {
	for _, s := range []string{"1", "true", "TRUE", "yes", "on"} {
		v, err := ParseBool(s)
		require.NoError(t, err, s)
		assert.True(t, v, s)
	}
	for _, s := range []string{"0", "false", "no", "off", ""} {
		v, err := ParseBool(s)
		require.NoError(t, err, s)
		assert.False(t, v, s)
	}
	_, err := ParseBool("maybe")
	assert.Error(t, err)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512B", FormatBytes(512))
	assert.Equal(t, "1.0K", FormatBytes(1024))
	assert.Equal(t, "1.5M", FormatBytes(1536*1024))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "850ms", FormatDuration(850*time.Millisecond))
	assert.Equal(t, "12s", FormatDuration(12*time.Second))
	assert.Equal(t, "3m", FormatDuration(3*time.Minute))
	assert.Equal(t, "3m20s", FormatDuration(200*time.Second))
}

func TestAtomicWriteFileWithDir_DirPermissions(t *testing.T) {
	if os.PathSeparator == '\\' {
		t.Skip("file modes are not enforced on windows")
	}
	dir := filepath.Join(t.TempDir(), "creds")

	require.NoError(t, AtomicWriteFileWithDir(filepath.Join(dir, "config"), []byte("x"), 0600, 0700))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}
