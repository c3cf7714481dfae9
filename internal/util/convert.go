// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IntToStr converts an int to string.
func IntToStr(i int) string {
	return strconv.Itoa(i)
}

// ParseBool interprets the loose boolean spellings accepted on the command
// line and in environment variables ("1", "true", "yes", "on").
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// FormatBytes renders a byte count in the short human form used by `du -h`.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + "B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats a duration compactly: 850ms, 12s, 3m, 3m20s.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return IntToStr(int(d.Milliseconds())) + "ms"
	}
	if d < time.Minute {
		return IntToStr(int(d.Seconds())) + "s"
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return IntToStr(mins) + "m"
	}
	return IntToStr(mins) + "m" + IntToStr(secs) + "s"
}
