// Package logutil bounds free-form text before it is logged or stored.
package logutil

import "unicode/utf8"

// TruncateForLog shortens s to at most maxLen bytes, appending "..." when
// cut. It never splits a multi-byte rune.
func TruncateForLog(s string, maxLen int) string {
	if maxLen <= 0 {
		return "..."
	}
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
