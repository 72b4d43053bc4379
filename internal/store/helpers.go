// ABOUTME: SQL helper functions for query construction and row decoding.
// ABOUTME: Utilities for LIKE escaping and SQLite timestamp parsing.

package store

import (
	"strings"
	"time"
)

// escapeSQLLike escapes SQL LIKE pattern special characters.
// The backslash must be escaped first to avoid double-escaping.
func escapeSQLLike(pattern string) string {
	pattern = strings.ReplaceAll(pattern, "\\", "\\\\")
	pattern = strings.ReplaceAll(pattern, "%", "\\%")
	pattern = strings.ReplaceAll(pattern, "_", "\\_")
	return pattern
}

// likePrefix builds a LIKE pattern matching values that start with prefix.
// City ids contain underscores, so they must not act as wildcards.
func likePrefix(prefix string) string {
	return escapeSQLLike(prefix) + "%"
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

// parseTimestamp accepts the layouts the sqlite driver produces. Unparseable
// or empty values give the zero time.
func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
