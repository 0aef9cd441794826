package audit

import (
	"os"
	"regexp"
	"strings"
)

// secretPattern matches "key=value"/"key: value" style assignments whose
// key name suggests a credential, so agent-generated metadata and previews
// never carry a live secret into the log.
var secretPattern = regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password|authorization)\s*[:=]\s*\S+`)

// SanitizeValue redacts substrings that look like credentials before a
// value is written to the audit trail.
func SanitizeValue(value string) string {
	return secretPattern.ReplaceAllString(value, "$1=[REDACTED]")
}

// SanitizePath replaces the current user's name and home directory, as
// reported by USERNAME/USER/HOME/USERPROFILE, with [USER]/[HOME]
// placeholders, so a logged path never carries an operator's identity.
// A variable that isn't set is skipped; presence is the only precondition.
func SanitizePath(path string) string {
	sanitized := path
	if username := os.Getenv("USERNAME"); username != "" {
		sanitized = strings.ReplaceAll(sanitized, username, "[USER]")
	}
	if user := os.Getenv("USER"); user != "" {
		sanitized = strings.ReplaceAll(sanitized, user, "[USER]")
	}
	if home := os.Getenv("HOME"); home != "" {
		sanitized = strings.ReplaceAll(sanitized, home, "[HOME]")
	}
	if userprofile := os.Getenv("USERPROFILE"); userprofile != "" {
		sanitized = strings.ReplaceAll(sanitized, userprofile, "[HOME]")
	}
	return sanitized
}

// Truncate returns the first n runes of s, appending an ellipsis if s was
// longer. Truncation counts Unicode scalar values, not bytes, so a
// multi-byte rune is never split.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}
