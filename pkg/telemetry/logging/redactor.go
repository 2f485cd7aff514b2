package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks credentials in log attributes.
type Redactor struct {
	patterns []redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// sensitiveKeys are attribute keys whose values are always masked.
var sensitiveKeys = []string{"token", "authorization", "password", "secret"}

// NewRedactor creates a Redactor with the built-in credential patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []redactPattern{
			// GitHub personal access tokens
			{regexp.MustCompile(`\b(ghp|gho|ghu|ghs|ghr)_[A-Za-z0-9]{20,}\b`), "gh*_***"},
			{regexp.MustCompile(`\bgithub_pat_[A-Za-z0-9_]{20,}\b`), "github_pat_***"},
			// Bearer and token authorization values
			{regexp.MustCompile(`(?i)(Bearer|token)\s+[A-Za-z0-9\-._~+/]+=*`), "$1 ***"},
			// Userinfo in URLs
			{regexp.MustCompile(`://[^/\s:@]+:[^/\s@]+@`), "://***@"},
		},
	}
}

// RedactString masks credentials found in s.
func (r *Redactor) RedactString(s string) string {
	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		if a.Value.Kind() == slog.KindString && a.Value.String() == "" {
			return a
		}
		return slog.String(a.Key, "***")
	}
	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	}
	return a
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range sensitiveKeys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
