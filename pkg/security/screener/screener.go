// Package screener inspects and sanitizes structured request payloads
// before they reach handlers. It is stateless: all functions are pure
// over their inputs and safe for concurrent use.
package screener

import "regexp"

// Patterns stripped by Sanitize. Matching is case-insensitive and
// tolerant of attribute noise inside tags.
var (
	scriptTagPattern  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	scriptOpenPattern = regexp.MustCompile(`(?i)</?script[^>]*>`)
	iframeTagPattern  = regexp.MustCompile(`(?is)<iframe[^>]*>.*?</iframe>`)
	iframeOpenPattern = regexp.MustCompile(`(?i)</?iframe[^>]*>`)
	jsURIPattern      = regexp.MustCompile(`(?i)javascript\s*:`)
	eventAttrPattern  = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// Injection signatures for LooksLikeInjection. A SQL keyword alone is not
// enough ("Drop It Like It's Hot" is a legitimate track title); each
// pattern pairs a keyword with the statement shape or the quote and
// semicolon tokens an attack actually needs.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bunion\s+(all\s+)?select\b`),
	regexp.MustCompile(`(?i)\bselect\b.+\bfrom\b`),
	regexp.MustCompile(`(?i)\b(drop|truncate|alter)\s+(table|database|index)\b`),
	regexp.MustCompile(`(?i)\binsert\s+into\b`),
	regexp.MustCompile(`(?i)\bdelete\s+from\b`),
	regexp.MustCompile(`(?i)\bupdate\s+\w+\s+set\b`),
	regexp.MustCompile(`(?i)'\s*(or|and)\b`),
	regexp.MustCompile(`(?i);\s*(drop|delete|update|insert|select|exec)\b`),
}

var encodedTagPattern = regexp.MustCompile(`(?i)(%3c|&lt;)\s*/?\s*(script|iframe)`)

// Sanitize recursively walks a decoded JSON value and strips
// script-injection vectors from every string, including map keys.
// Numbers, booleans, and nulls pass through unchanged. Sanitize is
// idempotent: applying it to its own output changes nothing.
func Sanitize(v any) any {
	switch val := v.(type) {
	case string:
		return sanitizeString(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[sanitizeString(k)] = Sanitize(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = Sanitize(inner)
		}
		return out
	default:
		return v
	}
}

// sanitizeString strips injection patterns, looping until no pattern
// matches. Removing one pattern can expose another (for example
// "<scr<script>ipt>" collapses into a script tag after one pass), so a
// single pass is not enough to guarantee idempotence.
func sanitizeString(s string) string {
	for {
		next := scriptTagPattern.ReplaceAllString(s, "")
		next = scriptOpenPattern.ReplaceAllString(next, "")
		next = iframeTagPattern.ReplaceAllString(next, "")
		next = iframeOpenPattern.ReplaceAllString(next, "")
		next = jsURIPattern.ReplaceAllString(next, "")
		next = eventAttrPattern.ReplaceAllString(next, "")
		if next == s {
			return next
		}
		s = next
	}
}

// LooksLikeInjection reports whether a string carries a SQL or markup
// injection signature. It errs toward false: ordinary prose containing a
// SQL keyword does not match unless the surrounding tokens form a
// statement shape.
func LooksLikeInjection(s string) bool {
	if encodedTagPattern.MatchString(s) {
		return true
	}
	for _, p := range injectionPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// ScanValues walks a decoded JSON value and reports the first string
// (value or map key) that looks like an injection attempt. The empty
// string and false mean the value is clean.
func ScanValues(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		if LooksLikeInjection(val) {
			return val, true
		}
	case map[string]any:
		for k, inner := range val {
			if LooksLikeInjection(k) {
				return k, true
			}
			if s, found := ScanValues(inner); found {
				return s, true
			}
		}
	case []any:
		for _, inner := range val {
			if s, found := ScanValues(inner); found {
				return s, true
			}
		}
	}
	return "", false
}
