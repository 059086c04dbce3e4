package translator

import (
	"strings"
)

// Sanitize normalizes raw model output into a candidate JSON payload. It
// strips a UTF-8 BOM, a surrounding markdown code fence (``` or ~~~, with or
// without a language tag), a bare leading "json" tag, and outer whitespace.
// Characters of the remaining payload are never rewritten, so applying it
// twice changes nothing.
func Sanitize(raw string) string {
	s := raw
	for {
		next := sanitizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func sanitizeOnce(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "\uFEFF")
	if inner, ok := stripCodeFence(s); ok {
		s = strings.TrimSpace(inner)
	}
	return strings.TrimSpace(stripJSONTag(s))
}

// stripCodeFence removes one surrounding fenced block when s starts with
// ``` or ~~~. The opening fence may carry a language tag, on its own line or
// inline; an unclosed fence keeps the remainder as the payload.
func stripCodeFence(s string) (inner string, ok bool) {
	var fence string
	switch {
	case strings.HasPrefix(s, "```"):
		fence = "```"
	case strings.HasPrefix(s, "~~~"):
		fence = "~~~"
	default:
		return "", false
	}
	rest := s[len(fence):]
	if idx := strings.IndexByte(rest, '\n'); idx != -1 && !jsonStartsBefore(rest, idx) {
		// Normal form: the opening line holds only the language tag.
		rest = rest[idx+1:]
	} else {
		// Inline form like ```json{...}```; the tag is stripped separately.
		rest = stripJSONTag(strings.TrimLeft(rest, " \t"))
	}
	if end := strings.Index(rest, fence); end != -1 {
		return rest[:end], true
	}
	return rest, true
}

// jsonStartsBefore reports whether a JSON opener appears before index end,
// meaning the payload shares the opening fence line.
func jsonStartsBefore(s string, end int) bool {
	for i := 0; i < end; i++ {
		if s[i] == '{' || s[i] == '[' {
			return true
		}
	}
	return false
}

// stripJSONTag removes a bare leading "json" format tag left over when the
// model labels its output without fencing it.
func stripJSONTag(s string) string {
	if !strings.HasPrefix(s, "json") {
		return s
	}
	rest := s[len("json"):]
	if rest == "" {
		return ""
	}
	switch rest[0] {
	case ' ', '\t', '\r', '\n', '{', '[':
		return rest
	}
	return s
}
