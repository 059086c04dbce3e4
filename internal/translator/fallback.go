package translator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mohammad-safakhou/askdb/internal/store"
)

// Placeholder operands used when the text names no number.
const (
	fallbackDefaultHigh = 100
	fallbackDefaultLow  = 50
)

var (
	digitsRe  = regexp.MustCompile(`\d+`)
	quotedRe  = regexp.MustCompile(`['"]([^'"]+)['"]`)
	isWordRe  = regexp.MustCompile(`(?i)\bis\s+([A-Za-z0-9_-]+)`)
	capitalRe = regexp.MustCompile(`\b[A-Z][A-Za-z0-9]*\b`)
)

// FallbackFilter builds a single-field filter from keywords in the user's
// text, used when model output cannot be validated. For each allowed field
// whose name occurs in the text (case-insensitive), comparison keywords are
// checked in priority order: "greater"/">" then "less"/"<" then "equal"/"=".
// The numeric operand is the first decimal-digit run, defaulting when the
// text names none. Without a comparison keyword the operand is a quoted
// word, an "is X" word, the last capitalized word, or the final word. The
// first field that matches wins; one condition only. Intentionally crude.
func FallbackFilter(userText string, fields []string) (store.Filter, error) {
	lowered := strings.ToLower(userText)
	for _, field := range fields {
		if !strings.Contains(lowered, strings.ToLower(field)) {
			continue
		}
		if op, ok := comparisonOp(lowered); ok {
			return store.Filter{field: map[string]interface{}{op: numericOperand(lowered, op)}}, nil
		}
		if word, ok := textOperand(userText, field); ok {
			return store.Filter{field: word}, nil
		}
	}
	return nil, ErrFallback
}

func comparisonOp(lowered string) (string, bool) {
	switch {
	case strings.Contains(lowered, "greater") || strings.Contains(lowered, ">"):
		return "$gt", true
	case strings.Contains(lowered, "less") || strings.Contains(lowered, "<"):
		return "$lt", true
	case strings.Contains(lowered, "equal") || strings.Contains(lowered, "="):
		return "$eq", true
	}
	return "", false
}

func numericOperand(lowered, op string) float64 {
	if m := digitsRe.FindString(lowered); m != "" {
		if n, err := strconv.ParseFloat(m, 64); err == nil {
			return n
		}
	}
	if op == "$lt" {
		return fallbackDefaultLow
	}
	return fallbackDefaultHigh
}

// textOperand picks an equality operand from the original (uncased) text.
// Words matching the field name itself never qualify.
func textOperand(text, field string) (string, bool) {
	if m := quotedRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := isWordRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	var last string
	for _, w := range capitalRe.FindAllString(text, -1) {
		if strings.EqualFold(w, field) {
			continue
		}
		last = w
	}
	if last != "" {
		return last, true
	}
	words := strings.Fields(text)
	for i := len(words) - 1; i >= 0; i-- {
		w := strings.Trim(words[i], `.,!?;:'"`)
		if w == "" || strings.EqualFold(w, field) {
			continue
		}
		return w, true
	}
	return "", false
}
