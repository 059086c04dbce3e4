package translator

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mohammad-safakhou/askdb/internal/store"
)

// VerdictKind tags the validator's decision.
type VerdictKind string

const (
	VerdictOK           VerdictKind = "ok"
	VerdictMalformed    VerdictKind = "malformed"
	VerdictNotObject    VerdictKind = "not_object"
	VerdictUnknownField VerdictKind = "unknown_field"
)

// Verdict is the validator's decision on one candidate filter. Filter is
// populated only when Kind is VerdictOK.
type Verdict struct {
	Kind   VerdictKind
	Filter store.Filter
	Reason string
}

// Validate parses sanitized model output and checks its shape: the text must
// be a JSON object with at least one top-level key among the allowed fields.
// Unrecognized extra keys ride along; the store surfaces them as zero
// matches or an execution error.
func Validate(sanitized string, fields []string) Verdict {
	var parsed interface{}
	if err := json.Unmarshal([]byte(sanitized), &parsed); err != nil {
		return Verdict{Kind: VerdictMalformed, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	obj, ok := parsed.(map[string]interface{})
	if !ok {
		return Verdict{Kind: VerdictNotObject, Reason: fmt.Sprintf("expected a JSON object, got %s", jsonTypeName(parsed))}
	}
	return validateObject(obj, fields)
}

// validateObject applies the allowed-fields check to an already-parsed
// object. The fallback path reuses it without a serialize round trip.
func validateObject(obj map[string]interface{}, fields []string) Verdict {
	allowed := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		allowed[f] = struct{}{}
	}
	for key := range obj {
		if _, ok := allowed[key]; ok {
			return Verdict{Kind: VerdictOK, Filter: store.Filter(obj)}
		}
	}
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return Verdict{Kind: VerdictUnknownField, Reason: fmt.Sprintf("no allowed field among keys %v", keys)}
}

func jsonTypeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
