package translator

import (
	"fmt"
	"strings"
)

const promptTemplate = `Convert this natural language query to a MongoDB-style filter using ONLY these fields: %s

RULES:
1. Return ONLY valid JSON
2. No explanations or markdown
3. Use operators: $gt, $lt, $eq, $in
4. For dates, use ISODate format
5. Field names must match exactly

EXAMPLES:
Input: "price over 100" → {"Price": {"$gt": 100}}
Input: "Samsung phones" → {"Brand": "Samsung", "Category": "Phone"}

ACTUAL QUERY: %s`

// BuildPrompt formats the allowed fields and the user's question into the
// fixed instruction template. Deterministic, no side effects.
func BuildPrompt(fields []string, question string) string {
	return fmt.Sprintf(promptTemplate, strings.Join(fields, ", "), question)
}
