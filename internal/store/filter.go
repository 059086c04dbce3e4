package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type dialect int

const (
	dialectPostgres dialect = iota
	dialectSQLite
)

// sqlOps maps the supported comparison operators to their SQL spelling.
var sqlOps = map[string]string{
	"$eq":  "=",
	"$ne":  "<>",
	"$gt":  ">",
	"$gte": ">=",
	"$lt":  "<",
	"$lte": "<=",
}

// whereBuilder accumulates WHERE clauses and their arguments for one query.
// Postgres placeholders are numbered from argOffset+1 so the caller can bind
// leading arguments (the collection name) itself.
type whereBuilder struct {
	dialect   dialect
	argOffset int
	clauses   []string
	args      []interface{}
}

// compileFilter turns a filter document into a SQL WHERE fragment plus its
// arguments. An empty filter compiles to the empty string (match everything).
// Unsupported operators and malformed operands come back as errors.
func compileFilter(d dialect, f Filter, argOffset int) (string, []interface{}, error) {
	if len(f) == 0 {
		return "", nil, nil
	}
	b := &whereBuilder{dialect: d, argOffset: argOffset}
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if err := b.addCondition(field, f[field]); err != nil {
			return "", nil, err
		}
	}
	return strings.Join(b.clauses, " AND "), b.args, nil
}

func (b *whereBuilder) addArg(v interface{}) string {
	b.args = append(b.args, v)
	if b.dialect == dialectSQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", b.argOffset+len(b.args))
}

func (b *whereBuilder) addCondition(field string, cond interface{}) error {
	m, ok := cond.(map[string]interface{})
	if !ok {
		return b.addComparison(field, "$eq", cond)
	}
	if len(m) == 0 {
		return fmt.Errorf("empty operator document for field %q", field)
	}
	ops := make([]string, 0, len(m))
	for op := range m {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		if op == "$in" {
			if err := b.addIn(field, m[op]); err != nil {
				return err
			}
			continue
		}
		if err := b.addComparison(field, op, m[op]); err != nil {
			return err
		}
	}
	return nil
}

func (b *whereBuilder) addComparison(field, op string, operand interface{}) error {
	sqlOp, ok := sqlOps[op]
	if !ok {
		return fmt.Errorf("unsupported operator %q for field %q", op, field)
	}
	if operand == nil {
		switch op {
		case "$eq":
			b.clauses = append(b.clauses, b.expr(field, operand)+" IS NULL")
		case "$ne":
			b.clauses = append(b.clauses, b.expr(field, operand)+" IS NOT NULL")
		default:
			return fmt.Errorf("operator %q does not accept null for field %q", op, field)
		}
		return nil
	}
	expr := b.expr(field, operand)
	b.clauses = append(b.clauses, fmt.Sprintf("%s %s %s", expr, sqlOp, b.addArg(b.norm(operand))))
	return nil
}

func (b *whereBuilder) addIn(field string, operand interface{}) error {
	items, ok := operand.([]interface{})
	if !ok {
		return fmt.Errorf("$in wants an array for field %q", field)
	}
	if len(items) == 0 {
		return fmt.Errorf("$in wants at least one element for field %q", field)
	}
	expr := b.expr(field, items[0])
	ph := make([]string, 0, len(items))
	for _, it := range items {
		ph = append(ph, b.addArg(b.norm(it)))
	}
	b.clauses = append(b.clauses, fmt.Sprintf("%s IN (%s)", expr, strings.Join(ph, ", ")))
	return nil
}

// expr returns the SQL expression extracting field from the document column,
// typed to suit the operand. For $in lists the first element decides.
func (b *whereBuilder) expr(field string, operand interface{}) string {
	if b.dialect == dialectSQLite {
		return fmt.Sprintf("json_extract(doc, %s)", b.addArg(fmt.Sprintf("$.%q", field)))
	}
	if isNumeric(operand) {
		return fmt.Sprintf("(doc->>%s)::numeric", b.addArg(field))
	}
	return fmt.Sprintf("doc->>%s", b.addArg(field))
}

// norm converts a filter operand into a driver-level argument. Postgres text
// extraction yields strings, so non-numeric operands compare as text there;
// SQLite json_extract keeps JSON types, with booleans as 0/1.
func (b *whereBuilder) norm(operand interface{}) interface{} {
	switch v := operand.(type) {
	case bool:
		if b.dialect == dialectSQLite {
			if v {
				return 1
			}
			return 0
		}
		return strconv.FormatBool(v)
	case string:
		return v
	default:
		if isNumeric(v) || b.dialect == dialectSQLite {
			return v
		}
		return fmt.Sprintf("%v", v)
	}
}

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return true
	}
	return false
}
