package translator

import (
	"sort"

	"github.com/mohammad-safakhou/askdb/internal/store"
)

// FieldsFromRecord lists the field names of one sample record, sorted for a
// stable prompt. Fields absent from the sample stay invisible for the whole
// session.
func FieldsFromRecord(rec store.Record) []string {
	fields := make([]string, 0, len(rec.Fields))
	for name := range rec.Fields {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}
