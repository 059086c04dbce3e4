package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mohammad-safakhou/askdb/internal/store"
)

// ReadCSV parses CSV data into records. The header row defines field names;
// each cell is typed by inference (number, then bool, else string).
// Malformed rows are skipped.
func ReadCSV(r io.Reader) ([]store.Record, []string, error) {
	reader := csv.NewReader(r)

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	var records []store.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		fields := make(map[string]interface{}, len(headers))
		for i, val := range row {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			fields[headers[i]] = inferValue(strings.TrimSpace(val))
		}
		records = append(records, store.Record{Fields: fields})
	}
	return records, headers, nil
}

func inferValue(s string) interface{} {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// Columns returns the union of field names across records, first-seen order
// over each record's sorted keys. Record ids are not fields and never appear.
func Columns(records []store.Record) []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, rec := range records {
		names := make([]string, 0, len(rec.Fields))
		for name := range rec.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			cols = append(cols, name)
		}
	}
	return cols
}

// WriteCSV writes records in the given column order. Fields a record lacks
// become empty cells.
func WriteCSV(w io.Writer, columns []string, records []store.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			v, ok := rec.Fields[col]
			if !ok {
				row[i] = ""
				continue
			}
			row[i] = formatCell(v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderTable prints records as an aligned text table. limit 0 shows all
// rows, otherwise the first limit rows plus a count of the rest.
func RenderTable(w io.Writer, columns []string, records []store.Record, limit int) {
	if len(columns) == 0 || len(records) == 0 {
		fmt.Fprintln(w, "(no results)")
		return
	}
	shown := records
	if limit > 0 && len(records) > limit {
		shown = records[:limit]
	}
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	head := make([]string, len(columns))
	for i, col := range columns {
		head[i] = strings.ToUpper(col)
	}
	fmt.Fprintln(tw, strings.Join(head, "\t"))
	for _, rec := range shown {
		cells := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := rec.Fields[col]; ok {
				cells[i] = formatCell(v)
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
	if rest := len(records) - len(shown); rest > 0 {
		fmt.Fprintf(w, "... and %d more\n", rest)
	}
}

// ExportName numbers result files by the session's query counter.
func ExportName(n int) string {
	return fmt.Sprintf("test_case%d.csv", n)
}

func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
