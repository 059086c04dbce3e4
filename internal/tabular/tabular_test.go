package tabular

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/askdb/internal/store"
)

const sampleCSV = `Brand,Category,Price,InStock
Samsung,Phone,699,true
Apple,Laptop,1999.5,false
Nokia,Phone,49,true
`

func TestReadCSV(t *testing.T) {
	t.Parallel()
	records, headers, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	wantHeaders := []string{"Brand", "Category", "Price", "InStock"}
	if !reflect.DeepEqual(headers, wantHeaders) {
		t.Fatalf("headers got %v, want %v", headers, wantHeaders)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	first := records[0].Fields
	if first["Brand"] != "Samsung" {
		t.Fatalf("Brand = %v", first["Brand"])
	}
	if first["Price"] != float64(699) {
		t.Fatalf("Price = %v (%T), want float64", first["Price"], first["Price"])
	}
	if first["InStock"] != true {
		t.Fatalf("InStock = %v (%T), want bool", first["InStock"], first["InStock"])
	}
	if records[1].Fields["Price"] != float64(1999.5) {
		t.Fatalf("Price = %v", records[1].Fields["Price"])
	}
}

func TestReadCSVSkipsMalformedRows(t *testing.T) {
	t.Parallel()
	in := "Brand,Price\nSamsung,699\nonly-one-cell\nApple,1999\n"
	records, _, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected malformed row skipped, got %d records", len(records))
	}
}

func TestReadCSVEmptyInput(t *testing.T) {
	t.Parallel()
	if _, _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected error for missing header")
	}
}

func TestColumnsUnion(t *testing.T) {
	t.Parallel()
	records := []store.Record{
		{Fields: map[string]interface{}{"Price": 1.0, "Brand": "a"}},
		{Fields: map[string]interface{}{"Brand": "b", "Stock": 3.0}},
	}
	got := Columns(records)
	want := []string{"Brand", "Price", "Stock"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Columns() got %v, want %v", got, want)
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()
	records := []store.Record{
		{ID: 1, Fields: map[string]interface{}{"Brand": "Samsung", "Price": float64(699), "InStock": true}},
		{ID: 2, Fields: map[string]interface{}{"Brand": "Apple"}},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []string{"Brand", "Price", "InStock"}, records); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "Brand,Price,InStock\nSamsung,699,true\nApple,,\n"
	if buf.String() != want {
		t.Fatalf("WriteCSV got %q, want %q", buf.String(), want)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()
	records, headers, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, headers, records); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	again, _, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV round trip: %v", err)
	}
	if len(again) != len(records) {
		t.Fatalf("round trip lost records: %d vs %d", len(again), len(records))
	}
	for i := range records {
		if !reflect.DeepEqual(again[i].Fields, records[i].Fields) {
			t.Fatalf("record %d changed: %v vs %v", i, again[i].Fields, records[i].Fields)
		}
	}
}

func TestRenderTableLimit(t *testing.T) {
	t.Parallel()
	var records []store.Record
	for i := 0; i < 5; i++ {
		records = append(records, store.Record{Fields: map[string]interface{}{"Brand": "b", "Price": float64(i)}})
	}
	var buf bytes.Buffer
	RenderTable(&buf, []string{"Brand", "Price"}, records, 3)
	out := buf.String()
	if !strings.Contains(out, "BRAND") || !strings.Contains(out, "PRICE") {
		t.Fatalf("missing header in output:\n%s", out)
	}
	if !strings.Contains(out, "... and 2 more") {
		t.Fatalf("missing overflow line:\n%s", out)
	}
	if strings.Count(out, "\n") != 5 {
		t.Fatalf("expected header, 3 rows and overflow line:\n%s", out)
	}
}

func TestRenderTableEmpty(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	RenderTable(&buf, nil, nil, 3)
	if !strings.Contains(buf.String(), "(no results)") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestExportName(t *testing.T) {
	t.Parallel()
	if got := ExportName(1); got != "test_case1.csv" {
		t.Fatalf("ExportName(1) = %q", got)
	}
	if got := ExportName(42); got != "test_case42.csv" {
		t.Fatalf("ExportName(42) = %q", got)
	}
}
