package search

import (
	"testing"

	"github.com/mohammad-safakhou/askdb/internal/store"
)

func phoneRecords() []store.Record {
	return []store.Record{
		{ID: 1, Fields: map[string]interface{}{"Brand": "Samsung", "Category": "Phone", "Price": float64(699)}},
		{ID: 2, Fields: map[string]interface{}{"Brand": "Apple", "Category": "Laptop", "Price": float64(1999)}},
		{ID: 3, Fields: map[string]interface{}{"Brand": "Samsung", "Category": "TV", "Price": float64(899)}},
	}
}

func TestRecordsFindsMatches(t *testing.T) {
	hits, err := Records(phoneRecords(), "samsung", 10)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	for _, h := range hits {
		if h.Record.Fields["Brand"] != "Samsung" {
			t.Fatalf("unexpected hit %v", h.Record.Fields)
		}
		if h.Score <= 0 || h.Rank == 0 {
			t.Fatalf("hit missing score or rank: %+v", h)
		}
	}
}

func TestRecordsHonorsLimit(t *testing.T) {
	hits, err := Records(phoneRecords(), "samsung", 1)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Rank != 1 {
		t.Fatalf("Rank = %d", hits[0].Rank)
	}
}

func TestRecordsNoMatches(t *testing.T) {
	hits, err := Records(phoneRecords(), "toaster", 10)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}

func TestRecordsEmptyInput(t *testing.T) {
	hits, err := Records(nil, "anything", 10)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}
