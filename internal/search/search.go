package search

import (
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve"

	"github.com/mohammad-safakhou/askdb/internal/store"
)

// Hit is one matched record with its relevance score.
type Hit struct {
	Record store.Record
	Score  float64
	Rank   int
}

// Records runs a query-string search over the given records through an
// in-memory index built for this call. A retrieval path that needs no
// generation backend.
func Records(records []store.Record, query string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 10
	}
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	defer index.Close()

	byID := make(map[string]store.Record, len(records))
	for i, rec := range records {
		id := strconv.Itoa(i)
		byID[id] = rec
		if err := index.Index(id, rec.Fields); err != nil {
			return nil, fmt.Errorf("index record %d: %w", i, err)
		}
	}

	q := bleve.NewQueryStringQuery(query)
	searchReq := bleve.NewSearchRequestOptions(q, k*3, 0, false)
	res, err := index.Search(searchReq)
	if err != nil {
		return nil, err
	}

	var out []Hit
	for i, hit := range res.Hits {
		rec, ok := byID[hit.ID]
		if !ok {
			continue
		}
		out = append(out, Hit{Record: rec, Score: hit.Score, Rank: i + 1})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}
