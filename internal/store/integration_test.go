package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/lib/pq"
	"github.com/mohammad-safakhou/askdb/internal/store"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	pgUser := "askdb"
	pgPassword := "askdb"
	pgDB := "askdb"

	pgC, err := tcPostgres.RunContainer(ctx,
		tcPostgres.WithDatabase(pgDB),
		tcPostgres.WithUsername(pgUser),
		tcPostgres.WithPassword(pgPassword),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	defer func() { _ = pgC.Terminate(ctx) }()

	pgHost, err := pgC.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	pgPort, err := pgC.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", pgUser, pgPassword, pgHost, pgPort.Port(), pgDB)
	if err := applySchema(ctx, dsn); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	st, err := store.OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("store init: %v", err)
	}
	defer st.Close()

	recs := []store.Record{
		{Fields: map[string]interface{}{"Brand": "Samsung", "Category": "Phone", "Price": float64(699)}},
		{Fields: map[string]interface{}{"Brand": "Apple", "Category": "Phone", "Price": float64(999)}},
		{Fields: map[string]interface{}{"Brand": "Dell", "Category": "Laptop", "Price": float64(1200), "Stock": float64(4)}},
	}
	n, err := st.InsertMany(ctx, "products", recs)
	if err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 inserted, got %d", n)
	}

	rec, ok, err := st.FindOne(ctx, "products")
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if !ok || rec.Fields["Brand"] != "Samsung" {
		t.Fatalf("unexpected first record: %+v", rec.Fields)
	}

	over, err := st.Find(ctx, "products", store.Filter{"Price": map[string]interface{}{"$gt": float64(700)}})
	if err != nil {
		t.Fatalf("Find $gt: %v", err)
	}
	if len(over) != 2 {
		t.Fatalf("expected 2 records over 700, got %d", len(over))
	}

	phones, err := st.Find(ctx, "products", store.Filter{"Brand": "Samsung", "Category": "Phone"})
	if err != nil {
		t.Fatalf("Find equality: %v", err)
	}
	if len(phones) != 1 {
		t.Fatalf("expected 1 Samsung phone, got %d", len(phones))
	}

	none, err := st.Find(ctx, "products", store.Filter{"Brand": "Sony"})
	if err != nil {
		t.Fatalf("Find no match: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected empty result, got %d", len(none))
	}

	count, err := st.Count(ctx, "products")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}

	infos, err := st.Collections(ctx)
	if err != nil {
		t.Fatalf("Collections: %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "products" || infos[0].Documents != 3 {
		t.Fatalf("unexpected collections: %+v", infos)
	}
}

func applySchema(ctx context.Context, dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	schemaSQL := `
CREATE TABLE IF NOT EXISTS collections (
    name       TEXT PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS documents (
    id         BIGSERIAL PRIMARY KEY,
    collection TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
    doc        JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
CREATE INDEX IF NOT EXISTS idx_documents_doc ON documents USING GIN (doc);
`
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
