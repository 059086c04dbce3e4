package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

// Postgres stores documents in a jsonb column, one row per document.
type Postgres struct {
	DB *sql.DB
}

// OpenPostgres connects and pings with the caller's context. A failed ping is
// returned to the caller, which treats it as fatal at startup.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Postgres{DB: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.DB.PingContext(ctx) }

func (p *Postgres) Close() error { return p.DB.Close() }

func (p *Postgres) EnsureCollection(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("collection name required")
	}
	_, err := p.DB.ExecContext(ctx, `INSERT INTO collections (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	return err
}

func (p *Postgres) FindOne(ctx context.Context, collection string) (Record, bool, error) {
	row := p.DB.QueryRowContext(ctx, `
SELECT id, doc FROM documents
WHERE collection=$1
ORDER BY id
LIMIT 1
`, collection)
	var rec Record
	var raw []byte
	if err := row.Scan(&rec.ID, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	if err := json.Unmarshal(raw, &rec.Fields); err != nil {
		return Record{}, false, fmt.Errorf("decode document %d: %w", rec.ID, err)
	}
	return rec, true, nil
}

func (p *Postgres) Find(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	where, args, err := compileFilter(dialectPostgres, filter, 1)
	if err != nil {
		return nil, err
	}
	query := "SELECT id, doc FROM documents WHERE collection=$1"
	if where != "" {
		query += " AND " + where
	}
	query += " ORDER BY id"
	rows, err := p.DB.QueryContext(ctx, query, append([]interface{}{collection}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var raw []byte
		if err := rows.Scan(&rec.ID, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &rec.Fields); err != nil {
			return nil, fmt.Errorf("decode document %d: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *Postgres) InsertMany(ctx context.Context, collection string, recs []Record) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	if err := p.EnsureCollection(ctx, collection); err != nil {
		return 0, err
	}
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (collection, doc) VALUES ($1, $2)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range recs {
		raw, err := json.Marshal(rec.Fields)
		if err != nil {
			return 0, fmt.Errorf("encode document: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, collection, raw); err != nil {
			return 0, err
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (p *Postgres) Collections(ctx context.Context) ([]CollectionInfo, error) {
	rows, err := p.DB.QueryContext(ctx, `
SELECT c.name, COUNT(d.id), c.created_at
FROM collections c
LEFT JOIN documents d ON d.collection = c.name
GROUP BY c.name, c.created_at
ORDER BY c.name
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CollectionInfo
	for rows.Next() {
		var info CollectionInfo
		if err := rows.Scan(&info.Name, &info.Documents, &info.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func (p *Postgres) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := p.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection=$1`, collection).Scan(&n)
	return n, err
}
