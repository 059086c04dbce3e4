package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is the embedded backend for local use. Documents are JSON text in a
// single file database, schema created at open.
type SQLite struct {
	DB *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		path = "askdb.db"
	}
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	s := &SQLite{DB: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) ensureSchema(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS collections (
    name       TEXT PRIMARY KEY,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE IF NOT EXISTS documents (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    collection TEXT NOT NULL REFERENCES collections(name),
    doc        TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
`)
	return err
}

func (s *SQLite) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *SQLite) Close() error { return s.DB.Close() }

func (s *SQLite) EnsureCollection(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("collection name required")
	}
	_, err := s.DB.ExecContext(ctx, `INSERT OR IGNORE INTO collections (name) VALUES (?)`, name)
	return err
}

func (s *SQLite) FindOne(ctx context.Context, collection string) (Record, bool, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT id, doc FROM documents WHERE collection=? ORDER BY id LIMIT 1`, collection)
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

func (s *SQLite) Find(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	where, args, err := compileFilter(dialectSQLite, filter, 0)
	if err != nil {
		return nil, err
	}
	query := "SELECT id, doc FROM documents WHERE collection=?"
	if where != "" {
		query += " AND " + where
	}
	query += " ORDER BY id"
	rows, err := s.DB.QueryContext(ctx, query, append([]interface{}{collection}, args...)...)
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

func (s *SQLite) InsertMany(ctx context.Context, collection string, recs []Record) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	if err := s.EnsureCollection(ctx, collection); err != nil {
		return 0, err
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (collection, doc) VALUES (?, ?)`)
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
		if _, err := stmt.ExecContext(ctx, collection, string(raw)); err != nil {
			return 0, err
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *SQLite) Collections(ctx context.Context) ([]CollectionInfo, error) {
	rows, err := s.DB.QueryContext(ctx, `
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
		var created string
		if err := rows.Scan(&info.Name, &info.Documents, &created); err != nil {
			return nil, err
		}
		if ts, err := time.Parse("2006-01-02 15:04:05", created); err == nil {
			info.CreatedAt = ts
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *SQLite) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection=?`, collection).Scan(&n)
	return n, err
}
