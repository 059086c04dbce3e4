// Package store persists collections of schemaless documents and evaluates
// Mongo-style filter documents against them. Two backends are provided:
// Postgres (jsonb column, server deployments) and SQLite (embedded, local use).
package store

import (
	"context"
	"fmt"
	"time"
)

// Drivers accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Record is one stored document plus its store-assigned row id. The id is
// internal bookkeeping and is excluded from user-facing output.
type Record struct {
	ID     int64
	Fields map[string]interface{}
}

// Filter is a Mongo-style filter document. Each value is either a literal
// (equality match) or an operator document such as {"$gt": 100}.
type Filter map[string]interface{}

// CollectionInfo describes one named collection and its document count.
type CollectionInfo struct {
	Name      string    `json:"name"`
	Documents int       `json:"documents"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the document storage contract the query pipeline runs against.
// Find returns the empty slice when nothing matches; that is a valid outcome,
// not an error.
type Store interface {
	// FindOne returns a single arbitrary record from the collection, used to
	// discover its field names. ok is false when the collection is empty.
	FindOne(ctx context.Context, collection string) (rec Record, ok bool, err error)
	// Find returns every record matching the filter, in insertion order.
	Find(ctx context.Context, collection string, filter Filter) ([]Record, error)
	// InsertMany stores the given records in one transaction and reports how
	// many were written.
	InsertMany(ctx context.Context, collection string, recs []Record) (int, error)
	// Collections lists every known collection with its document count.
	Collections(ctx context.Context) ([]CollectionInfo, error)
	// EnsureCollection registers a collection name, ignoring duplicates.
	EnsureCollection(ctx context.Context, name string) error
	// Count reports how many documents the collection holds.
	Count(ctx context.Context, collection string) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend for Open.
type Options struct {
	Driver string
	DSN    string // Postgres connection string
	Path   string // SQLite database file
}

// Open connects the backend named by opts.Driver. Postgres is the default.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverPostgres, "":
		return OpenPostgres(ctx, opts.DSN)
	case DriverSQLite:
		return OpenSQLite(ctx, opts.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", opts.Driver)
	}
}
