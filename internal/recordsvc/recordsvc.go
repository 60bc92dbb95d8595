// Package recordsvc defines the remote record service boundary: filtered CRUD
// over named collections of JSON rows. Every call is scoped by an owner or
// project filter; the stores never issue an unscoped query.
package recordsvc

import "context"

// Row is one record as seen on the wire: field-keyed JSON values.
type Row map[string]any

// Filter selects rows by exact field equality. An empty filter matches
// nothing at the store layer by convention; backends reject it.
type Filter map[string]any

// Patch carries partial field updates applied to every matching row.
type Patch map[string]any

// Order names the field result rows are sorted by.
type Order struct {
	Field      string
	Descending bool
}

// Backend is a durable record service reachable by the stores. Insert
// returns the written rows with ids and timestamps stamped; Select returns
// rows matching the filter in the requested order.
type Backend interface {
	Select(ctx context.Context, collection string, filter Filter, order Order) ([]Row, error)
	Insert(ctx context.Context, collection string, rows []Row) ([]Row, error)
	Update(ctx context.Context, collection string, filter Filter, patch Patch) error
	Delete(ctx context.Context, collection string, filter Filter) error
	Close() error
}
