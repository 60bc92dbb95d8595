package recordsvc

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collection is a typed view over one named collection of a backend. Values
// cross the boundary through the JSON codec, mirroring the wire shape.
type Collection[T any] struct {
	backend Backend
	name    string
}

// NewCollection binds a typed collection to a backend.
func NewCollection[T any](backend Backend, name string) Collection[T] {
	return Collection[T]{backend: backend, name: name}
}

// Name returns the collection name.
func (c Collection[T]) Name() string { return c.name }

// Select returns decoded rows matching the filter in the requested order.
func (c Collection[T]) Select(ctx context.Context, filter Filter, order Order) ([]T, error) {
	rows, err := c.backend.Select(ctx, c.name, filter, order)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := decodeRow[T](row)
		if err != nil {
			return nil, fmt.Errorf("decode %s row: %w", c.name, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Insert writes the values and returns them as stamped by the backend.
func (c Collection[T]) Insert(ctx context.Context, values []T) ([]T, error) {
	rows := make([]Row, 0, len(values))
	for _, v := range values {
		row, err := encodeRow(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s row: %w", c.name, err)
		}
		rows = append(rows, row)
	}
	inserted, err := c.backend.Insert(ctx, c.name, rows)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(inserted))
	for _, row := range inserted {
		v, err := decodeRow[T](row)
		if err != nil {
			return nil, fmt.Errorf("decode %s row: %w", c.name, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Update applies the patch to every row matching the filter.
func (c Collection[T]) Update(ctx context.Context, filter Filter, patch Patch) error {
	return c.backend.Update(ctx, c.name, filter, patch)
}

// Delete removes every row matching the filter.
func (c Collection[T]) Delete(ctx context.Context, filter Filter) error {
	return c.backend.Delete(ctx, c.name, filter)
}

// MergeRecord applies a patch to a typed value through the JSON codec,
// mirroring how the remote service merges partial updates.
func MergeRecord[T any](v T, patch Patch) (T, error) {
	row, err := encodeRow(v)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeRow[T](ApplyPatch(row, patch))
}

func encodeRow(v any) (Row, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var row Row
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	return row, nil
}

func decodeRow[T any](row Row) (T, error) {
	var v T
	raw, err := json.Marshal(row)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, err
	}
	return v, nil
}
