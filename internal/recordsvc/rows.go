package recordsvc

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"
)

// ErrEmptyFilter rejects unscoped mutations and queries.
var ErrEmptyFilter = errors.New("filter must not be empty")

// NewID returns a random 16-byte hex identifier.
func NewID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// StampInsert assigns an id when missing and sets both timestamps.
func StampInsert(row Row, now time.Time) Row {
	if s, ok := row["id"].(string); !ok || s == "" {
		row["id"] = NewID()
	}
	ts := now.UTC().Format(time.RFC3339Nano)
	row["created_at"] = ts
	row["updated_at"] = ts
	return row
}

// StampUpdate sets the updated timestamp on a patch.
func StampUpdate(patch Patch, now time.Time) Patch {
	patch["updated_at"] = now.UTC().Format(time.RFC3339Nano)
	return patch
}

// CloneRow deep-copies a row through the JSON codec so callers cannot alias
// backend state.
func CloneRow(row Row) Row {
	raw, err := json.Marshal(row)
	if err != nil {
		panic(fmt.Errorf("clone row: %w", err))
	}
	var out Row
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Errorf("clone row: %w", err))
	}
	return out
}

// Normalize round-trips a value through JSON so filter values compare
// equal to decoded row values regardless of their Go type.
func Normalize(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

// Matches reports whether every filter field equals the row's value.
func Matches(row Row, filter Filter) bool {
	for field, want := range filter {
		if !reflect.DeepEqual(Normalize(row[field]), Normalize(want)) {
			return false
		}
	}
	return true
}

// ApplyPatch merges patch fields into a copy of the row.
func ApplyPatch(row Row, patch Patch) Row {
	out := CloneRow(row)
	for field, v := range patch {
		out[field] = Normalize(v)
	}
	return out
}

// SortRows orders rows in place by the order field. RFC 3339 timestamps
// compare correctly as strings, so created_at ordering needs no parsing.
func SortRows(rows []Row, order Order) {
	if order.Field == "" {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareValues(rows[i][order.Field], rows[j][order.Field])
		if order.Descending {
			return c > 0
		}
		return c < 0
	})
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case !av && bv:
				return -1
			case av && !bv:
				return 1
			}
			return 0
		}
	}
	// nil or mixed types sort first
	if a == nil && b != nil {
		return -1
	}
	if a != nil && b == nil {
		return 1
	}
	return 0
}
