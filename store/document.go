package store

import (
	"context"
	"reflect"
	"sort"

	"github.com/google/uuid"
)

// IDKey is the document key that carries the store-assigned identifier.
// Its value is always a uuid.UUID inside a Document.
const IDKey = "_id"

// Document is a schema-free field to value mapping as persisted by a backend.
// Values are strings, float64s, bools or, under IDKey, a uuid.UUID.
type Document map[string]any

// ID returns the document identifier, if present.
func (d Document) ID() (uuid.UUID, bool) {
	id, ok := d[IDKey].(uuid.UUID)
	return id, ok
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Filter is a conjunction of exact-match predicates. An empty Filter matches
// every document.
type Filter map[string]any

// ByID returns a filter selecting the document with the given identifier.
func ByID(id uuid.UUID) Filter {
	return Filter{IDKey: id}
}

// Eq returns a single-field equality filter.
func Eq(field string, value any) Filter {
	return Filter{field: value}
}

// IDOnly reports whether the filter selects by identifier alone.
func (f Filter) IDOnly() (uuid.UUID, bool) {
	if len(f) != 1 {
		return uuid.Nil, false
	}
	id, ok := f[IDKey].(uuid.UUID)
	return id, ok
}

// Fields returns the filter field names in sorted order.
func (f Filter) Fields() []string {
	fields := make([]string, 0, len(f))
	for k := range f {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// Matches reports whether doc satisfies every predicate in the filter.
func (f Filter) Matches(doc Document) bool {
	for field, want := range f {
		got, ok := doc[field]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// Documents is the capability a document backend exposes to the element
// access layer. Each method is a single storage operation.
type Documents interface {
	// FindOne returns the first document matching filter, or ErrNotFound.
	FindOne(ctx context.Context, filter Filter) (Document, error)

	// FindMany returns up to limit matching documents in the backend's natural
	// order. A limit <= 0 means no limit. No match is an empty slice, not an error.
	FindMany(ctx context.Context, filter Filter, limit int) ([]Document, error)

	// InsertOne stores doc under a newly assigned identifier and returns it.
	InsertOne(ctx context.Context, doc Document) (uuid.UUID, error)

	// UpdateOne replaces the first document matching filter with doc and
	// returns the number of documents replaced (0 or 1).
	UpdateOne(ctx context.Context, filter Filter, doc Document) (int64, error)

	// DeleteOne removes the first document matching filter and returns the
	// number of documents removed (0 or 1).
	DeleteOne(ctx context.Context, filter Filter) (int64, error)

	// ParseID converts an external identifier into the backend's native form.
	// Malformed input fails with ErrInvalidID.
	ParseID(s string) (uuid.UUID, error)
}

// ParseID parses a canonical UUID string. It is shared by every backend.
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, &InvalidIDError{Value: s, Err: err}
	}
	return id, nil
}
