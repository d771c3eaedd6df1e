package store

// Index describes a global secondary index whose partition key is a
// document field. Filters on that field are served by Query instead of Scan.
type Index struct {
	// Field is the document field used as the index partition key (e.g., "name").
	Field string

	// IndexName is the DynamoDB index name (e.g., "name-index").
	IndexName string
}

// Registry holds the secondary indexes known for the elements table.
type Registry struct {
	indexes []Index
	byField map[string]Index
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		indexes: []Index{},
		byField: make(map[string]Index),
	}
}

// Register adds an index to the registry. A later registration for the same
// field replaces the earlier one.
func (r *Registry) Register(idx Index) {
	if _, exists := r.byField[idx.Field]; !exists {
		r.indexes = append(r.indexes, idx)
	} else {
		for i := range r.indexes {
			if r.indexes[i].Field == idx.Field {
				r.indexes[i] = idx
			}
		}
	}
	r.byField[idx.Field] = idx
}

// IndexFor returns the index registered for field.
func (r *Registry) IndexFor(field string) (Index, bool) {
	if r == nil {
		return Index{}, false
	}
	idx, ok := r.byField[field]
	return idx, ok
}

// AllIndexes returns all registered indexes in registration order.
func (r *Registry) AllIndexes() []Index {
	if r == nil {
		return nil
	}
	return r.indexes
}

// Pick returns the first registered index among the filter's fields.
func (r *Registry) Pick(f Filter) (Index, bool) {
	for _, field := range f.Fields() {
		if idx, ok := r.IndexFor(field); ok {
			return idx, true
		}
	}
	return Index{}, false
}
