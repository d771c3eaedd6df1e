// Package memstore provides an in-process implementation of store.Documents.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jacentio/periodic/store"
)

var _ store.Documents = (*Store)(nil)

// Store keeps documents in insertion order behind a mutex.
type Store struct {
	mu    sync.RWMutex
	order []uuid.UUID
	docs  map[uuid.UUID]store.Document
}

// New creates an empty Store.
func New() *Store {
	return &Store{docs: make(map[uuid.UUID]store.Document)}
}

// ParseID implements store.Documents.
func (s *Store) ParseID(v string) (uuid.UUID, error) {
	return store.ParseID(v)
}

// FindOne implements store.Documents.
func (s *Store) FindOne(ctx context.Context, filter store.Filter) (store.Document, error) {
	docs, err := s.FindMany(ctx, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	return docs[0], nil
}

// FindMany implements store.Documents.
func (s *Store) FindMany(ctx context.Context, filter store.Filter, limit int) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := filter.IDOnly(); ok {
		if doc, exists := s.docs[id]; exists {
			return []store.Document{doc.Clone()}, nil
		}
		return []store.Document{}, nil
	}

	out := []store.Document{}
	for _, id := range s.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		doc := s.docs[id]
		if filter.Matches(doc) {
			out = append(out, doc.Clone())
		}
	}
	return out, nil
}

// InsertOne implements store.Documents.
func (s *Store) InsertOne(ctx context.Context, doc store.Document) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	if _, exists := s.docs[id]; exists {
		return uuid.Nil, store.ErrAlreadyExists
	}
	stored := doc.Clone()
	stored[store.IDKey] = id
	s.docs[id] = stored
	s.order = append(s.order, id)
	return id, nil
}

// UpdateOne implements store.Documents.
func (s *Store) UpdateOne(ctx context.Context, filter store.Filter, doc store.Document) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.match(filter)
	if !ok {
		return 0, nil
	}
	stored := doc.Clone()
	stored[store.IDKey] = id
	s.docs[id] = stored
	return 1, nil
}

// DeleteOne implements store.Documents.
func (s *Store) DeleteOne(ctx context.Context, filter store.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.match(filter)
	if !ok {
		return 0, nil
	}
	delete(s.docs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// match returns the first identifier whose document satisfies filter.
// Callers hold s.mu.
func (s *Store) match(filter store.Filter) (uuid.UUID, bool) {
	if id, ok := filter.IDOnly(); ok {
		_, exists := s.docs[id]
		return id, exists
	}
	for _, id := range s.order {
		if filter.Matches(s.docs[id]) {
			return id, true
		}
	}
	return uuid.Nil, false
}
