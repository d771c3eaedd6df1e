// Package store provides the document storage layer for element records.
//
// The [Documents] interface is the whole contract the element access layer
// relies on: exact-match lookups, capped list retrieval, and single-document
// insert, replace and delete. [Store] implements it on DynamoDB; the
// memstore and sqldoc subpackages implement it in memory and on SQL
// databases.
//
// # Documents and Filters
//
// A [Document] is a flat field to value map. The store-assigned identifier
// is carried under [IDKey] as a uuid.UUID regardless of how the backend
// persists it:
//
//	doc := store.Document{"name": "Helium", "atomic_number": "2"}
//	id, err := s.InsertOne(ctx, doc)
//	got, err := s.FindOne(ctx, store.ByID(id))
//
// A [Filter] is a conjunction of equality predicates. Values are compared
// exactly as stored, so callers must encode them the same way they were
// written.
//
// # DynamoDB Layout
//
// The table partition key defaults to "_id" (type S). Secondary indexes can
// be registered per field with a [Registry]; filters on a registered field
// use Query, others use a filtered Scan that may be split across parallel
// segments:
//
//	cfg := store.DefaultConfig()
//	cfg.ScanSegments = 4
//	reg := store.NewRegistry()
//	reg.Register(store.Index{Field: "name", IndexName: "name-index"})
//	s := store.NewWithRegistry(dynamoClient, cfg, reg)
//
// # Errors
//
//   - [ErrNotFound] - FindOne matched nothing
//   - [ErrInvalidID] - identifier string is not a UUID
//   - [ErrInvalidFilter] - filter field or value cannot be expressed
//   - [ErrAlreadyExists] - insert collided with an existing identifier
package store
