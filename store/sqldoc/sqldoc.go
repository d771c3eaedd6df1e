// Package sqldoc implements store.Documents on a SQL database holding one
// JSON document per row. SQLite (modernc.org/sqlite) and Postgres (pgx) are
// supported through a Dialect.
package sqldoc

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/jacentio/periodic/store"
)

// DefaultTable is the table used when none is configured.
const DefaultTable = "elements"

var (
	_ store.Documents = (*Store)(nil)

	fieldPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	sqlOpen      = sql.Open
)

// Store is a SQL-backed document collection.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

// Open connects using the dialect's driver and prepares the document table.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	db, err := sqlOpen(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqldoc: open %s: %w", dialect.Name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqldoc: ping %s: %w", dialect.Name, err)
	}
	s, err := New(ctx, db, dialect, DefaultTable)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle and ensures the table exists.
func New(ctx context.Context, db *sql.DB, dialect Dialect, table string) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}
	if !fieldPattern.MatchString(table) {
		return nil, fmt.Errorf("sqldoc: invalid table name %q", table)
	}
	if _, err := db.ExecContext(ctx, dialect.schema(table)); err != nil {
		return nil, fmt.Errorf("sqldoc: ensure %s table: %w", table, err)
	}
	return &Store{db: db, dialect: dialect, table: table}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

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
	where, args, err := s.where(filter, 1)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT id, doc FROM %s%s ORDER BY seq", s.table, where)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	docs := []store.Document{}
	for rows.Next() {
		var (
			rawID string
			raw   []byte
		)
		if err := rows.Scan(&rawID, &raw); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		doc, err := decode(rawID, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// InsertOne implements store.Documents.
func (s *Store) InsertOne(ctx context.Context, doc store.Document) (uuid.UUID, error) {
	payload, err := encode(doc)
	if err != nil {
		return uuid.Nil, err
	}
	id := uuid.New()
	query := fmt.Sprintf("INSERT INTO %s (id, doc) VALUES (%s, %s)",
		s.table, s.dialect.placeholder(1), s.dialect.placeholder(2))
	if _, err := s.db.ExecContext(ctx, query, id.String(), payload); err != nil {
		return uuid.Nil, fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

// UpdateOne implements store.Documents. The stored document is replaced
// wholesale.
func (s *Store) UpdateOne(ctx context.Context, filter store.Filter, doc store.Document) (int64, error) {
	payload, err := encode(doc)
	if err != nil {
		return 0, err
	}
	target, args, err := s.target(filter, 2)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf("UPDATE %s SET doc = %s WHERE %s", s.table, s.dialect.placeholder(1), target)
	res, err := s.db.ExecContext(ctx, query, append([]any{payload}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("update document: %w", err)
	}
	return res.RowsAffected()
}

// DeleteOne implements store.Documents.
func (s *Store) DeleteOne(ctx context.Context, filter store.Filter) (int64, error) {
	target, args, err := s.target(filter, 1)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", s.table, target)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete document: %w", err)
	}
	return res.RowsAffected()
}

// target renders a predicate selecting at most one row: the first row in
// natural order that matches filter.
func (s *Store) target(filter store.Filter, first int) (string, []any, error) {
	if id, ok := filter.IDOnly(); ok {
		return "id = " + s.dialect.placeholder(first), []any{id.String()}, nil
	}
	where, args, err := s.where(filter, first)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("seq = (SELECT seq FROM %s%s ORDER BY seq LIMIT 1)", s.table, where), args, nil
}

// where renders filter as a WHERE clause with bind parameters starting at first.
func (s *Store) where(filter store.Filter, first int) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	var (
		clauses []string
		args    []any
	)
	n := first
	for _, field := range filter.Fields() {
		value := filter[field]
		if field == store.IDKey {
			id, ok := value.(uuid.UUID)
			if !ok {
				return "", nil, fmt.Errorf("%w: %s must be a uuid", store.ErrInvalidFilter, store.IDKey)
			}
			clauses = append(clauses, "id = "+s.dialect.placeholder(n))
			args = append(args, id.String())
			n++
			continue
		}
		if !fieldPattern.MatchString(field) {
			return "", nil, fmt.Errorf("%w: field %q", store.ErrInvalidFilter, field)
		}
		clauses = append(clauses, s.dialect.field(field)+" = "+s.dialect.placeholder(n))
		args = append(args, s.dialect.arg(value))
		n++
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func encode(doc store.Document) ([]byte, error) {
	fields := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == store.IDKey {
			continue
		}
		fields[k] = v
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return b, nil
}

func decode(rawID string, raw []byte) (store.Document, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("row identifier %q: %w", rawID, err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", rawID, err)
	}
	if fields == nil {
		return nil, errors.New("sqldoc: document is not a JSON object")
	}
	doc := store.Document(fields)
	doc[store.IDKey] = id
	return doc, nil
}
