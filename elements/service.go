// Package elements implements lookups and mutations of element records on
// top of a store.Documents backend.
//
// Every operation issues at most one storage call. Failures are reported as
// one of:
//
//   - *schema.ValidationError: the input record is malformed
//   - ErrInvalidID: the identifier cannot be parsed
//   - ErrNotFound (as *NotFoundError): nothing matched
//   - ErrInternal: the backend failed; details are logged only
package elements

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jacentio/periodic/schema"
	"github.com/jacentio/periodic/store"
)

// MaxListResults caps the group, period and state listings.
const MaxListResults = 100

// Operation names reported to the Observer.
const (
	OpList              = "list"
	OpGet               = "get"
	OpGetByName         = "get_by_name"
	OpGetByAtomicNumber = "get_by_atomic_number"
	OpListByGroup       = "list_by_group"
	OpListByPeriod      = "list_by_period"
	OpListByState       = "list_by_state"
	OpCreate            = "create"
	OpUpdate            = "update"
	OpDelete            = "delete"
)

// Service is the element access layer.
type Service struct {
	docs     store.Documents
	logger   *slog.Logger
	observer Observer
}

// New creates a Service over docs. A nil logger uses slog.Default().
func New(docs store.Documents, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		docs:     docs,
		logger:   logger,
		observer: NoopObserver{},
	}
}

// SetObserver installs o. A nil o disables observation.
func (s *Service) SetObserver(o Observer) {
	if o == nil {
		o = NoopObserver{}
	}
	s.observer = o
}

func (s *Service) observe(op string, start time.Time, err *error) {
	s.observer.OnOperation(op, time.Since(start), *err)
}

// List returns every element in the store's natural order.
func (s *Service) List(ctx context.Context) (views []schema.View, err error) {
	defer s.observe(OpList, time.Now(), &err)

	docs, err := s.docs.FindMany(ctx, store.Filter{}, 0)
	if err != nil {
		return nil, s.internal(ctx, OpList, err)
	}
	return s.views(ctx, OpList, docs)
}

// Get returns the element with the given identifier.
func (s *Service) Get(ctx context.Context, id string) (v schema.View, err error) {
	defer s.observe(OpGet, time.Now(), &err)

	nid, err := s.parseID(id)
	if err != nil {
		return schema.View{}, err
	}
	return s.findOne(ctx, OpGet, store.ByID(nid), "Element not found")
}

// GetByName returns the element whose name matches exactly.
func (s *Service) GetByName(ctx context.Context, name string) (v schema.View, err error) {
	defer s.observe(OpGetByName, time.Now(), &err)

	return s.findOne(ctx, OpGetByName, store.Eq("name", name),
		fmt.Sprintf("Element with atomic name '%s' not found", name))
}

// GetByAtomicNumber returns the element with atomic number n.
func (s *Service) GetByAtomicNumber(ctx context.Context, n int) (v schema.View, err error) {
	defer s.observe(OpGetByAtomicNumber, time.Now(), &err)

	return s.findOne(ctx, OpGetByAtomicNumber, store.Eq("atomic_number", strconv.Itoa(n)),
		fmt.Sprintf("Element with atomic number '%d' not found", n))
}

// ListByGroup returns up to MaxListResults elements in group n.
func (s *Service) ListByGroup(ctx context.Context, n int) (views []schema.View, err error) {
	defer s.observe(OpListByGroup, time.Now(), &err)

	return s.findMany(ctx, OpListByGroup, store.Eq("group", strconv.Itoa(n)),
		fmt.Sprintf("No elements found in group '%d'", n))
}

// ListByPeriod returns up to MaxListResults elements in period n.
func (s *Service) ListByPeriod(ctx context.Context, n int) (views []schema.View, err error) {
	defer s.observe(OpListByPeriod, time.Now(), &err)

	return s.findMany(ctx, OpListByPeriod, store.Eq("period", strconv.Itoa(n)),
		fmt.Sprintf("No elements found in period '%d'", n))
}

// ListByState returns up to MaxListResults elements whose standard state
// matches exactly.
func (s *Service) ListByState(ctx context.Context, state string) (views []schema.View, err error) {
	defer s.observe(OpListByState, time.Now(), &err)

	return s.findMany(ctx, OpListByState, store.Eq("standard_state", state),
		fmt.Sprintf("No elements found in state '%s'", state))
}

// Create validates in, stores it and returns the assigned identifier.
func (s *Service) Create(ctx context.Context, in schema.Input) (id string, err error) {
	defer s.observe(OpCreate, time.Now(), &err)

	e, err := schema.Validate(in)
	if err != nil {
		return "", err
	}
	nid, err := s.docs.InsertOne(ctx, schema.ToDocument(e))
	if err != nil {
		return "", s.internal(ctx, OpCreate, err)
	}
	s.logger.DebugContext(ctx, "element created", "elementID", nid.String(), "name", e.Name)
	return nid.String(), nil
}

// Update replaces the element with the given identifier by in. Attributes
// omitted from in are removed.
func (s *Service) Update(ctx context.Context, id string, in schema.Input) (err error) {
	defer s.observe(OpUpdate, time.Now(), &err)

	e, err := schema.Validate(in)
	if err != nil {
		return err
	}
	nid, err := s.parseID(id)
	if err != nil {
		return err
	}
	n, err := s.docs.UpdateOne(ctx, store.ByID(nid), schema.ToDocument(e))
	if err != nil {
		return s.internal(ctx, OpUpdate, err)
	}
	if n == 0 {
		return notFound("Element not found or no changes made")
	}
	return nil
}

// Delete removes the element with the given identifier.
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	defer s.observe(OpDelete, time.Now(), &err)

	nid, err := s.parseID(id)
	if err != nil {
		return err
	}
	n, err := s.docs.DeleteOne(ctx, store.ByID(nid))
	if err != nil {
		return s.internal(ctx, OpDelete, err)
	}
	if n == 0 {
		return notFound("Element not found")
	}
	return nil
}

func (s *Service) parseID(id string) (uuid.UUID, error) {
	nid, err := s.docs.ParseID(id)
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return nid, nil
}

func (s *Service) findOne(ctx context.Context, op string, f store.Filter, detail string) (schema.View, error) {
	doc, err := s.docs.FindOne(ctx, f)
	if errors.Is(err, store.ErrNotFound) {
		return schema.View{}, notFound(detail)
	}
	if err != nil {
		return schema.View{}, s.internal(ctx, op, err)
	}
	v, err := schema.FromDocument(doc)
	if err != nil {
		return schema.View{}, s.internal(ctx, op, err)
	}
	return v, nil
}

func (s *Service) findMany(ctx context.Context, op string, f store.Filter, detail string) ([]schema.View, error) {
	docs, err := s.docs.FindMany(ctx, f, MaxListResults)
	if err != nil {
		return nil, s.internal(ctx, op, err)
	}
	if len(docs) == 0 {
		return nil, notFound(detail)
	}
	return s.views(ctx, op, docs)
}

func (s *Service) views(ctx context.Context, op string, docs []store.Document) ([]schema.View, error) {
	views := make([]schema.View, 0, len(docs))
	for _, doc := range docs {
		v, err := schema.FromDocument(doc)
		if err != nil {
			return nil, s.internal(ctx, op, err)
		}
		views = append(views, v)
	}
	return views, nil
}

// internal logs err and returns ErrInternal in its place.
func (s *Service) internal(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "storage operation failed", "op", op, "error", err)
	return ErrInternal
}
