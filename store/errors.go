package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no document matches a filter.
	ErrNotFound = errors.New("store: document not found")

	// ErrInvalidID is returned when an identifier cannot be parsed into the native form.
	ErrInvalidID = errors.New("store: invalid document identifier")

	// ErrInvalidFilter is returned when a filter names a field the backend cannot address.
	ErrInvalidFilter = errors.New("store: invalid filter")

	// ErrAlreadyExists is returned when an insert collides with an existing identifier.
	ErrAlreadyExists = errors.New("store: document already exists")
)

// InvalidIDError describes an identifier that failed to parse.
type InvalidIDError struct {
	Value string
	Err   error
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("store: invalid document identifier %q: %v", e.Value, e.Err)
}

// Is makes errors.Is(err, ErrInvalidID) hold for every InvalidIDError.
func (e *InvalidIDError) Is(target error) bool {
	return target == ErrInvalidID
}

func (e *InvalidIDError) Unwrap() error {
	return e.Err
}
