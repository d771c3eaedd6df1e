package elements

import "errors"

// Sentinel errors for element operations.
var (
	// ErrInvalidID is returned when an identifier cannot be parsed into the
	// store's native form. Storage is not touched.
	ErrInvalidID = errors.New("elements: invalid ID format")

	// ErrNotFound is returned when a well-formed request matches or affects
	// no element. Errors returned for this case are *NotFoundError values.
	ErrNotFound = errors.New("elements: element not found")

	// ErrInternal is returned for unexpected storage faults. The underlying
	// fault is logged and never returned.
	ErrInternal = errors.New("elements: internal server error")
)

// NotFoundError carries a client-facing description of an empty result.
type NotFoundError struct {
	Detail string
}

func (e *NotFoundError) Error() string {
	return "elements: " + e.Detail
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(detail string) error {
	return &NotFoundError{Detail: detail}
}
