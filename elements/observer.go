package elements

import (
	"errors"
	"time"

	"github.com/jacentio/periodic/schema"
)

// Observer receives the outcome of every Service operation.
type Observer interface {
	OnOperation(op string, d time.Duration, err error)
}

// NoopObserver discards all observations.
type NoopObserver struct{}

// OnOperation implements Observer.
func (NoopObserver) OnOperation(string, time.Duration, error) {}

// Outcome classifies an operation error into a small label set:
// "ok", "not_found", "invalid" or "error".
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidID), errors.Is(err, schema.ErrInvalid):
		return "invalid"
	default:
		return "error"
	}
}
