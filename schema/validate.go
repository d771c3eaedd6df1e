package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// ErrInvalid is matched by every *ValidationError.
var ErrInvalid = errors.New("schema: invalid element")

// FieldError describes one rejected attribute.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every attribute that failed validation, in
// attribute name order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return ErrInvalid.Error() + ": " + strings.Join(parts, "; ")
}

// Is reports whether target is ErrInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Validate checks in against the element schema and returns the typed
// record. Required attributes must be present and non-null. Optional
// attributes that are missing or null stay absent. Numeric attributes
// accept JSON numbers only; strings are never coerced. Unknown keys,
// including any identifier, are ignored.
func Validate(in Input) (Element, error) {
	var (
		e    Element
		errs []FieldError
	)
	for _, f := range fields {
		raw, present := in[f.name]
		if !present || raw == nil {
			if f.required {
				errs = append(errs, FieldError{Field: f.name, Message: "field required"})
			}
			continue
		}
		v, err := coerce(f.kind, raw)
		if err != nil {
			errs = append(errs, FieldError{Field: f.name, Message: err.Error()})
			continue
		}
		f.set(&e, v)
	}
	if len(errs) > 0 {
		return Element{}, &ValidationError{Fields: errs}
	}
	return e, nil
}

// coerce converts a decoded JSON value to the Go type of k.
func coerce(k kind, raw any) (any, error) {
	switch k {
	case kindInt:
		return toInt(raw)
	case kindFloat:
		return toFloat(raw)
	default:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected %s, got %s", k, typeName(raw))
		}
		return s, nil
	}
}

func toInt(raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %s", v)
		}
		return integral(f)
	case float64:
		return integral(v)
	default:
		return nil, fmt.Errorf("expected integer, got %s", typeName(raw))
	}
}

// integral converts f to an int when it is a whole number within int range.
func integral(f float64) (any, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return nil, fmt.Errorf("expected integer, got %v", f)
	}
	if f < math.MinInt || f >= -math.MinInt {
		return nil, fmt.Errorf("integer out of range: %v", f)
	}
	return int(f), nil
}

func toFloat(raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("expected number, got %s", v)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("expected number, got %s", typeName(raw))
	}
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int64, int32:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// DecodeInput reads one JSON object from r. Numbers are kept as
// json.Number so integers are not silently truncated.
func DecodeInput(r io.Reader) (Input, error) {
	var in Input
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("schema: decode element: %w", err)
	}
	if in == nil {
		return nil, errors.New("schema: decode element: body must be a JSON object")
	}
	return in, nil
}

// DecodeInputs reads a JSON array of objects from r.
func DecodeInputs(r io.Reader) ([]Input, error) {
	var ins []Input
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&ins); err != nil {
		return nil, fmt.Errorf("schema: decode elements: %w", err)
	}
	return ins, nil
}
