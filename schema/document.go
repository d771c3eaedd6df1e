package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/jacentio/periodic/store"
)

// ToDocument maps e to its stored form. Integer attributes are written in
// decimal string form, absent optionals are omitted, and a non-nil ID is
// carried under store.IDKey.
func ToDocument(e Element) store.Document {
	doc := make(store.Document, len(fields)+1)
	for _, f := range fields {
		v := f.get(&e)
		if v == nil {
			continue
		}
		if f.encoded {
			v = strconv.Itoa(v.(int))
		}
		doc[f.name] = v
	}
	if e.ID != uuid.Nil {
		doc[store.IDKey] = e.ID
	}
	return doc
}

// FromDocument maps a stored document to its response view. Integer
// attributes are read from their string form; native numbers written by
// other tools are tolerated. Attributes missing from the document are left
// at their zero value.
func FromDocument(doc store.Document) (View, error) {
	var v View
	if id, ok := doc.ID(); ok {
		v.Element.ID = id
		v.ID = id.String()
	}
	for _, f := range fields {
		raw, ok := doc[f.name]
		if !ok || raw == nil {
			continue
		}
		val, err := decodeStored(f, raw)
		if err != nil {
			return View{}, fmt.Errorf("schema: document %s: %s: %w", v.ID, f.name, err)
		}
		f.set(&v.Element, val)
	}
	return v, nil
}

func decodeStored(f field, raw any) (any, error) {
	if f.kind != kindInt {
		return coerce(f.kind, raw)
	}
	switch v := raw.(type) {
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("malformed integer %q", v)
		}
		return n, nil
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("malformed integer %v", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("malformed integer %q", v.String())
		}
		return int(n), nil
	default:
		return toInt(raw)
	}
}
