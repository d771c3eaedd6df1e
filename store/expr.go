package store

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// condition is a rendered DynamoDB expression with its placeholders.
type condition struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// empty reports whether the condition has no clauses.
func (c condition) empty() bool {
	return c.Expr == ""
}

// buildCondition renders an equality conjunction over the filter fields,
// skipping any field listed in skip. Placeholders use the given prefix so
// key conditions and filter expressions can share one input.
func (s *Store) buildCondition(f Filter, prefix string, skip ...string) (condition, error) {
	cond := condition{
		Names:  map[string]string{},
		Values: map[string]types.AttributeValue{},
	}

	var clauses []string
	i := 0
	for _, field := range f.Fields() {
		if contains(skip, field) {
			continue
		}
		av, err := s.marshalValue(f[field])
		if err != nil {
			return condition{}, fmt.Errorf("%w: field %q: %v", ErrInvalidFilter, field, err)
		}
		nameKey := fmt.Sprintf("#%s%d", prefix, i)
		valueKey := fmt.Sprintf(":%s%d", prefix, i)
		cond.Names[nameKey] = s.attributeName(field)
		cond.Values[valueKey] = av
		clauses = append(clauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}

	cond.Expr = joinStrings(clauses, " AND ")
	return cond, nil
}

// attributeName maps a document field to its item attribute name.
func (s *Store) attributeName(field string) string {
	if field == IDKey {
		return s.config.IDAttribute
	}
	return field
}

// marshalValue converts a filter or document value to an attribute value.
// Identifiers are stored as their canonical string form.
func (s *Store) marshalValue(v any) (types.AttributeValue, error) {
	if id, ok := v.(uuid.UUID); ok {
		return &types.AttributeValueMemberS{Value: id.String()}, nil
	}
	return attributevalue.Marshal(v)
}

// toItem converts a document to a DynamoDB item keyed by id.
func (s *Store) toItem(doc Document, id uuid.UUID) (map[string]types.AttributeValue, error) {
	fields := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == IDKey {
			continue
		}
		fields[k] = v
	}
	item, err := attributevalue.MarshalMap(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	item[s.config.IDAttribute] = &types.AttributeValueMemberS{Value: id.String()}
	return item, nil
}

// fromItem converts a DynamoDB item back to a document.
func (s *Store) fromItem(raw map[string]types.AttributeValue) (Document, error) {
	var fields map[string]any
	if err := attributevalue.UnmarshalMap(raw, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}

	doc := Document(fields)
	if doc == nil {
		doc = Document{}
	}
	if rawID, ok := fields[s.config.IDAttribute].(string); ok {
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("item identifier %q: %w", rawID, err)
		}
		delete(doc, s.config.IDAttribute)
		doc[IDKey] = id
	}
	return doc, nil
}

// keyFor returns the primary key for id.
func (s *Store) keyFor(id uuid.UUID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		s.config.IDAttribute: &types.AttributeValueMemberS{Value: id.String()},
	}
}

// mergeExprNames merges multiple expression attribute name maps.
func mergeExprNames(maps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}

// mergeExprValues merges multiple expression attribute value maps.
func mergeExprValues(maps ...map[string]types.AttributeValue) map[string]types.AttributeValue {
	result := make(map[string]types.AttributeValue)
	for _, m := range maps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// joinStrings joins strings with a separator (avoiding strings package import).
func joinStrings(strs []string, sep string) string {
	if len(strs) == 0 {
		return ""
	}
	result := strs[0]
	for _, s := range strs[1:] {
		result += sep + s
	}
	return result
}
