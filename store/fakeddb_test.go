package store_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDDB is an in-memory DynamoDB double that understands the expression
// shapes the store emits: equality conjunctions and attribute_(not_)exists.
type fakeDDB struct {
	mu       sync.Mutex
	idAttr   string
	pageSize int
	order    []string
	items    map[string]map[string]types.AttributeValue
	calls    map[string]int
	fail     error
}

func newFakeDDB(idAttr string) *fakeDDB {
	return &fakeDDB{
		idAttr:   idAttr,
		pageSize: 3,
		items:    make(map[string]map[string]types.AttributeValue),
		calls:    make(map[string]int),
	}
}

func (f *fakeDDB) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeDDB) enter(op string) error {
	f.calls[op]++
	return f.fail
}

func (f *fakeDDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetItem"); err != nil {
		return nil, err
	}
	key := params.Key[f.idAttr].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[key]}, nil
}

func (f *fakeDDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("PutItem"); err != nil {
		return nil, err
	}
	key := params.Item[f.idAttr].(*types.AttributeValueMemberS).Value
	existing := f.items[key]
	if params.ConditionExpression != nil {
		ok, err := eval(aws.ToString(params.ConditionExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues, existing)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	if existing == nil {
		f.order = append(f.order, key)
	}
	f.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteItem"); err != nil {
		return nil, err
	}
	key := params.Key[f.idAttr].(*types.AttributeValueMemberS).Value
	old, ok := f.items[key]
	if !ok {
		return &dynamodb.DeleteItemOutput{}, nil
	}
	delete(f.items, key)
	for i, k := range f.order {
		if k == key {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	out := &dynamodb.DeleteItemOutput{}
	if params.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = old
	}
	return out, nil
}

func (f *fakeDDB) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Query"); err != nil {
		return nil, err
	}
	if params.IndexName == nil {
		return nil, errors.New("fake: base table query not supported")
	}
	items, last, err := f.page(params.ExclusiveStartKey, nil, func(item map[string]types.AttributeValue) (bool, error) {
		ok, err := eval(aws.ToString(params.KeyConditionExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues, item)
		if err != nil || !ok {
			return false, err
		}
		if params.FilterExpression == nil {
			return true, nil
		}
		return eval(aws.ToString(params.FilterExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues, item)
	})
	if err != nil {
		return nil, err
	}
	return &dynamodb.QueryOutput{Items: items, LastEvaluatedKey: last}, nil
}

func (f *fakeDDB) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Scan"); err != nil {
		return nil, err
	}
	var segment func(i int) bool
	if params.TotalSegments != nil {
		total, seg := int(*params.TotalSegments), int(aws.ToInt32(params.Segment))
		segment = func(i int) bool { return i%total == seg }
	}
	items, last, err := f.page(params.ExclusiveStartKey, segment, func(item map[string]types.AttributeValue) (bool, error) {
		if params.FilterExpression == nil {
			return true, nil
		}
		return eval(aws.ToString(params.FilterExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues, item)
	})
	if err != nil {
		return nil, err
	}
	return &dynamodb.ScanOutput{Items: items, LastEvaluatedKey: last}, nil
}

// page evaluates up to pageSize items after start, in insertion order.
func (f *fakeDDB) page(start map[string]types.AttributeValue, inSegment func(int) bool, match func(map[string]types.AttributeValue) (bool, error)) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	begin := 0
	if start != nil {
		after := start[f.idAttr].(*types.AttributeValueMemberS).Value
		for i, k := range f.order {
			if k == after {
				begin = i + 1
				break
			}
		}
	}

	var (
		items     []map[string]types.AttributeValue
		evaluated int
	)
	for i := begin; i < len(f.order); i++ {
		if inSegment != nil && !inSegment(i) {
			continue
		}
		if evaluated == f.pageSize {
			lastKey := f.order[i-1]
			return items, map[string]types.AttributeValue{f.idAttr: &types.AttributeValueMemberS{Value: lastKey}}, nil
		}
		evaluated++
		item := f.items[f.order[i]]
		ok, err := match(item)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			items = append(items, item)
		}
	}
	return items, nil, nil
}

// eval evaluates the expression subset used by the store.
func eval(expr string, names map[string]string, values map[string]types.AttributeValue, item map[string]types.AttributeValue) (bool, error) {
	for _, clause := range strings.Split(expr, " AND ") {
		clause = strings.TrimSpace(clause)
		switch {
		case strings.HasPrefix(clause, "attribute_not_exists("):
			name := names[strings.TrimSuffix(strings.TrimPrefix(clause, "attribute_not_exists("), ")")]
			if _, ok := item[name]; ok {
				return false, nil
			}
		case strings.HasPrefix(clause, "attribute_exists("):
			name := names[strings.TrimSuffix(strings.TrimPrefix(clause, "attribute_exists("), ")")]
			if _, ok := item[name]; !ok {
				return false, nil
			}
		default:
			parts := strings.SplitN(clause, " = ", 2)
			if len(parts) != 2 {
				return false, fmt.Errorf("fake: unsupported clause %q", clause)
			}
			name, ok := names[parts[0]]
			if !ok {
				return false, fmt.Errorf("fake: unknown name placeholder %q", parts[0])
			}
			want, ok := values[parts[1]]
			if !ok {
				return false, fmt.Errorf("fake: unknown value placeholder %q", parts[1])
			}
			if !reflect.DeepEqual(item[name], want) {
				return false, nil
			}
		}
	}
	return true, nil
}
