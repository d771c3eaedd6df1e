package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Client is the subset of the DynamoDB API used by Store.
// *dynamodb.Client satisfies it.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var _ Documents = (*Store)(nil)

// Store is a DynamoDB-backed document collection.
type Store struct {
	client   Client
	config   Config
	registry *Registry
}

// New creates a new Store instance.
func New(client Client, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
	}
}

// NewWithRegistry creates a new Store instance with a secondary index registry.
func NewWithRegistry(client Client, config Config, registry *Registry) *Store {
	config.validate()
	return &Store{
		client:   client,
		config:   config,
		registry: registry,
	}
}

// SetRegistry sets the secondary index registry.
func (s *Store) SetRegistry(registry *Registry) {
	s.registry = registry
}

// Registry returns the secondary index registry, or nil if not set.
func (s *Store) Registry() *Registry {
	return s.registry
}

// ParseID implements Documents.
func (s *Store) ParseID(v string) (uuid.UUID, error) {
	return ParseID(v)
}

// FindOne returns the first document matching filter.
// Identifier lookups use GetItem; anything else goes through FindMany.
func (s *Store) FindOne(ctx context.Context, filter Filter) (Document, error) {
	if id, ok := filter.IDOnly(); ok {
		result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(s.config.Table),
			Key:       s.keyFor(id),
		})
		if err != nil {
			return nil, fmt.Errorf("get item: %w", err)
		}
		if result.Item == nil {
			return nil, ErrNotFound
		}
		return s.fromItem(result.Item)
	}

	docs, err := s.FindMany(ctx, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

// FindMany returns up to limit documents matching filter.
// A registered secondary index on one of the filter fields turns the lookup
// into a Query; otherwise the table is scanned.
func (s *Store) FindMany(ctx context.Context, filter Filter, limit int) ([]Document, error) {
	if id, ok := filter.IDOnly(); ok {
		doc, err := s.FindOne(ctx, ByID(id))
		if errors.Is(err, ErrNotFound) {
			return []Document{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []Document{doc}, nil
	}

	var (
		raws [][]map[string]types.AttributeValue
		err  error
	)
	if idx, ok := s.registry.Pick(filter); ok {
		var items []map[string]types.AttributeValue
		items, err = s.query(ctx, idx, filter, limit)
		raws = [][]map[string]types.AttributeValue{items}
	} else {
		raws, err = s.scan(ctx, filter, limit)
	}
	if err != nil {
		return nil, err
	}

	docs := []Document{}
	for _, items := range raws {
		for _, raw := range items {
			if limit > 0 && len(docs) >= limit {
				return docs, nil
			}
			doc, err := s.fromItem(raw)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// query reads matching items from a secondary index.
func (s *Store) query(ctx context.Context, idx Index, filter Filter, limit int) ([]map[string]types.AttributeValue, error) {
	key, err := s.buildCondition(Eq(idx.Field, filter[idx.Field]), "k")
	if err != nil {
		return nil, err
	}
	rest, err := s.buildCondition(filter, "f", idx.Field)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.Table),
		IndexName:                 aws.String(idx.IndexName),
		KeyConditionExpression:    aws.String(key.Expr),
		ExpressionAttributeNames:  mergeExprNames(key.Names, rest.Names),
		ExpressionAttributeValues: mergeExprValues(key.Values, rest.Values),
	}
	if !rest.empty() {
		input.FilterExpression = aws.String(rest.Expr)
	}

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", idx.IndexName, err)
		}
		items = append(items, page.Items...)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

// scan reads matching items from the base table. With ScanSegments > 1 the
// segments are read in parallel; the result keeps one slice per segment so
// callers can concatenate them in segment order.
func (s *Store) scan(ctx context.Context, filter Filter, limit int) ([][]map[string]types.AttributeValue, error) {
	cond, err := s.buildCondition(filter, "f")
	if err != nil {
		return nil, err
	}

	segments := s.config.ScanSegments
	if segments <= 1 {
		items, err := s.scanSegment(ctx, cond, limit, nil)
		if err != nil {
			return nil, err
		}
		return [][]map[string]types.AttributeValue{items}, nil
	}

	results := make([][]map[string]types.AttributeValue, segments)
	g, gctx := errgroup.WithContext(ctx)
	for seg := 0; seg < segments; seg++ {
		g.Go(func() error {
			items, err := s.scanSegment(gctx, cond, limit, &segmentSpec{
				segment: int32(seg),
				total:   int32(segments),
			})
			if err != nil {
				return fmt.Errorf("segment %02x: %w", seg, err)
			}
			results[seg] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

type segmentSpec struct {
	segment int32
	total   int32
}

func (s *Store) scanSegment(ctx context.Context, cond condition, limit int, seg *segmentSpec) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(s.config.Table),
	}
	if !cond.empty() {
		input.FilterExpression = aws.String(cond.Expr)
		input.ExpressionAttributeNames = cond.Names
		input.ExpressionAttributeValues = cond.Values
	}
	if seg != nil {
		input.Segment = aws.Int32(seg.segment)
		input.TotalSegments = aws.Int32(seg.total)
	}

	// Scan's Limit bounds evaluated items, not matches, so the cap is applied here.
	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, page.Items...)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

// InsertOne stores doc under a new random identifier.
func (s *Store) InsertOne(ctx context.Context, doc Document) (uuid.UUID, error) {
	id := uuid.New()
	item, err := s.toItem(doc, id)
	if err != nil {
		return uuid.Nil, err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.config.Table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": s.config.IDAttribute},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return uuid.Nil, ErrAlreadyExists
		}
		return uuid.Nil, fmt.Errorf("put item: %w", err)
	}
	return id, nil
}

// UpdateOne replaces the matching document with doc. The replacement is a
// full put, so fields missing from doc are removed.
func (s *Store) UpdateOne(ctx context.Context, filter Filter, doc Document) (int64, error) {
	id, found, err := s.resolveID(ctx, filter)
	if err != nil || !found {
		return 0, err
	}

	item, err := s.toItem(doc, id)
	if err != nil {
		return 0, err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.config.Table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": s.config.IDAttribute},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, nil
		}
		return 0, fmt.Errorf("put item: %w", err)
	}
	return 1, nil
}

// DeleteOne removes the matching document.
func (s *Store) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	id, found, err := s.resolveID(ctx, filter)
	if err != nil || !found {
		return 0, err
	}

	result, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.config.Table),
		Key:          s.keyFor(id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return 0, fmt.Errorf("delete item: %w", err)
	}
	if len(result.Attributes) == 0 {
		return 0, nil
	}
	return 1, nil
}

// resolveID returns the identifier a write filter targets. Identifier
// filters resolve without a read.
func (s *Store) resolveID(ctx context.Context, filter Filter) (uuid.UUID, bool, error) {
	if id, ok := filter.IDOnly(); ok {
		return id, true, nil
	}
	doc, err := s.FindOne(ctx, filter)
	if errors.Is(err, ErrNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	id, ok := doc.ID()
	return id, ok, nil
}
