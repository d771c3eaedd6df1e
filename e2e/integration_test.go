//go:build e2e

// Package e2e contains end-to-end integration tests against real backends.
// Run with: go test -tags=e2e -v ./e2e/...
//
// DynamoDB tests use the default AWS credential chain; set
// PERIODIC_E2E_PROFILE to pick a shared profile and PERIODIC_E2E_ENDPOINT to
// target DynamoDB Local. Postgres tests run when PERIODIC_E2E_POSTGRES_DSN
// is set.
package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/periodic/elements"
	"github.com/jacentio/periodic/schema"
	"github.com/jacentio/periodic/store"
	"github.com/jacentio/periodic/store/sqldoc"
	"github.com/jacentio/periodic/store/storetest"
)

// Table names are unique per test run to avoid conflicts.
const tablePrefix = "periodic-e2e-test"

var (
	testID        string
	elementsTable string
	ddbClient     *dynamodb.Client
)

// Secondary indexes created on the test table.
var indexes = []store.Index{
	{Field: "name", IndexName: "name-index"},
	{Field: "period", IndexName: "period-index"},
}

func TestMain(m *testing.M) {
	testID = uuid.New().String()[:8]
	elementsTable = fmt.Sprintf("%s-%s-elements", tablePrefix, testID)
	fmt.Printf("Test ID: %s\nTable: %s\n", testID, elementsTable)

	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if profile := os.Getenv("PERIODIC_E2E_PROFILE"); profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		fmt.Printf("Failed to load AWS config: %v\n", err)
		os.Exit(1)
	}
	ddbClient = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if ep := os.Getenv("PERIODIC_E2E_ENDPOINT"); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
	})

	if err := createTable(ctx); err != nil {
		fmt.Printf("Failed to create table: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := deleteTable(ctx); err != nil {
		fmt.Printf("Failed to delete table: %v\n", err)
	}
	os.Exit(code)
}

func createTable(ctx context.Context) error {
	fmt.Println("Creating test table...")

	attrs := []types.AttributeDefinition{
		{AttributeName: aws.String(store.IDKey), AttributeType: types.ScalarAttributeTypeS},
	}
	var gsis []types.GlobalSecondaryIndex
	for _, idx := range indexes {
		attrs = append(attrs, types.AttributeDefinition{
			AttributeName: aws.String(idx.Field),
			AttributeType: types.ScalarAttributeTypeS,
		})
		gsis = append(gsis, types.GlobalSecondaryIndex{
			IndexName: aws.String(idx.IndexName),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(idx.Field), KeyType: types.KeyTypeHash},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		})
	}

	_, err := ddbClient.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(elementsTable),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(store.IDKey), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions:   attrs,
		GlobalSecondaryIndexes: gsis,
		BillingMode:            types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", elementsTable, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(ddbClient)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(elementsTable),
	}, 2*time.Minute); err != nil {
		return fmt.Errorf("wait for table %s: %w", elementsTable, err)
	}

	fmt.Println("Table created and active")
	return nil
}

func deleteTable(ctx context.Context) error {
	fmt.Println("Deleting test table...")
	_, err := ddbClient.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(elementsTable),
	})
	return err
}

// clearTable removes every item so each test starts empty.
func clearTable(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	p := dynamodb.NewScanPaginator(ddbClient, &dynamodb.ScanInput{
		TableName:            aws.String(elementsTable),
		ProjectionExpression: aws.String("#id"),
		ExpressionAttributeNames: map[string]string{
			"#id": store.IDKey,
		},
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		require.NoError(t, err)
		for _, item := range page.Items {
			_, err := ddbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(elementsTable),
				Key:       map[string]types.AttributeValue{store.IDKey: item[store.IDKey]},
			})
			require.NoError(t, err)
		}
	}
}

func newStore(t *testing.T, segments int) *store.Store {
	t.Helper()
	clearTable(t)
	return store.New(ddbClient, store.Config{
		Table:        elementsTable,
		ScanSegments: segments,
	})
}

// newIndexedStore queries through the table's secondary indexes. Index
// reads are eventually consistent.
func newIndexedStore(t *testing.T) *store.Store {
	t.Helper()
	s := newStore(t, 1)
	reg := store.NewRegistry()
	for _, idx := range indexes {
		reg.Register(idx)
	}
	s.SetRegistry(reg)
	return s
}

// eventually retries f while index reads catch up.
func eventually(t *testing.T, f func() error) {
	t.Helper()
	var err error
	for i := 0; i < 10; i++ {
		if err = f(); err == nil {
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
	require.NoError(t, err)
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Storage conformance ---

func TestDynamoDB_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Documents { return newStore(t, 1) })
}

func TestDynamoDB_Conformance_Segmented(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Documents { return newStore(t, 4) })
}

func TestPostgres_Conformance(t *testing.T) {
	dsn := os.Getenv("PERIODIC_E2E_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PERIODIC_E2E_POSTGRES_DSN not set")
	}
	storetest.Run(t, func(t *testing.T) store.Documents {
		s, err := sqldoc.Open(context.Background(), sqldoc.Postgres, dsn)
		require.NoError(t, err)
		_, err = s.DB().Exec("DELETE FROM " + sqldoc.DefaultTable)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

// --- Access layer against DynamoDB ---

func hydrogen() schema.Input {
	return schema.Input{
		"atomic_number":            json.Number("1"),
		"period":                   json.Number("1"),
		"block":                    "s",
		"group_block":              "alkali metal",
		"electronic_configuration": "1s1",
		"name":                     "Hidrógeno",
		"symbol":                   "H",
	}
}

func TestElements_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc := elements.New(newIndexedStore(t), quiet())

	id, err := svc.Create(ctx, hydrogen())
	require.NoError(t, err)

	v, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, v.ID)
	assert.Equal(t, "Hidrógeno", v.Name)

	byNumber, err := svc.GetByAtomicNumber(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, v, byNumber)

	eventually(t, func() error {
		byName, err := svc.GetByName(ctx, "Hidrógeno")
		if err != nil {
			return err
		}
		assert.Equal(t, id, byName.ID)
		return nil
	})

	replacement := hydrogen()
	replacement["standard_state"] = "gas"
	require.NoError(t, svc.Update(ctx, id, replacement))

	gases, err := svc.ListByState(ctx, "gas")
	require.NoError(t, err)
	require.Len(t, gases, 1)

	eventually(t, func() error {
		period1, err := svc.ListByPeriod(ctx, 1)
		if err != nil {
			return err
		}
		assert.Len(t, period1, 1)
		return nil
	})

	require.NoError(t, svc.Delete(ctx, id))

	_, err = svc.Get(ctx, id)
	assert.True(t, errors.Is(err, elements.ErrNotFound), "got %v", err)

	err = svc.Delete(ctx, id)
	assert.True(t, errors.Is(err, elements.ErrNotFound), "got %v", err)
}

func TestElements_UpdateMissing(t *testing.T) {
	svc := elements.New(newStore(t, 1), quiet())

	err := svc.Update(context.Background(), uuid.NewString(), hydrogen())
	assert.True(t, errors.Is(err, elements.ErrNotFound), "got %v", err)
}

func TestElements_ListByPeriodCapped(t *testing.T) {
	ctx := context.Background()
	svc := elements.New(newStore(t, 4), quiet())

	for i := 0; i < elements.MaxListResults+5; i++ {
		in := hydrogen()
		in["atomic_number"] = i + 1
		in["period"] = 9
		in["name"] = fmt.Sprintf("E%03d", i)
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	views, err := svc.ListByPeriod(ctx, 9)
	require.NoError(t, err)
	assert.Len(t, views, elements.MaxListResults)
}
