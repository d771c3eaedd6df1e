package sqldoc_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/periodic/store"
	"github.com/jacentio/periodic/store/sqldoc"
	"github.com/jacentio/periodic/store/storetest"
)

func openSQLite(t *testing.T) *sqldoc.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "elements.db")
	s, err := sqldoc.Open(context.Background(), sqldoc.SQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Documents {
		return openSQLite(t)
	})
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "elements.db")

	s, err := sqldoc.Open(ctx, sqldoc.SQLite, path)
	require.NoError(t, err)
	id, err := s.InsertOne(ctx, store.Document{"name": "Sodium", "group": "1"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := sqldoc.Open(ctx, sqldoc.SQLite, path)
	require.NoError(t, err)
	defer reopened.Close()

	doc, err := reopened.FindOne(ctx, store.ByID(id))
	require.NoError(t, err)
	assert.Equal(t, "Sodium", doc["name"])
}

func TestSQLite_NaturalOrder(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)
	for _, name := range []string{"Beryllium", "Magnesium", "Calcium"} {
		_, err := s.InsertOne(ctx, store.Document{"name": name, "group": "2"})
		require.NoError(t, err)
	}

	docs, err := s.FindMany(ctx, store.Eq("group", "2"), 0)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "Beryllium", docs[0]["name"])
	assert.Equal(t, "Calcium", docs[2]["name"])
}

func TestSQLite_RejectsUnsafeFieldNames(t *testing.T) {
	s := openSQLite(t)
	_, err := s.FindMany(context.Background(), store.Eq("name') OR 1=1 --", "x"), 0)
	assert.True(t, errors.Is(err, store.ErrInvalidFilter), "got %v", err)
}

func TestSQLite_RejectsNonNativeID(t *testing.T) {
	s := openSQLite(t)
	_, err := s.FindMany(context.Background(), store.Filter{store.IDKey: "not-native"}, 0)
	assert.True(t, errors.Is(err, store.ErrInvalidFilter), "got %v", err)
}

func TestNew_InvalidTableName(t *testing.T) {
	s := openSQLite(t)
	_, err := sqldoc.New(context.Background(), s.DB(), sqldoc.SQLite, "elements; DROP TABLE x")
	assert.Error(t, err)
}
