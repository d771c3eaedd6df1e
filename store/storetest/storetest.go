// Package storetest provides a behavioural test suite shared by every
// store.Documents implementation.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/periodic/store"
)

// Factory returns a fresh, empty backend for one subtest.
type Factory func(t *testing.T) store.Documents

// Run exercises the store.Documents contract against backends built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("InsertThenFindByID", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		id, err := s.InsertOne(ctx, store.Document{"name": "Helium", "atomic_number": "2", "density": 0.0001785})
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, id)

		doc, err := s.FindOne(ctx, store.ByID(id))
		require.NoError(t, err)
		gotID, ok := doc.ID()
		require.True(t, ok, "document must carry its identifier")
		assert.Equal(t, id, gotID)
		assert.Equal(t, "Helium", doc["name"])
		assert.Equal(t, "2", doc["atomic_number"])
		assert.InDelta(t, 0.0001785, doc["density"], 1e-12)
	})

	t.Run("FindOneMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.FindOne(context.Background(), store.ByID(uuid.New()))
		assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)

		_, err = s.FindOne(context.Background(), store.Eq("name", "Unobtainium"))
		assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
	})

	t.Run("FindOneByField", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		_, err := s.InsertOne(ctx, store.Document{"name": "Hydrogen", "atomic_number": "1"})
		require.NoError(t, err)
		id, err := s.InsertOne(ctx, store.Document{"name": "Helium", "atomic_number": "2"})
		require.NoError(t, err)

		doc, err := s.FindOne(ctx, store.Eq("atomic_number", "2"))
		require.NoError(t, err)
		gotID, _ := doc.ID()
		assert.Equal(t, id, gotID)
	})

	t.Run("StringEncodedFilter", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		_, err := s.InsertOne(ctx, store.Document{"name": "Lithium", "group": "1"})
		require.NoError(t, err)

		docs, err := s.FindMany(ctx, store.Eq("group", "1"), 0)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("FindManyMultiField", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		for _, d := range []store.Document{
			{"name": "Hydrogen", "period": "1", "standard_state": "gas"},
			{"name": "Lithium", "period": "2", "standard_state": "solid"},
			{"name": "Nitrogen", "period": "2", "standard_state": "gas"},
		} {
			_, err := s.InsertOne(ctx, d)
			require.NoError(t, err)
		}

		docs, err := s.FindMany(ctx, store.Filter{"period": "2", "standard_state": "gas"}, 0)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Nitrogen", docs[0]["name"])
	})

	t.Run("FindManyEmpty", func(t *testing.T) {
		s := newStore(t)
		docs, err := s.FindMany(context.Background(), store.Eq("group", "18"), 100)
		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})

	t.Run("FindManyLimit", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		for i := 0; i < 7; i++ {
			_, err := s.InsertOne(ctx, store.Document{"name": fmt.Sprintf("e%d", i), "period": "7"})
			require.NoError(t, err)
		}

		docs, err := s.FindMany(ctx, store.Eq("period", "7"), 5)
		require.NoError(t, err)
		assert.Len(t, docs, 5)

		all, err := s.FindMany(ctx, store.Filter{}, 0)
		require.NoError(t, err)
		assert.Len(t, all, 7)
	})

	t.Run("UpdateReplacesDocument", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		id, err := s.InsertOne(ctx, store.Document{"name": "Carbon", "bonding_type": "covalent network"})
		require.NoError(t, err)

		n, err := s.UpdateOne(ctx, store.ByID(id), store.Document{"name": "Carbon-12"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		doc, err := s.FindOne(ctx, store.ByID(id))
		require.NoError(t, err)
		assert.Equal(t, "Carbon-12", doc["name"])
		assert.NotContains(t, doc, "bonding_type")
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := newStore(t)
		n, err := s.UpdateOne(context.Background(), store.ByID(uuid.New()), store.Document{"name": "x"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("UpdateByField", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		id, err := s.InsertOne(ctx, store.Document{"name": "Oxygen"})
		require.NoError(t, err)

		n, err := s.UpdateOne(ctx, store.Eq("name", "Oxygen"), store.Document{"name": "Oxygen", "symbol": "O"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		doc, err := s.FindOne(ctx, store.ByID(id))
		require.NoError(t, err)
		assert.Equal(t, "O", doc["symbol"])
	})

	t.Run("DeleteThenFind", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		id, err := s.InsertOne(ctx, store.Document{"name": "Neon"})
		require.NoError(t, err)

		n, err := s.DeleteOne(ctx, store.ByID(id))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = s.FindOne(ctx, store.ByID(id))
		assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)

		n, err = s.DeleteOne(ctx, store.ByID(id))
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("ParseID", func(t *testing.T) {
		s := newStore(t)
		id := uuid.New()
		got, err := s.ParseID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, got)

		for _, bad := range []string{"", "123", "not-a-uuid", "65f1c0ffee0000000000beef"} {
			_, err := s.ParseID(bad)
			assert.True(t, errors.Is(err, store.ErrInvalidID), "ParseID(%q) = %v", bad, err)
		}
	})
}
