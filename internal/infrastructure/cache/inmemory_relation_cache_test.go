package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/lineage/internal/domain/lineage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRelation(t *testing.T) *lineage.Relation {
	t.Helper()
	source, err := lineage.NewUID(lineage.EntityTypeOrder)
	require.NoError(t, err)
	target, err := lineage.NewUID(lineage.EntityTypeCashFlow)
	require.NoError(t, err)

	rel, err := lineage.NewRelation(source, target, lineage.RelationTypePayment, nil)
	require.NoError(t, err)
	return rel
}

func TestInMemoryRelationCache_GetSet(t *testing.T) {
	c := NewInMemoryRelationCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	rel := testRelation(t)
	uid := lineage.UID(rel.SourceUID)

	t.Run("miss on empty cache", func(t *testing.T) {
		_, ok, err := c.Get(ctx, uid)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("hit after set", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, uid, []lineage.Relation{*rel}, time.Minute))

		got, ok, err := c.Get(ctx, uid)
		require.NoError(t, err)
		require.True(t, ok)
		require.Len(t, got, 1)
		assert.Equal(t, rel.SourceUID, got[0].SourceUID)
	})

	t.Run("empty relation set is a cacheable hit", func(t *testing.T) {
		empty := lineage.UID("BILL-1716890000-A1B2C3D4E5")
		require.NoError(t, c.Set(ctx, empty, nil, time.Minute))

		got, ok, err := c.Get(ctx, empty)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, got)
	})
}

func TestInMemoryRelationCache_Expiry(t *testing.T) {
	c := NewInMemoryRelationCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	rel := testRelation(t)
	uid := lineage.UID(rel.SourceUID)

	require.NoError(t, c.Set(ctx, uid, []lineage.Relation{*rel}, 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, ok, err := c.Get(ctx, uid)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInMemoryRelationCache_Invalidate(t *testing.T) {
	c := NewInMemoryRelationCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	rel := testRelation(t)
	source := lineage.UID(rel.SourceUID)
	target := lineage.UID(rel.TargetUID)

	require.NoError(t, c.Set(ctx, source, []lineage.Relation{*rel}, time.Minute))
	require.NoError(t, c.Set(ctx, target, []lineage.Relation{*rel}, time.Minute))

	require.NoError(t, c.Invalidate(ctx, source, target))

	_, ok, err := c.Get(ctx, source)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.Get(ctx, target)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInMemoryRelationCache_CloseIsIdempotent(t *testing.T) {
	c := NewInMemoryRelationCache(time.Minute)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
