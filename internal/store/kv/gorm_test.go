package kv

import (
	"context"
	"fmt"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	s, err := NewGormStore(db)
	require.NoError(t, err)
	return s
}

func TestGormStoreMissingKey(t *testing.T) {
	s := openTestStore(t)

	v, ok, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestGormStoreSetOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "imageCreator.creations", []byte(`[]`)))
	require.NoError(t, s.Set(ctx, "imageCreator.creations", []byte(`[{"id":"s1","name":"x"}]`)))

	v, ok, err := s.Get(ctx, "imageCreator.creations")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":"s1","name":"x"}]`, string(v))
}

func TestGormStoreDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte(`1`)))
	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "imageCreator.s1.messages", Key("imageCreator", "s1", "messages"))
}
