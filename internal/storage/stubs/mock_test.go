package stubs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStore_GetAbsentKey(t *testing.T) {
	store := NewMockStore()

	raw, err := store.Get(context.Background(), "books")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestMockStore_SetGet(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "books", []byte(`[{"id":"b1"}]`)))

	raw, err := store.Get(ctx, "books")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"id":"b1"}]`), raw)

	// Overwrite wins.
	require.NoError(t, store.Set(ctx, "books", []byte(`[]`)))
	raw, err = store.Get(ctx, "books")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), raw)
}

func TestMockStore_CopiesOnBothSides(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	in := []byte(`original`)
	require.NoError(t, store.Set(ctx, "k", in))
	in[0] = 'X'

	out, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`original`), out)

	// Mutating what Get returned must not leak into the store either.
	out[0] = 'Y'
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`original`), again)
}
