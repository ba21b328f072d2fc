package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circulation/internal/models"
	"circulation/internal/storage/stubs"
)

func TestCollections_EmptyStore(t *testing.T) {
	collections := NewCollections(stubs.NewMockStore())
	ctx := context.Background()

	books, err := collections.Books(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)

	txs, err := collections.Transactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestCollections_BooksRoundTrip(t *testing.T) {
	collections := NewCollections(stubs.NewMockStore())
	ctx := context.Background()

	user := "u1"
	in := []models.Book{{
		ID:        "b1",
		LibraryID: "lib1",
		Title:     "Dune",
		Author:    "Frank Herbert",
		Copies: []models.Copy{
			{ID: "c1", BorrowedBy: &user},
			{ID: "c2"},
		},
		ReservedBy: []string{"u2", "u3"},
	}}
	require.NoError(t, collections.SaveBooks(ctx, in))

	out, err := collections.Books(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in[0].ID, out[0].ID)
	assert.Equal(t, []string{"u2", "u3"}, out[0].ReservedBy)
	require.NotNil(t, out[0].Copies[0].BorrowedBy)
	assert.Equal(t, "u1", *out[0].Copies[0].BorrowedBy)
	assert.Nil(t, out[0].Copies[1].BorrowedBy)
}

func TestCollections_LibrariesAndUsersRoundTrip(t *testing.T) {
	collections := NewCollections(stubs.NewMockStore())
	ctx := context.Background()

	libraries := []models.Library{{ID: "lib1", Name: "Central Branch"}}
	users := []models.User{
		{ID: "u1", Name: "Ada Lovelace", Email: "ada@example.com"},
		{ID: "u2", Name: "Alan Turing", Email: "alan@example.com"},
	}
	require.NoError(t, collections.SaveLibraries(ctx, libraries))
	require.NoError(t, collections.SaveUsers(ctx, users))

	gotLibraries, err := collections.Libraries(ctx)
	require.NoError(t, err)
	assert.Equal(t, libraries, gotLibraries)

	gotUsers, err := collections.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, users, gotUsers)
}

func TestCollections_CorruptPayload(t *testing.T) {
	store := stubs.NewMockStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, KeyBooks, []byte(`not json`)))

	collections := NewCollections(store)
	_, err := collections.Books(ctx)
	assert.ErrorIs(t, err, ErrPersistence)
}
