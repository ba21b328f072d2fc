package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"circulation/internal/models"
)

// Collections is a typed codec over a KeyValueStore: each logical collection
// is one key holding a JSON array. A missing key decodes to an empty slice.
type Collections struct {
	store KeyValueStore
}

// NewCollections wraps a KeyValueStore.
func NewCollections(store KeyValueStore) *Collections {
	return &Collections{store: store}
}

// Books loads the full book catalog.
func (c *Collections) Books(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := c.load(ctx, KeyBooks, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// SaveBooks replaces the stored book catalog.
func (c *Collections) SaveBooks(ctx context.Context, books []models.Book) error {
	return c.save(ctx, KeyBooks, books)
}

// Transactions loads the full transaction log.
func (c *Collections) Transactions(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := c.load(ctx, KeyTransactions, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// SaveTransactions replaces the stored transaction log.
func (c *Collections) SaveTransactions(ctx context.Context, txs []models.Transaction) error {
	return c.save(ctx, KeyTransactions, txs)
}

// Libraries loads all libraries.
func (c *Collections) Libraries(ctx context.Context) ([]models.Library, error) {
	var libraries []models.Library
	if err := c.load(ctx, KeyLibraries, &libraries); err != nil {
		return nil, err
	}
	return libraries, nil
}

// SaveLibraries replaces the stored libraries.
func (c *Collections) SaveLibraries(ctx context.Context, libraries []models.Library) error {
	return c.save(ctx, KeyLibraries, libraries)
}

// Users loads all users.
func (c *Collections) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.load(ctx, KeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SaveUsers replaces the stored users.
func (c *Collections) SaveUsers(ctx context.Context, users []models.User) error {
	return c.save(ctx, KeyUsers, users)
}

func (c *Collections) load(ctx context.Context, key string, out any) error {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: get %s: %v", ErrPersistence, key, err)
	}
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrPersistence, key, err)
	}
	return nil
}

func (c *Collections) save(ctx context.Context, key string, in any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrPersistence, key, err)
	}
	if err := c.store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrPersistence, key, err)
	}
	return nil
}
