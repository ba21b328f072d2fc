package circulation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"circulation/internal/models"
	"circulation/internal/storage"
	"circulation/internal/storage/stubs"
)

func newTestLog(t *testing.T) (*TransactionLog, *storage.Collections) {
	t.Helper()
	collections := storage.NewCollections(stubs.NewMockStore())
	return NewTransactionLog(collections, zap.NewNop()), collections
}

func TestTransactionLog_Append_AssignsIDAndDate(t *testing.T) {
	log, collections := newTestLog(t)
	ctx := context.Background()

	tx, err := log.Append(ctx, models.Transaction{
		UserID: "u1",
		BookID: "b1",
		Type:   models.TypeBorrow,
		Status: models.StatusCompleted,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, tx.ID)
	assert.False(t, tx.Date.IsZero())
	// Dates are stamped in UTC so they survive the JSON round-trip intact.
	assert.Equal(t, time.UTC, tx.Date.Location())

	stored, err := collections.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, tx, stored[0])
}

func TestTransactionLog_Append_KeepsProvidedIDAndDate(t *testing.T) {
	log, _ := newTestLog(t)
	date := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tx, err := log.Append(context.Background(), models.Transaction{
		ID:     "tx-1",
		UserID: "u1",
		BookID: "b1",
		Type:   models.TypeFine,
		Date:   date,
		Amount: 3.0,
		Status: models.StatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, "tx-1", tx.ID)
	assert.Equal(t, date, tx.Date)
}

func TestTransactionLog_Query(t *testing.T) {
	log, collections := newTestLog(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seed := []models.Transaction{
		{ID: "t1", UserID: "u1", BookID: "b1", Type: models.TypeBorrow, Date: base, Status: models.StatusCompleted},
		{ID: "t2", UserID: "u2", BookID: "b2", Type: models.TypeBorrow, Date: base.Add(time.Hour), Status: models.StatusCompleted},
		{ID: "t3", UserID: "u1", BookID: "b1", Type: models.TypeFine, Date: base.Add(2 * time.Hour), Amount: 3, Status: models.StatusPending},
		// Same date as t3: insertion order must break the tie.
		{ID: "t4", UserID: "u1", BookID: "b2", Type: models.TypeReturn, Date: base.Add(2 * time.Hour), Status: models.StatusCompleted},
	}
	for _, tx := range seed {
		_, err := log.Append(ctx, tx)
		require.NoError(t, err)
	}
	require.NoError(t, collections.SaveBooks(ctx, []models.Book{
		{ID: "b1", LibraryID: "lib1"},
		{ID: "b2", LibraryID: "lib2"},
	}))

	testCases := []struct {
		name        string
		filter      Filter
		expectedIDs []string
	}{
		{
			name:        "no filter returns all, date descending, stable ties",
			filter:      Filter{},
			expectedIDs: []string{"t3", "t4", "t2", "t1"},
		},
		{
			name:        "by user",
			filter:      Filter{UserID: "u1"},
			expectedIDs: []string{"t3", "t4", "t1"},
		},
		{
			name:        "by book",
			filter:      Filter{BookID: "b1"},
			expectedIDs: []string{"t3", "t1"},
		},
		{
			name:        "by type",
			filter:      Filter{Type: models.TypeFine},
			expectedIDs: []string{"t3"},
		},
		{
			name:        "by status",
			filter:      Filter{Status: models.StatusCompleted},
			expectedIDs: []string{"t4", "t2", "t1"},
		},
		{
			name:        "by library joins through books",
			filter:      Filter{LibraryID: "lib2"},
			expectedIDs: []string{"t4", "t2"},
		},
		{
			name:        "combined filters",
			filter:      Filter{UserID: "u1", BookID: "b1", Type: models.TypeBorrow},
			expectedIDs: []string{"t1"},
		},
		{
			name:        "no match",
			filter:      Filter{UserID: "nobody"},
			expectedIDs: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := log.Query(ctx, tc.filter)
			require.NoError(t, err)

			ids := make([]string, 0, len(got))
			for _, tx := range got {
				ids = append(ids, tx.ID)
			}
			assert.Equal(t, tc.expectedIDs, ids)
		})
	}
}

func TestTransactionLog_UpdateStatus(t *testing.T) {
	log, _ := newTestLog(t)
	ctx := context.Background()

	fine, err := log.Append(ctx, models.Transaction{
		UserID: "u1",
		BookID: "b1",
		Type:   models.TypeFine,
		Amount: 3.0,
		Status: models.StatusPending,
	})
	require.NoError(t, err)

	updated, err := log.UpdateStatus(ctx, fine.ID, models.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, updated.Status)

	// Everything but the status is untouched.
	assert.Equal(t, fine.ID, updated.ID)
	assert.Equal(t, fine.Amount, updated.Amount)
	assert.Equal(t, fine.Date, updated.Date)

	stored, err := log.Get(ctx, fine.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, stored.Status)

	_, err = log.UpdateStatus(ctx, "missing", models.StatusPaid)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

// TestTransactionLog_ConcurrentAppends drives the log from many goroutines
// at once. The whole log is one read-modify-write collection, so without the
// log's own lock concurrent writers overwrite each other and records vanish.
func TestTransactionLog_ConcurrentAppends(t *testing.T) {
	log, collections := newTestLog(t)
	ctx := context.Background()

	const writers = 64
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := log.Append(ctx, models.Transaction{
				UserID: fmt.Sprintf("u%d", n),
				BookID: fmt.Sprintf("b%d", n),
				Type:   models.TypeBorrow,
				Status: models.StatusCompleted,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := collections.Transactions(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, writers, "every appended transaction must be stored")
}

func TestTransactionLog_Get_NotFound(t *testing.T) {
	log, _ := newTestLog(t)
	_, err := log.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}
