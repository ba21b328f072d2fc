package circulation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"circulation/internal/models"
	"circulation/internal/storage"
)

// Filter narrows a transaction query. Zero-valued fields are ignored.
// LibraryID filters through the current book records, since transactions
// only carry a book id.
type Filter struct {
	UserID    string
	BookID    string
	LibraryID string
	Type      models.TransactionType
	Status    models.TransactionStatus
}

// TransactionLog is the append-only record of circulation events. Records
// are never deleted; UpdateStatus is the only permitted mutation of an
// existing record.
//
// The whole log lives under one store key, so every write is a
// read-modify-write of the shared collection. The log's own mutex guards
// that window; the service's per-book locks only serialize same-book
// callers and would let writes for different books clobber each other.
type TransactionLog struct {
	store  *storage.Collections
	logger *zap.Logger
	mu     sync.Mutex
}

// NewTransactionLog creates a log over the given collections.
func NewTransactionLog(store *storage.Collections, logger *zap.Logger) *TransactionLog {
	return &TransactionLog{store: store, logger: logger}
}

// Append persists a new transaction, assigning an id and date when absent,
// and returns the stored record.
func (l *TransactionLog) Append(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txs, err := l.store.Transactions(ctx)
	if err != nil {
		return models.Transaction{}, err
	}
	txs = append(txs, tx)
	if err := l.store.SaveTransactions(ctx, txs); err != nil {
		return models.Transaction{}, err
	}

	l.logger.Info("transaction appended",
		zap.String("transaction_id", tx.ID),
		zap.String("type", string(tx.Type)),
		zap.String("user_id", tx.UserID),
		zap.String("book_id", tx.BookID),
		zap.Float64("amount", tx.Amount),
	)
	return tx, nil
}

// Get returns the transaction with the given id.
func (l *TransactionLog) Get(ctx context.Context, id string) (models.Transaction, error) {
	txs, err := l.store.Transactions(ctx)
	if err != nil {
		return models.Transaction{}, err
	}
	for _, tx := range txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return models.Transaction{}, ErrTransactionNotFound
}

// Query returns the transactions matching the filter, sorted by date
// descending with ties kept in insertion order.
func (l *TransactionLog) Query(ctx context.Context, f Filter) ([]models.Transaction, error) {
	txs, err := l.store.Transactions(ctx)
	if err != nil {
		return nil, err
	}

	var libraryByBook map[string]string
	if f.LibraryID != "" {
		books, err := l.store.Books(ctx)
		if err != nil {
			return nil, err
		}
		libraryByBook = make(map[string]string, len(books))
		for _, b := range books {
			libraryByBook[b.ID] = b.LibraryID
		}
	}

	matched := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.UserID != "" && tx.UserID != f.UserID {
			continue
		}
		if f.BookID != "" && tx.BookID != f.BookID {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if f.Status != "" && tx.Status != f.Status {
			continue
		}
		if f.LibraryID != "" && libraryByBook[tx.BookID] != f.LibraryID {
			continue
		}
		matched = append(matched, tx)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.After(matched[j].Date)
	})
	return matched, nil
}

// UpdateStatus changes the status of an existing record and returns it.
// No other field of an appended transaction may ever change.
func (l *TransactionLog) UpdateStatus(ctx context.Context, id string, status models.TransactionStatus) (models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	txs, err := l.store.Transactions(ctx)
	if err != nil {
		return models.Transaction{}, err
	}

	for i := range txs {
		if txs[i].ID != id {
			continue
		}
		txs[i].Status = status
		if err := l.store.SaveTransactions(ctx, txs); err != nil {
			return models.Transaction{}, err
		}
		l.logger.Info("transaction status updated",
			zap.String("transaction_id", id),
			zap.String("status", string(status)),
		)
		return txs[i], nil
	}
	return models.Transaction{}, ErrTransactionNotFound
}
