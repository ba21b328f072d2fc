package circulation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"circulation/internal/models"
	"circulation/internal/storage"
)

// DefaultExtensionDays is added to the due date when a caller does not say
// how long to extend.
const DefaultExtensionDays = 14

// Config carries the tunable circulation policy.
type Config struct {
	LoanPeriodDays int
	ExtensionDays  int
	FineRatePerDay float64
	MaxFine        float64
	ReservationFee float64
}

// ReturnResult is the outcome of returning a copy. Fine is nil when the
// copy came back on time.
type ReturnResult struct {
	Book        models.Book         `json:"book"`
	Transaction models.Transaction  `json:"transaction"`
	Fine        *models.Transaction `json:"fine,omitempty"`
}

// Service orchestrates the circulation engine. All copy-state mutations for
// a given book are serialized through a per-book mutex so two concurrent
// borrows cannot race onto the same copy; reads take no lock.
type Service struct {
	store  *storage.Collections
	txlog  *TransactionLog
	ledger *CopyLedger
	fines  FineCalculator
	queue  ReservationQueue

	extensionDays  int
	reservationFee float64

	logger    *zap.Logger
	bookLocks sync.Map // book id -> *sync.Mutex
	fineMu    sync.Mutex
	now       func() time.Time
}

// NewService wires the engine components over a collection store.
func NewService(store *storage.Collections, cfg Config, logger *zap.Logger) *Service {
	extensionDays := cfg.ExtensionDays
	if extensionDays < 1 {
		extensionDays = DefaultExtensionDays
	}
	reservationFee := cfg.ReservationFee
	if reservationFee <= 0 {
		reservationFee = DefaultReservationFee
	}

	return &Service{
		store:          store,
		txlog:          NewTransactionLog(store, logger),
		ledger:         NewCopyLedger(cfg.LoanPeriodDays),
		fines:          NewFineCalculator(cfg.FineRatePerDay, cfg.MaxFine),
		extensionDays:  extensionDays,
		reservationFee: reservationFee,
		logger:         logger,
		now:            time.Now,
	}
}

// Fines returns the active fine policy, so callers can surface it.
func (s *Service) Fines() FineCalculator {
	return s.fines
}

// Borrow assigns the first available copy of a book to a user and records a
// borrow transaction. No state is mutated when no copy is available.
func (s *Service) Borrow(ctx context.Context, bookID, userID string) (models.Book, models.Transaction, error) {
	unlock := s.lockBook(bookID)
	defer unlock()

	books, idx, err := s.findBook(ctx, bookID)
	if err != nil {
		return models.Book{}, models.Transaction{}, err
	}

	copyID, err := s.ledger.FindAvailableCopy(books[idx])
	if err != nil {
		return models.Book{}, models.Transaction{}, err
	}

	book, cp, err := s.ledger.MarkBorrowed(books[idx], copyID, userID, s.now())
	if err != nil {
		return models.Book{}, models.Transaction{}, err
	}

	books[idx] = book
	if err := s.store.SaveBooks(ctx, books); err != nil {
		return models.Book{}, models.Transaction{}, err
	}

	tx, err := s.append(ctx, models.Transaction{
		UserID: userID,
		BookID: bookID,
		CopyID: cp.ID,
		Type:   models.TypeBorrow,
		Status: models.StatusCompleted,
	})
	if err != nil {
		return models.Book{}, models.Transaction{}, err
	}

	s.logger.Info("copy borrowed",
		zap.String("book_id", bookID),
		zap.String("copy_id", cp.ID),
		zap.String("user_id", userID),
		zap.Timep("due_date", cp.DueDate),
	)
	return book, tx, nil
}

// Return clears a copy held by userID. When the copy is overdue, a pending
// fine transaction is appended before the copy is cleared; a completed
// return transaction is always appended.
func (s *Service) Return(ctx context.Context, bookID, userID, copyID string) (ReturnResult, error) {
	unlock := s.lockBook(bookID)
	defer unlock()

	books, idx, err := s.findBook(ctx, bookID)
	if err != nil {
		return ReturnResult{}, err
	}

	book, held, err := s.ledger.MarkReturned(books[idx], copyID, userID)
	if err != nil {
		return ReturnResult{}, err
	}

	now := s.now()
	var fine *models.Transaction
	if days := s.fines.DaysOverdue(*held.DueDate, now); days > 0 {
		fineTx, err := s.append(ctx, models.Transaction{
			UserID: userID,
			BookID: bookID,
			CopyID: copyID,
			Type:   models.TypeFine,
			Amount: s.fines.Amount(days),
			Status: models.StatusPending,
			Reason: fmt.Sprintf("%d day(s) overdue", days),
		})
		if err != nil {
			return ReturnResult{}, err
		}
		fine = &fineTx
		s.logger.Warn("overdue return fined",
			zap.String("book_id", bookID),
			zap.String("copy_id", copyID),
			zap.String("user_id", userID),
			zap.Int("days_overdue", days),
			zap.Float64("amount", fineTx.Amount),
		)
	}

	books[idx] = book
	if err := s.store.SaveBooks(ctx, books); err != nil {
		return ReturnResult{}, err
	}

	tx, err := s.append(ctx, models.Transaction{
		UserID: userID,
		BookID: bookID,
		CopyID: copyID,
		Type:   models.TypeReturn,
		Status: models.StatusCompleted,
	})
	if err != nil {
		return ReturnResult{}, err
	}

	return ReturnResult{Book: book, Transaction: tx, Fine: fine}, nil
}

// Extend pushes a borrowed copy's due date forward by days (default 14).
// The extension stacks on the current due date, not on now.
func (s *Service) Extend(ctx context.Context, bookID, copyID string, days int) (models.Book, models.Transaction, error) {
	if days < 1 {
		days = s.extensionDays
	}

	unlock := s.lockBook(bookID)
	defer unlock()

	books, idx, err := s.findBook(ctx, bookID)
	if err != nil {
		return models.Book{}, models.Transaction{}, err
	}

	book, cp, err := s.ledger.ExtendDue(books[idx], copyID, days)
	if err != nil {
		return models.Book{}, models.Transaction{}, err
	}

	books[idx] = book
	if err := s.store.SaveBooks(ctx, books); err != nil {
		return models.Book{}, models.Transaction{}, err
	}

	borrower := ""
	if cp.BorrowedBy != nil {
		borrower = *cp.BorrowedBy
	}
	tx, err := s.append(ctx, models.Transaction{
		UserID: borrower,
		BookID: bookID,
		CopyID: copyID,
		Type:   models.TypeExtension,
		Status: models.StatusCompleted,
		Reason: fmt.Sprintf("extended by %d day(s)", days),
	})
	if err != nil {
		return models.Book{}, models.Transaction{}, err
	}

	s.logger.Info("loan extended",
		zap.String("book_id", bookID),
		zap.String("copy_id", copyID),
		zap.Int("days", days),
		zap.Timep("due_date", cp.DueDate),
	)
	return book, tx, nil
}

// Reserve queues userID for a book and records an active reservation
// transaction carrying the fixed fee.
func (s *Service) Reserve(ctx context.Context, bookID, userID string) (models.Book, models.Transaction, error) {
	unlock := s.lockBook(bookID)
	defer unlock()

	books, idx, err := s.findBook(ctx, bookID)
	if err != nil {
		return models.Book{}, models.Transaction{}, err
	}

	book, err := s.queue.Reserve(books[idx], userID)
	if err != nil {
		return models.Book{}, models.Transaction{}, err
	}

	books[idx] = book
	if err := s.store.SaveBooks(ctx, books); err != nil {
		return models.Book{}, models.Transaction{}, err
	}

	tx, err := s.append(ctx, models.Transaction{
		UserID: userID,
		BookID: bookID,
		Type:   models.TypeReservation,
		Amount: s.reservationFee,
		Status: models.StatusActive,
	})
	if err != nil {
		return models.Book{}, models.Transaction{}, err
	}

	s.logger.Info("reservation queued",
		zap.String("book_id", bookID),
		zap.String("user_id", userID),
		zap.Int("queue_position", len(book.ReservedBy)),
	)
	return book, tx, nil
}

// Transactions queries the transaction log.
func (s *Service) Transactions(ctx context.Context, f Filter) ([]models.Transaction, error) {
	return s.txlog.Query(ctx, f)
}

// PayFine moves a pending fine to paid and appends a completed payment
// transaction mirroring the fine amount. The fine mutex keeps the
// check-then-update window closed so a fine cannot be paid twice.
func (s *Service) PayFine(ctx context.Context, fineID string) (models.Transaction, error) {
	s.fineMu.Lock()
	defer s.fineMu.Unlock()

	fine, err := s.txlog.Get(ctx, fineID)
	if err != nil {
		return models.Transaction{}, err
	}
	if fine.Type != models.TypeFine || fine.Status != models.StatusPending {
		return models.Transaction{}, ErrFineNotPayable
	}

	paid, err := s.txlog.UpdateStatus(ctx, fineID, models.StatusPaid)
	if err != nil {
		return models.Transaction{}, err
	}

	if _, err := s.append(ctx, models.Transaction{
		UserID: fine.UserID,
		BookID: fine.BookID,
		CopyID: fine.CopyID,
		Type:   models.TypePayment,
		Amount: fine.Amount,
		Status: models.StatusCompleted,
		Reason: "fine " + fineID,
	}); err != nil {
		return models.Transaction{}, err
	}

	return paid, nil
}

// append writes through the transaction log. Book updates and transaction
// appends are two separate store writes with no shared transaction, so an
// append failure after a book save is logged loudly with both ids instead of
// being swallowed.
func (s *Service) append(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	stored, err := s.txlog.Append(ctx, tx)
	if err != nil {
		s.logger.Error("transaction append failed; book state and log may disagree",
			zap.String("type", string(tx.Type)),
			zap.String("book_id", tx.BookID),
			zap.String("copy_id", tx.CopyID),
			zap.String("user_id", tx.UserID),
			zap.Error(err),
		)
		return models.Transaction{}, err
	}
	return stored, nil
}

func (s *Service) findBook(ctx context.Context, bookID string) ([]models.Book, int, error) {
	books, err := s.store.Books(ctx)
	if err != nil {
		return nil, 0, err
	}
	for i := range books {
		if books[i].ID == bookID {
			return books, i, nil
		}
	}
	return nil, 0, ErrBookNotFound
}

func (s *Service) lockBook(bookID string) func() {
	v, _ := s.bookLocks.LoadOrStore(bookID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
