package circulation

import (
	"time"

	"circulation/internal/models"
)

// DefaultLoanPeriodDays is how long a copy may be held before it is overdue.
const DefaultLoanPeriodDays = 14

// CopyLedger owns the availability transitions of a book's copies. Every
// method is a pure function: it takes a Book value, returns an updated Book
// value, and never partially applies a transition. The borrower triple
// (BorrowedBy, BorrowDate, DueDate) is always set or cleared as a whole.
type CopyLedger struct {
	loanPeriod time.Duration
}

// NewCopyLedger creates a ledger with the given loan period in days; values
// below 1 fall back to DefaultLoanPeriodDays.
func NewCopyLedger(loanPeriodDays int) *CopyLedger {
	if loanPeriodDays < 1 {
		loanPeriodDays = DefaultLoanPeriodDays
	}
	return &CopyLedger{loanPeriod: time.Duration(loanPeriodDays) * 24 * time.Hour}
}

// LoanPeriod returns the configured loan duration.
func (l *CopyLedger) LoanPeriod() time.Duration {
	return l.loanPeriod
}

// FindAvailableCopy returns the id of the first copy (in id order, which is
// the stored order) with no borrower, or ErrNoAvailableCopy.
func (l *CopyLedger) FindAvailableCopy(book models.Book) (string, error) {
	for _, cp := range book.Copies {
		if cp.Available() {
			return cp.ID, nil
		}
	}
	return "", ErrNoAvailableCopy
}

// MarkBorrowed assigns copyID to userID with a due date of now plus the loan
// period. Returns the updated book and copy.
func (l *CopyLedger) MarkBorrowed(book models.Book, copyID, userID string, now time.Time) (models.Book, models.Copy, error) {
	idx, err := findCopy(book, copyID)
	if err != nil {
		return book, models.Copy{}, err
	}
	if !book.Copies[idx].Available() {
		return book, models.Copy{}, ErrCopyAlreadyBorrowed
	}

	due := now.Add(l.loanPeriod)
	updated := cloneCopies(book)
	updated.Copies[idx].BorrowedBy = &userID
	updated.Copies[idx].BorrowDate = &now
	updated.Copies[idx].DueDate = &due
	return updated, updated.Copies[idx], nil
}

// MarkReturned clears the borrower triple of copyID, which must currently be
// held by userID. Returns the updated book and the copy as it was before the
// clear (so callers still see the due date).
func (l *CopyLedger) MarkReturned(book models.Book, copyID, userID string) (models.Book, models.Copy, error) {
	idx, err := findCopy(book, copyID)
	if err != nil {
		return book, models.Copy{}, err
	}
	held := book.Copies[idx]
	if held.BorrowedBy == nil || *held.BorrowedBy != userID {
		return book, models.Copy{}, ErrCopyNotBorrowedByUser
	}

	updated := cloneCopies(book)
	updated.Copies[idx].BorrowedBy = nil
	updated.Copies[idx].BorrowDate = nil
	updated.Copies[idx].DueDate = nil
	return updated, held, nil
}

// ExtendDue moves copyID's due date forward by the given number of days,
// stacking on the current due date rather than on now. Returns the updated
// book and copy, or ErrCopyNotBorrowed when the copy is not on loan.
func (l *CopyLedger) ExtendDue(book models.Book, copyID string, days int) (models.Book, models.Copy, error) {
	idx, err := findCopy(book, copyID)
	if err != nil {
		return book, models.Copy{}, err
	}
	if book.Copies[idx].DueDate == nil {
		return book, models.Copy{}, ErrCopyNotBorrowed
	}

	due := book.Copies[idx].DueDate.Add(time.Duration(days) * 24 * time.Hour)
	updated := cloneCopies(book)
	updated.Copies[idx].DueDate = &due
	return updated, updated.Copies[idx], nil
}

func findCopy(book models.Book, copyID string) (int, error) {
	for i, cp := range book.Copies {
		if cp.ID == copyID {
			return i, nil
		}
	}
	return 0, ErrCopyNotFound
}

// cloneCopies returns the book with a fresh Copies slice so transitions
// never alias the caller's value.
func cloneCopies(book models.Book) models.Book {
	copies := make([]models.Copy, len(book.Copies))
	copy(copies, book.Copies)
	book.Copies = copies
	return book
}
