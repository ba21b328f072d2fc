// Package circulation implements the lending engine: copy availability
// transitions, reservations, overdue fines, and the append-only transaction
// log behind them. It is the only code that mutates circulation state.
package circulation

import "errors"

// Sentinel errors returned by circulation operations.
//
// Not-found: ErrBookNotFound, ErrCopyNotFound, ErrTransactionNotFound.
// State conflict: ErrCopyAlreadyBorrowed, ErrCopyNotBorrowed,
// ErrCopyNotBorrowedByUser, ErrDuplicateReservation, ErrFineNotPayable.
// Validation: ErrNoAvailableCopy.
var (
	// ErrBookNotFound is returned when no book exists with the given id.
	ErrBookNotFound = errors.New("book not found")

	// ErrCopyNotFound is returned when a book has no copy with the given id.
	ErrCopyNotFound = errors.New("copy not found")

	// ErrTransactionNotFound is returned when no transaction exists with the
	// given id.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrNoAvailableCopy is returned when every copy of a book is on loan.
	ErrNoAvailableCopy = errors.New("no available copy")

	// ErrCopyAlreadyBorrowed is returned when borrowing a copy that is
	// already held.
	ErrCopyAlreadyBorrowed = errors.New("copy already borrowed")

	// ErrCopyNotBorrowed is returned when extending a copy that is not on
	// loan.
	ErrCopyNotBorrowed = errors.New("copy not borrowed")

	// ErrCopyNotBorrowedByUser is returned when returning a copy held by a
	// different user.
	ErrCopyNotBorrowedByUser = errors.New("copy not borrowed by this user")

	// ErrDuplicateReservation is returned when a user is already queued for
	// a book.
	ErrDuplicateReservation = errors.New("duplicate reservation")

	// ErrFineNotPayable is returned when paying a transaction that is not a
	// pending fine.
	ErrFineNotPayable = errors.New("transaction is not a pending fine")
)
