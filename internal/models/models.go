package models

import "time"

// TransactionType classifies a circulation event.
type TransactionType string

const (
	TypeBorrow      TransactionType = "borrow"
	TypeReturn      TransactionType = "return"
	TypeReservation TransactionType = "reservation"
	TypeFine        TransactionType = "fine"
	TypeExtension   TransactionType = "extension"
	TypePayment     TransactionType = "payment"
)

// TransactionStatus is the settlement state of a transaction.
type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
	StatusPending   TransactionStatus = "pending"
	StatusPaid      TransactionStatus = "paid"
	StatusActive    TransactionStatus = "active"
)

// Copy is one lendable unit of a Book. The borrower triple is set and
// cleared together: BorrowedBy == nil ⇔ BorrowDate == nil ⇔ DueDate == nil.
type Copy struct {
	ID         string     `json:"id"`
	BorrowedBy *string    `json:"borrowedBy,omitempty"`
	BorrowDate *time.Time `json:"borrowDate,omitempty"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
}

// Available reports whether the copy has no current borrower.
func (c Copy) Available() bool {
	return c.BorrowedBy == nil
}

// Book represents a catalog entry with its physical copies and the ordered
// list of users waiting for it (insertion order = queue order).
type Book struct {
	ID          string   `json:"id"`
	LibraryID   string   `json:"libraryId"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	ISBN        string   `json:"isbn"`
	Publisher   string   `json:"publisher"`
	Description string   `json:"description"`
	CoverImage  string   `json:"coverImage"`
	Copies      []Copy   `json:"copies"`
	ReservedBy  []string `json:"reservedBy"`
}

// Transaction is an append-only record of a circulation event. Only a fine's
// Status may change after the fact (pending → paid).
type Transaction struct {
	ID     string            `json:"id"`
	UserID string            `json:"userId"`
	BookID string            `json:"bookId"`
	CopyID string            `json:"copyId,omitempty"`
	Type   TransactionType   `json:"type"`
	Date   time.Time         `json:"date"`
	Amount float64           `json:"amount"`
	Status TransactionStatus `json:"status"`
	Reason string            `json:"reason,omitempty"`
}

// Library identifies a tenant; transactions join to it through their book.
type Library struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is a library member. Circulation calls always take an explicit user
// id; there is no ambient current user.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
