package circulation

import "circulation/internal/models"

// DefaultReservationFee is charged when a reservation is queued.
const DefaultReservationFee = 1.0

// ReservationQueue manages the ordered per-book waiting list. Insertion
// order is queue order; a user appears at most once. There is no cancel,
// dequeue or expiry, and returning a copy never auto-assigns it to the head
// of the queue.
type ReservationQueue struct{}

// Reserve appends userID to the book's waiting list. Returns the updated
// book, or ErrDuplicateReservation when the user is already queued.
func (ReservationQueue) Reserve(book models.Book, userID string) (models.Book, error) {
	for _, id := range book.ReservedBy {
		if id == userID {
			return book, ErrDuplicateReservation
		}
	}

	reserved := make([]string, len(book.ReservedBy), len(book.ReservedBy)+1)
	copy(reserved, book.ReservedBy)
	book.ReservedBy = append(reserved, userID)
	return book, nil
}
