/*
errors.go - Centralized error kinds for the sales ledger

PURPOSE:
  All error kinds reported at operation boundaries, in one place. Every
  Engine operation returns one of these and guarantees full rollback, so a
  caller that sees an error can assume no entity changed.

ERROR CATEGORIES:
  1. Reference errors  - member/book/sale id does not resolve
  2. Validation errors - quantity/discount/stock preconditions
  3. Storage errors    - the atomic commit could not complete

USAGE:
  Callers branch with errors.Is / errors.As:

    if errors.Is(err, ledger.ErrInsufficientStock) {
        var stockErr *ledger.InsufficientStockError
        errors.As(err, &stockErr)
        // stockErr.Available carries the headroom to report
    }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMemberNotFound is returned when a sale references a member id that
	// does not exist in the catalog.
	ErrMemberNotFound = errors.New("member not found")

	// ErrBookNotFound is returned when a sale references a book id that does
	// not exist in the catalog.
	ErrBookNotFound = errors.New("book not found")

	// ErrSaleNotFound is returned when an update or delete names a sale id
	// that does not exist.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrInvalidQuantity is returned when a quantity is not a positive integer.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")

	// ErrInvalidDiscount is returned when a discount is negative.
	ErrInvalidDiscount = errors.New("discount cannot be negative")

	// ErrInsufficientStock is returned when the requested quantity exceeds the
	// available stock headroom.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrStorageFailure is returned when the underlying atomic commit could
	// not complete. The operation is fully rolled back.
	ErrStorageFailure = errors.New("storage failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError reports the headroom available at validation time.
// For CreateSale that is the book's current stock; for UpdateSale it is
// stock + the quantity already held by the sale being updated.
type InsufficientStockError struct {
	BookID    BookID
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for book %s: requested %d, available %d",
		e.BookID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// StorageError wraps a driver-level failure during an atomic unit of work.
type StorageError struct {
	Op  string // which engine operation was in flight
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: storage failure: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return ErrStorageFailure
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error names a missing member, book or sale.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrBookNotFound) ||
		errors.Is(err, ErrSaleNotFound)
}

// IsClientError returns true if the error is due to invalid caller input
// rather than a storage fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidDiscount) ||
		errors.Is(err, ErrInsufficientStock)
}
