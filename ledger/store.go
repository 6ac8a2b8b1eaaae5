/*
store.go - Persistence interfaces for the sales ledger

PURPOSE:
  Defines the interface between the domain logic and the database. Different
  implementations can use SQLite or in-memory storage; any engine satisfies
  the contract as long as sale-row and book-stock changes commit together or
  not at all.

KEY INTERFACES:
  Store:   Catalog lookups, sale row access, stock adjustment, report reads
  TxStore: Store plus WithTx for atomic multi-table writes

NOT-FOUND CONTRACT:
  Lookups return (nil, nil) for a missing row. Errors are reserved for
  storage faults; absence is a normal answer, not an exception.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - ledger/store/memory.go: In-memory for testing
*/
package ledger

import "context"

// Store handles persistence for the three relations.
type Store interface {
	// FindMember returns the member with the given id, or (nil, nil) if absent.
	FindMember(ctx context.Context, id MemberID) (*Member, error)

	// FindBook returns the book with the given id, or (nil, nil) if absent.
	FindBook(ctx context.Context, id BookID) (*Book, error)

	// FindSale returns the sale with the given id, or (nil, nil) if absent.
	FindSale(ctx context.Context, id SaleID) (*Sale, error)

	// ListMembers returns all members ordered by id.
	ListMembers(ctx context.Context) ([]Member, error)

	// ListBooks returns all books ordered by id.
	ListBooks(ctx context.Context) ([]Book, error)

	// InsertSale persists a new sale and returns the assigned id.
	// Ids are monotonically increasing and never reused, even after deletes.
	InsertSale(ctx context.Context, s Sale) (SaleID, error)

	// UpdateSale rewrites quantity, discount and total of an existing sale
	// in place. Id, date, member and book are never changed.
	UpdateSale(ctx context.Context, id SaleID, quantity, discount, total int64) error

	// DeleteSale removes the sale row.
	DeleteSale(ctx context.Context, id SaleID) error

	// AdjustStock adds delta to the book's stock (negative delta consumes).
	AdjustStock(ctx context.Context, id BookID, delta int64) error

	// ListSaleViews returns the sale+member+book join ordered by sale id.
	ListSaleViews(ctx context.Context) ([]SaleView, error)
}

// TxStore wraps Store with transaction support.
// Engine operations run entirely inside WithTx so that the sale change and
// its compensating stock change form one atomic unit.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
