/*
Package ledger provides the core sales ledger engine for the bookstore.

PURPOSE:
  This package contains the domain types and the transactional logic binding
  the three persisted entities (member, book, sale). Every sale mutation is
  coupled with an equal-and-opposite stock adjustment on the referenced book,
  applied as a single atomic unit of work.

KEY CONCEPTS IN THIS FILE (types.go):
  - Member: A registered customer, immutable after seeding
  - Book:   A catalog item with unit price and on-hand stock
  - Sale:   A transaction (member buys quantity of book at discount on date)
  - SaleView: A sale joined with member name and book title/price for reports

INVARIANT:
  For every book, stock = initial_stock - sum(quantity of existing sales
  referencing that book), and stock never drops below zero. The Engine
  maintains this by refusing to commit a sale change without its matching
  stock change.

SEE ALSO:
  - engine.go: Create/Update/Delete operations
  - store.go:  Persistence interfaces (Store, TxStore)
  - errors.go: Error kinds reported at operation boundaries
*/
package ledger

// =============================================================================
// IDENTIFIERS
// =============================================================================

// MemberID and BookID are caller-assigned codes (e.g. "M001", "B001").
// SaleID is assigned by the store, monotonically increasing and never reused.
type (
	MemberID string
	BookID   string
	SaleID   int64
)

// =============================================================================
// ENTITIES
// =============================================================================

// Member is a registered customer. Members are seeded at bootstrap and never
// mutated or deleted by the engine.
type Member struct {
	ID    MemberID
	Name  string
	Phone string
	Email string // optional
}

// Book is a catalog item. Price is a non-negative integer in the store's
// currency unit. Stock is mutated exclusively by the Engine as a side effect
// of sale operations.
type Book struct {
	ID    BookID
	Title string
	Price int64
	Stock int64
}

// Sale records a member purchasing a quantity of a book. Total is
// price*quantity-discount at the time the sale was created or last updated;
// it may be negative when the discount exceeds the gross amount.
type Sale struct {
	ID       SaleID
	Date     string // externally validated, caller's chosen format
	MemberID MemberID
	BookID   BookID
	Quantity int64
	Discount int64
	Total    int64
}

// SaleView joins a sale with its member's name and book's title/price.
// Produced by the report reader as a snapshot, ordered by sale id.
type SaleView struct {
	SaleID     SaleID
	Date       string
	MemberName string
	BookTitle  string
	UnitPrice  int64
	Quantity   int64
	Discount   int64
	Total      int64
}
