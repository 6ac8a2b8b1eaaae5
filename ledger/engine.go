/*
engine.go - Sale transaction engine

PURPOSE:
  Implements the three atomic operations on sales (create, update, delete)
  plus the read-only catalog accessors and the report reader. Each mutation
  couples the sale-row change with the compensating book-stock change inside
  one WithTx unit: both commit or both roll back.

OPERATION FLOW (each mutation):
  1. Validate primitive inputs (quantity, discount)
  2. Inside WithTx: resolve references, check stock headroom
  3. Apply sale change and stock change through the transactional store
  4. Commit; on any failure the store rolls back and the engine reports
     the specific error kind with no partial state

PRICING NOTE:
  UpdateSale recomputes the total from the book's current price, not the
  price at original sale time. A later price change therefore alters the
  historical total on the next update of that sale.
*/
package ledger

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Engine performs all sale mutations against a transactional store.
// It holds no state of its own; the store handle is injected once and
// shared by every operation.
type Engine struct {
	store TxStore
	log   zerolog.Logger
}

// NewEngine creates an engine bound to the given store.
func NewEngine(store TxStore, logger zerolog.Logger) *Engine {
	return &Engine{store: store, log: logger}
}

// CreateSaleResult reports the outcome of a successful CreateSale.
type CreateSaleResult struct {
	SaleID SaleID
	Total  int64
}

// =============================================================================
// CATALOG ACCESSORS (read-only)
// =============================================================================

// FindMember looks up a member by id. Returns (nil, nil) when absent.
func (e *Engine) FindMember(ctx context.Context, id MemberID) (*Member, error) {
	return e.store.FindMember(ctx, id)
}

// FindBook looks up a book by id. Returns (nil, nil) when absent.
func (e *Engine) FindBook(ctx context.Context, id BookID) (*Book, error) {
	return e.store.FindBook(ctx, id)
}

// FindSale looks up a sale by id. Returns (nil, nil) when absent.
func (e *Engine) FindSale(ctx context.Context, id SaleID) (*Sale, error) {
	return e.store.FindSale(ctx, id)
}

// ListMembers returns all members ordered by id.
func (e *Engine) ListMembers(ctx context.Context) ([]Member, error) {
	return e.store.ListMembers(ctx)
}

// ListBooks returns all books ordered by id.
func (e *Engine) ListBooks(ctx context.Context) ([]Book, error) {
	return e.store.ListBooks(ctx)
}

// =============================================================================
// SALE TRANSACTION ENGINE
// =============================================================================

// CreateSale records a new sale and decrements the book's stock by the sold
// quantity, atomically. The total is price*quantity-discount; it is returned
// together with the store-assigned sale id.
func (e *Engine) CreateSale(ctx context.Context, date string, memberID MemberID, bookID BookID, quantity, discount int64) (CreateSaleResult, error) {
	var result CreateSaleResult

	if quantity <= 0 {
		return result, ErrInvalidQuantity
	}
	if discount < 0 {
		return result, ErrInvalidDiscount
	}

	err := e.store.WithTx(ctx, func(s Store) error {
		member, err := s.FindMember(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrMemberNotFound
		}

		book, err := s.FindBook(ctx, bookID)
		if err != nil {
			return err
		}
		if book == nil {
			return ErrBookNotFound
		}

		if quantity > book.Stock {
			return &InsufficientStockError{
				BookID:    bookID,
				Requested: quantity,
				Available: book.Stock,
			}
		}

		total := book.Price*quantity - discount
		id, err := s.InsertSale(ctx, Sale{
			Date:     date,
			MemberID: memberID,
			BookID:   bookID,
			Quantity: quantity,
			Discount: discount,
			Total:    total,
		})
		if err != nil {
			return err
		}

		if err := s.AdjustStock(ctx, bookID, -quantity); err != nil {
			return err
		}

		result = CreateSaleResult{SaleID: id, Total: total}
		return nil
	})
	if err != nil {
		return CreateSaleResult{}, e.operationError("create sale", err)
	}

	e.log.Info().
		Int64("sale_id", int64(result.SaleID)).
		Str("member_id", string(memberID)).
		Str("book_id", string(bookID)).
		Int64("quantity", quantity).
		Int64("total", result.Total).
		Msg("sale created")
	return result, nil
}

// UpdateSale rewrites an existing sale's quantity and discount, recomputing
// the total from the book's current price, and adjusts the book's stock so
// that only the new quantity remains outstanding. The available headroom is
// book.Stock plus the quantity the sale already holds.
func (e *Engine) UpdateSale(ctx context.Context, id SaleID, newQuantity, newDiscount int64) (int64, error) {
	var total int64

	if newQuantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	if newDiscount < 0 {
		return 0, ErrInvalidDiscount
	}

	err := e.store.WithTx(ctx, func(s Store) error {
		sale, err := s.FindSale(ctx, id)
		if err != nil {
			return err
		}
		if sale == nil {
			return ErrSaleNotFound
		}

		book, err := s.FindBook(ctx, sale.BookID)
		if err != nil {
			return err
		}
		if book == nil {
			return ErrBookNotFound
		}

		headroom := book.Stock + sale.Quantity
		if newQuantity > headroom {
			return &InsufficientStockError{
				BookID:    sale.BookID,
				Requested: newQuantity,
				Available: headroom,
			}
		}

		total = book.Price*newQuantity - newDiscount
		if err := s.UpdateSale(ctx, id, newQuantity, newDiscount, total); err != nil {
			return err
		}

		// Net stock effect: return the old quantity, consume the new one.
		return s.AdjustStock(ctx, sale.BookID, sale.Quantity-newQuantity)
	})
	if err != nil {
		return 0, e.operationError("update sale", err)
	}

	e.log.Info().
		Int64("sale_id", int64(id)).
		Int64("quantity", newQuantity).
		Int64("total", total).
		Msg("sale updated")
	return total, nil
}

// DeleteSale removes a sale and restores the book's stock by the sale's
// recorded quantity, atomically.
func (e *Engine) DeleteSale(ctx context.Context, id SaleID) error {
	err := e.store.WithTx(ctx, func(s Store) error {
		sale, err := s.FindSale(ctx, id)
		if err != nil {
			return err
		}
		if sale == nil {
			return ErrSaleNotFound
		}

		if err := s.DeleteSale(ctx, id); err != nil {
			return err
		}
		return s.AdjustStock(ctx, sale.BookID, sale.Quantity)
	})
	if err != nil {
		return e.operationError("delete sale", err)
	}

	e.log.Info().Int64("sale_id", int64(id)).Msg("sale deleted")
	return nil
}

// =============================================================================
// REPORT READER
// =============================================================================

// ListSales returns a snapshot of all sales joined with member and book
// details, ordered by sale id ascending.
func (e *Engine) ListSales(ctx context.Context) ([]SaleView, error) {
	return e.store.ListSaleViews(ctx)
}

// operationError passes domain errors through unchanged and wraps raw
// storage faults as StorageError so callers see exactly one error kind.
func (e *Engine) operationError(op string, err error) error {
	if IsNotFound(err) || IsClientError(err) || errors.Is(err, ErrStorageFailure) {
		return err
	}
	e.log.Error().Err(err).Str("op", op).Msg("atomic unit rolled back")
	return &StorageError{Op: op, Err: err}
}
