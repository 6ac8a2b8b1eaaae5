package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/bookstore-ledger/ledger"
	"github.com/warp/bookstore-ledger/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEngine(t *testing.T) (*ledger.Engine, *store.Memory) {
	t.Helper()

	mem := store.NewMemory()
	mem.SeedMember(ledger.Member{ID: "M001", Name: "Alice", Phone: "0912-345678", Email: "alice@example.com"})
	mem.SeedMember(ledger.Member{ID: "M002", Name: "Bob", Phone: "0923-456789"})
	mem.SeedBook(ledger.Book{ID: "B001", Title: "Python Programming", Price: 600, Stock: 50})
	mem.SeedBook(ledger.Book{ID: "B002", Title: "Data Science Basics", Price: 800, Stock: 30})

	return ledger.NewEngine(mem, zerolog.Nop()), mem
}

func bookStock(t *testing.T, mem *store.Memory, id ledger.BookID) int64 {
	t.Helper()
	book, err := mem.FindBook(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, book)
	return book.Stock
}

func saleCount(t *testing.T, mem *store.Memory) int {
	t.Helper()
	views, err := mem.ListSaleViews(context.Background())
	require.NoError(t, err)
	return len(views)
}

// =============================================================================
// CREATE
// =============================================================================

func TestCreateSale_ReducesStockAndComputesTotal(t *testing.T) {
	// GIVEN: B001 has stock 50 at price 600
	// WHEN: M001 buys 2 with discount 100
	// THEN: total is 600*2-100=1100 and stock drops to 48

	engine, mem := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.CreateSale(ctx, "2024-02-01", "M001", "B001", 2, 100)
	require.NoError(t, err)

	assert.Equal(t, int64(1100), result.Total)
	assert.Equal(t, ledger.SaleID(1), result.SaleID)
	assert.Equal(t, int64(48), bookStock(t, mem, "B001"))
}

func TestCreateSale_InsufficientStock(t *testing.T) {
	// GIVEN: B002 has stock 30
	// WHEN: A sale requests 31
	// THEN: InsufficientStock is reported with the available amount,
	//       and neither stock nor the sale count changes

	engine, mem := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.CreateSale(ctx, "2024-02-01", "M001", "B002", 31, 0)

	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)

	var stockErr *ledger.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(30), stockErr.Available)

	assert.Equal(t, int64(30), bookStock(t, mem, "B002"))
	assert.Equal(t, 0, saleCount(t, mem))
}

func TestCreateSale_UnknownReferences(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.CreateSale(ctx, "2024-02-01", "M999", "B001", 1, 0)
	assert.ErrorIs(t, err, ledger.ErrMemberNotFound)

	_, err = engine.CreateSale(ctx, "2024-02-01", "M001", "B999", 1, 0)
	assert.ErrorIs(t, err, ledger.ErrBookNotFound)

	assert.Equal(t, 0, saleCount(t, mem))
}

func TestCreateSale_InvalidInputs(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.CreateSale(ctx, "2024-02-01", "M001", "B001", 0, 0)
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)

	_, err = engine.CreateSale(ctx, "2024-02-01", "M001", "B001", -3, 0)
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)

	_, err = engine.CreateSale(ctx, "2024-02-01", "M001", "B001", 1, -1)
	assert.ErrorIs(t, err, ledger.ErrInvalidDiscount)
}

func TestCreateSale_NegativeTotalAllowed(t *testing.T) {
	// A discount larger than price*quantity is not prevented; the total
	// simply goes negative.

	engine, _ := newTestEngine(t)

	result, err := engine.CreateSale(context.Background(), "2024-02-01", "M001", "B001", 1, 700)
	require.NoError(t, err)
	assert.Equal(t, int64(-100), result.Total)
}

func TestCreateSale_ExactStockAllowed(t *testing.T) {
	// Buying the entire remaining stock is valid; stock lands on zero.

	engine, mem := newTestEngine(t)

	result, err := engine.CreateSale(context.Background(), "2024-02-01", "M002", "B002", 30, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(24000), result.Total)
	assert.Equal(t, int64(0), bookStock(t, mem, "B002"))
}

// =============================================================================
// UPDATE
// =============================================================================

func TestUpdateSale_RecomputesTotalAndStock(t *testing.T) {
	// GIVEN: A sale of 2 against B001 (stock now 48)
	// WHEN: The sale is rewritten to quantity 5, discount 50
	// THEN: total=600*5-50=2950 and stock becomes 45 (48+2-5)

	engine, mem := newTestEngine(t)
	ctx := context.Background()

	created, err := engine.CreateSale(ctx, "2024-02-01", "M001", "B001", 2, 100)
	require.NoError(t, err)

	total, err := engine.UpdateSale(ctx, created.SaleID, 5, 50)
	require.NoError(t, err)

	assert.Equal(t, int64(2950), total)
	assert.Equal(t, int64(45), bookStock(t, mem, "B001"))
}

func TestUpdateSale_HeadroomIncludesOwnQuantity(t *testing.T) {
	// GIVEN: A sale holding the entire stock of B002 (stock now 0)
	// WHEN: The sale is updated to the same quantity
	// THEN: It succeeds, because headroom is stock + the sale's own quantity

	engine, mem := newTestEngine(t)
	ctx := context.Background()

	created, err := engine.CreateSale(ctx, "2024-02-01", "M001", "B002", 30, 0)
	require.NoError(t, err)
	require.Equal(t, int64(0), bookStock(t, mem, "B002"))

	_, err = engine.UpdateSale(ctx, created.SaleID, 30, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), bookStock(t, mem, "B002"))

	// One more than the headroom must fail, reporting the headroom.
	_, err = engine.UpdateSale(ctx, created.SaleID, 31, 0)
	var stockErr *ledger.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(30), stockErr.Available)
}

func TestUpdateSale_NotFound(t *testing.T) {
	// Updating a nonexistent sale fails with SaleNotFound and leaves
	// every book's stock unchanged.

	engine, mem := newTestEngine(t)

	_, err := engine.UpdateSale(context.Background(), 42, 1, 0)
	assert.ErrorIs(t, err, ledger.ErrSaleNotFound)
	assert.Equal(t, int64(50), bookStock(t, mem, "B001"))
	assert.Equal(t, int64(30), bookStock(t, mem, "B002"))
}

func TestUpdateSale_InvalidInputs(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	created, err := engine.CreateSale(ctx, "2024-02-01", "M001", "B001", 2, 0)
	require.NoError(t, err)

	_, err = engine.UpdateSale(ctx, created.SaleID, 0, 0)
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)

	_, err = engine.UpdateSale(ctx, created.SaleID, 1, -5)
	assert.ErrorIs(t, err, ledger.ErrInvalidDiscount)
}

func TestUpdateSale_UsesCurrentBookPrice(t *testing.T) {
	// The total is recomputed from the book's price at update time, not the
	// price when the sale was created.

	engine, mem := newTestEngine(t)
	ctx := context.Background()

	created, err := engine.CreateSale(ctx, "2024-02-01", "M001", "B001", 2, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1200), created.Total)

	mem.SetBook(ledger.Book{ID: "B001", Title: "Python Programming", Price: 1000, Stock: 48})

	total, err := engine.UpdateSale(ctx, created.SaleID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), total)
}

// =============================================================================
// DELETE
// =============================================================================

func TestDeleteSale_RestoresStockAndRemovesFromReport(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	created, err := engine.CreateSale(ctx, "2024-02-01", "M001", "B001", 2, 100)
	require.NoError(t, err)

	require.NoError(t, engine.DeleteSale(ctx, created.SaleID))

	assert.Equal(t, int64(50), bookStock(t, mem, "B001"))

	views, err := engine.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestDeleteSale_NotFound(t *testing.T) {
	engine, mem := newTestEngine(t)

	err := engine.DeleteSale(context.Background(), 7)
	assert.ErrorIs(t, err, ledger.ErrSaleNotFound)
	assert.Equal(t, int64(50), bookStock(t, mem, "B001"))
}

func TestSaleIDs_NeverReused(t *testing.T) {
	// Deleting a sale must not make its id available again.

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := engine.CreateSale(ctx, "2024-02-01", "M001", "B001", 1, 0)
	require.NoError(t, err)
	require.NoError(t, engine.DeleteSale(ctx, first.SaleID))

	second, err := engine.CreateSale(ctx, "2024-02-02", "M001", "B001", 1, 0)
	require.NoError(t, err)
	assert.Greater(t, second.SaleID, first.SaleID)
}

// =============================================================================
// ATOMICITY
// =============================================================================

func TestCreateSale_RollsBackOnStorageFailure(t *testing.T) {
	// GIVEN: The store accepts the sale insert but fails the stock write
	// WHEN: CreateSale runs
	// THEN: StorageFailure is reported and neither change is visible

	engine, mem := newTestEngine(t)
	ctx := context.Background()

	boom := errors.New("disk went away")
	mem.FailWritesAfter(1, boom)

	_, err := engine.CreateSale(ctx, "2024-02-01", "M001", "B001", 2, 100)

	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrStorageFailure)

	mem.FailWrites(nil)
	assert.Equal(t, int64(50), bookStock(t, mem, "B001"))
	assert.Equal(t, 0, saleCount(t, mem))
}

func TestUpdateSale_RollsBackOnStorageFailure(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	created, err := engine.CreateSale(ctx, "2024-02-01", "M001", "B001", 2, 100)
	require.NoError(t, err)

	mem.FailWritesAfter(1, errors.New("write error"))
	_, err = engine.UpdateSale(ctx, created.SaleID, 5, 50)
	require.ErrorIs(t, err, ledger.ErrStorageFailure)

	mem.FailWrites(nil)
	assert.Equal(t, int64(48), bookStock(t, mem, "B001"))

	sale, err := engine.FindSale(ctx, created.SaleID)
	require.NoError(t, err)
	require.NotNil(t, sale)
	assert.Equal(t, int64(2), sale.Quantity)
	assert.Equal(t, int64(100), sale.Discount)
	assert.Equal(t, int64(1100), sale.Total)
}

func TestDeleteSale_RollsBackOnStorageFailure(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	created, err := engine.CreateSale(ctx, "2024-02-01", "M001", "B001", 2, 100)
	require.NoError(t, err)

	mem.FailWritesAfter(1, errors.New("write error"))
	err = engine.DeleteSale(ctx, created.SaleID)
	require.ErrorIs(t, err, ledger.ErrStorageFailure)

	mem.FailWrites(nil)
	assert.Equal(t, int64(48), bookStock(t, mem, "B001"))
	assert.Equal(t, 1, saleCount(t, mem))
}

// =============================================================================
// RECONCILIATION INVARIANT
// =============================================================================

func TestStockReconciliation_AcrossOperationSequence(t *testing.T) {
	// After any committed sequence of operations, for every book:
	// stock = initial_stock - sum(quantity of existing sales on that book),
	// and stock never goes negative.

	engine, mem := newTestEngine(t)
	ctx := context.Background()
	initial := map[ledger.BookID]int64{"B001": 50, "B002": 30}

	checkInvariant := func() {
		t.Helper()
		outstanding := map[ledger.BookID]int64{}
		views, err := engine.ListSales(ctx)
		require.NoError(t, err)
		for _, v := range views {
			sale, err := engine.FindSale(ctx, v.SaleID)
			require.NoError(t, err)
			outstanding[sale.BookID] += sale.Quantity
		}
		for id, init := range initial {
			stock := bookStock(t, mem, id)
			assert.Equal(t, init-outstanding[id], stock, "book %s", id)
			assert.GreaterOrEqual(t, stock, int64(0), "book %s", id)
		}
	}

	s1, err := engine.CreateSale(ctx, "2024-02-01", "M001", "B001", 2, 100)
	require.NoError(t, err)
	checkInvariant()

	s2, err := engine.CreateSale(ctx, "2024-02-02", "M002", "B002", 10, 0)
	require.NoError(t, err)
	checkInvariant()

	_, err = engine.UpdateSale(ctx, s1.SaleID, 5, 50)
	require.NoError(t, err)
	checkInvariant()

	// Failed operations must not disturb the invariant either.
	_, err = engine.UpdateSale(ctx, s2.SaleID, 99, 0)
	require.ErrorIs(t, err, ledger.ErrInsufficientStock)
	checkInvariant()

	require.NoError(t, engine.DeleteSale(ctx, s1.SaleID))
	checkInvariant()

	require.NoError(t, engine.DeleteSale(ctx, s2.SaleID))
	checkInvariant()
	assert.Equal(t, int64(50), bookStock(t, mem, "B001"))
	assert.Equal(t, int64(30), bookStock(t, mem, "B002"))
}

// =============================================================================
// REPORT
// =============================================================================

func TestListSales_OrderedByID(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.CreateSale(ctx, "2024-02-01", "M001", "B001", 1, 0)
	require.NoError(t, err)
	_, err = engine.CreateSale(ctx, "2024-02-02", "M002", "B002", 2, 50)
	require.NoError(t, err)

	views, err := engine.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, ledger.SaleID(1), views[0].SaleID)
	assert.Equal(t, "Alice", views[0].MemberName)
	assert.Equal(t, "Python Programming", views[0].BookTitle)
	assert.Equal(t, int64(600), views[0].UnitPrice)

	assert.Equal(t, ledger.SaleID(2), views[1].SaleID)
	assert.Equal(t, "Bob", views[1].MemberName)
	assert.Equal(t, int64(1550), views[1].Total)
}

func TestSummarize(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	sum, err := engine.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum.Sales)

	_, err = engine.CreateSale(ctx, "2024-02-01", "M001", "B001", 1, 0) // 600
	require.NoError(t, err)
	_, err = engine.CreateSale(ctx, "2024-02-02", "M002", "B001", 2, 100) // 1100
	require.NoError(t, err)

	sum, err = engine.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.Sales)
	assert.Equal(t, int64(1700), sum.GrossTotal)
	assert.Equal(t, int64(100), sum.TotalDiscount)
	assert.Equal(t, "850", sum.AverageTotal.String())
}
