package cli_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/bookstore-ledger/cli"
	"github.com/warp/bookstore-ledger/ledger"
	"github.com/warp/bookstore-ledger/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestCLI(t *testing.T, script string) (*cli.CLI, *store.Memory, *bytes.Buffer) {
	t.Helper()

	mem := store.NewMemory()
	mem.SeedMember(ledger.Member{ID: "M001", Name: "Alice", Phone: "0912-345678"})
	mem.SeedBook(ledger.Book{ID: "B001", Title: "Python Programming", Price: 600, Stock: 50})
	mem.SeedBook(ledger.Book{ID: "B002", Title: "Data Science Basics", Price: 800, Stock: 30})

	engine := ledger.NewEngine(mem, zerolog.Nop())
	out := &bytes.Buffer{}
	return cli.New(engine, strings.NewReader(script), out), mem, out
}

// script joins input lines the way a user would type them.
func script(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// =============================================================================
// MENU LOOP
// =============================================================================

func TestRun_QuitImmediately(t *testing.T) {
	c, _, out := newTestCLI(t, script("5"))

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Menu")
}

func TestRun_BlankLineQuits(t *testing.T) {
	c, _, _ := newTestCLI(t, script(""))
	require.NoError(t, c.Run(context.Background()))
}

func TestRun_EndOfInputQuits(t *testing.T) {
	c, _, _ := newTestCLI(t, "")
	require.NoError(t, c.Run(context.Background()))
}

func TestRun_InvalidChoiceReprompts(t *testing.T) {
	c, _, out := newTestCLI(t, script("9", "5"))

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Please choose a valid option")
}

// =============================================================================
// ADD SALE
// =============================================================================

func TestAddSale(t *testing.T) {
	c, mem, out := newTestCLI(t, script(
		"1",
		"2024-02-01", // date
		"M001",       // member
		"B001",       // book
		"2",          // quantity
		"100",        // discount
		"5",
	))

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Sale recorded! (total: 1,100)")

	book, err := mem.FindBook(context.Background(), "B001")
	require.NoError(t, err)
	assert.Equal(t, int64(48), book.Stock)
}

func TestAddSale_RepromptsOnBadInput(t *testing.T) {
	c, _, out := newTestCLI(t, script(
		"1",
		"Feb 1",      // malformed date
		"2024-02-01", // retry
		"M999",       // unknown member
		"M001",       // retry
		"B001",
		"abc", // non-numeric quantity
		"0",   // not positive
		"1",   // retry
		"-5",  // negative discount
		"0",   // retry
		"5",
	))

	require.NoError(t, c.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "invalid date format")
	assert.Contains(t, got, "member id not found, try again")
	assert.Contains(t, got, "must be a positive integer, try again")
	assert.Contains(t, got, "discount must be a non-negative integer, try again")
	assert.Contains(t, got, "Sale recorded! (total: 600)")
}

func TestAddSale_InsufficientStock(t *testing.T) {
	c, mem, out := newTestCLI(t, script(
		"1",
		"2024-02-01",
		"M001",
		"B002",
		"31", // stock is 30
		"5",
	))

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "insufficient stock (available: 30)")

	book, err := mem.FindBook(context.Background(), "B002")
	require.NoError(t, err)
	assert.Equal(t, int64(30), book.Stock)
}

// =============================================================================
// REPORT
// =============================================================================

func TestPrintReport(t *testing.T) {
	c, _, out := newTestCLI(t, script(
		"1", "2024-02-01", "M001", "B001", "2", "100",
		"2",
		"5",
	))

	require.NoError(t, c.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "Sales Report")
	assert.Contains(t, got, "Member:      Alice")
	assert.Contains(t, got, "Book:        Python Programming")
	assert.Contains(t, got, "Total: 1,100")
}

// =============================================================================
// UPDATE AND DELETE
// =============================================================================

func TestUpdateSale(t *testing.T) {
	c, mem, out := newTestCLI(t, script(
		"1", "2024-02-01", "M001", "B001", "2", "100",
		"3",
		"1",  // sale id
		"5",  // new quantity
		"50", // new discount
		"5",
	))

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Sale updated!")

	book, err := mem.FindBook(context.Background(), "B001")
	require.NoError(t, err)
	assert.Equal(t, int64(45), book.Stock)
}

func TestUpdateSale_NotFound(t *testing.T) {
	c, _, out := newTestCLI(t, script(
		"3",
		"42",
		"5",
	))

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Error: sale not found")
}

func TestUpdateSale_RepromptsOnBadID(t *testing.T) {
	c, _, out := newTestCLI(t, script(
		"3",
		"zero", // not a number
		"-1",   // not positive
		"42",   // valid shape, just absent
		"5",
	))

	require.NoError(t, c.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "sale id must be a positive integer, try again")
	assert.Contains(t, got, "Error: sale not found")
}

func TestDeleteSale(t *testing.T) {
	c, mem, out := newTestCLI(t, script(
		"1", "2024-02-01", "M001", "B001", "2", "0",
		"4",
		"1",
		"5",
	))

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Sale deleted!")

	book, err := mem.FindBook(context.Background(), "B001")
	require.NoError(t, err)
	assert.Equal(t, int64(50), book.Stock)
}

func TestDeleteSale_NotFound(t *testing.T) {
	c, _, out := newTestCLI(t, script(
		"4",
		"42",
		"5",
	))

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Error: sale not found")
}
