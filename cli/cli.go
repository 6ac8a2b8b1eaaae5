/*
Package cli provides the interactive text-menu surface of the bookstore.

PURPOSE:
  A small menu loop over the ledger engine: add a sale, show the report,
  update or delete a sale. Input prompting re-asks until the value is valid;
  engine errors are rendered as one-line messages and the loop continues.
  The reader and writer are injected so sessions can be scripted in tests.

The loop itself holds no state. All validation with consequences lives in
the engine; the prompts only filter obviously malformed input (date shape,
non-numeric quantities) before an operation is attempted.
*/
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/warp/bookstore-ledger/ledger"
)

const menu = `
*************** Menu ***************
1. Add sale
2. Show sales report
3. Update sale
4. Delete sale
5. Quit
************************************
`

// CLI runs the interactive menu loop against an engine.
type CLI struct {
	engine *ledger.Engine
	in     *bufio.Scanner
	out    io.Writer
}

// New creates a CLI reading from in and writing to out.
func New(engine *ledger.Engine, in io.Reader, out io.Writer) *CLI {
	return &CLI{
		engine: engine,
		in:     bufio.NewScanner(in),
		out:    out,
	}
}

// Run executes the menu loop until the user quits or input ends.
func (c *CLI) Run(ctx context.Context) error {
	for {
		fmt.Fprint(c.out, menu)
		choice, ok := c.prompt("Choose an option (Enter to quit): ")
		if !ok || choice == "" || choice == "5" {
			return nil
		}

		switch choice {
		case "1":
			c.addSale(ctx)
		case "2":
			c.printReport(ctx)
		case "3":
			c.updateSale(ctx)
		case "4":
			c.deleteSale(ctx)
		default:
			fmt.Fprintln(c.out, "=> Please choose a valid option (1-5)")
		}
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

func (c *CLI) addSale(ctx context.Context) {
	date, ok := c.promptDate()
	if !ok {
		return
	}

	memberID, ok := c.promptMember(ctx)
	if !ok {
		return
	}

	book, ok := c.promptBook(ctx)
	if !ok {
		return
	}

	quantity, ok := c.promptPositiveInt("Quantity: ")
	if !ok {
		return
	}
	if quantity > book.Stock {
		fmt.Fprintf(c.out, "=> Error: insufficient stock (available: %d)\n", book.Stock)
		return
	}

	discount, ok := c.promptNonNegativeInt("Discount amount: ")
	if !ok {
		return
	}

	result, err := c.engine.CreateSale(ctx, date, memberID, book.ID, quantity, discount)
	if err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintf(c.out, "=> Sale recorded! (total: %s)\n", humanize.Comma(result.Total))
}

func (c *CLI) printReport(ctx context.Context) {
	views, err := c.engine.ListSales(ctx)
	if err != nil {
		c.printError(err)
		return
	}

	for i, v := range views {
		fmt.Fprintf(c.out, "\n==================== Sales Report ====================\n")
		fmt.Fprintf(c.out, "Sale #%d\n", i+1)
		fmt.Fprintf(c.out, "Sale id:     %d\n", v.SaleID)
		fmt.Fprintf(c.out, "Date:        %s\n", v.Date)
		fmt.Fprintf(c.out, "Member:      %s\n", v.MemberName)
		fmt.Fprintf(c.out, "Book:        %s\n", v.BookTitle)
		fmt.Fprintln(c.out, "------------------------------------------------------")
		fmt.Fprintln(c.out, "Price\tQty\tDiscount\tSubtotal")
		fmt.Fprintln(c.out, "------------------------------------------------------")
		fmt.Fprintf(c.out, "%d\t%d\t%d\t%s\n", v.UnitPrice, v.Quantity, v.Discount, humanize.Comma(v.Total))
		fmt.Fprintln(c.out, "------------------------------------------------------")
		fmt.Fprintf(c.out, "Total: %s\n", humanize.Comma(v.Total))
		fmt.Fprintln(c.out, "======================================================")
	}
}

func (c *CLI) updateSale(ctx context.Context) {
	id, ok := c.promptSaleID("Sale id to update: ")
	if !ok {
		return
	}

	sale, err := c.engine.FindSale(ctx, id)
	if err != nil {
		c.printError(err)
		return
	}
	if sale == nil {
		fmt.Fprintln(c.out, "=> Error: sale not found")
		return
	}

	quantity, ok := c.promptPositiveInt("New quantity: ")
	if !ok {
		return
	}
	discount, ok := c.promptNonNegativeInt("New discount amount: ")
	if !ok {
		return
	}

	if _, err := c.engine.UpdateSale(ctx, id, quantity, discount); err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintln(c.out, "=> Sale updated!")
}

func (c *CLI) deleteSale(ctx context.Context) {
	id, ok := c.promptSaleID("Sale id to delete: ")
	if !ok {
		return
	}

	if err := c.engine.DeleteSale(ctx, id); err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintln(c.out, "=> Sale deleted!")
}

// =============================================================================
// PROMPTING
// =============================================================================

// prompt prints the prompt and returns the next trimmed line.
// ok is false when the input stream has ended.
func (c *CLI) prompt(p string) (string, bool) {
	fmt.Fprint(c.out, p)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

// promptDate re-asks until the value looks like YYYY-MM-DD.
func (c *CLI) promptDate() (string, bool) {
	for {
		date, ok := c.prompt("Sale date (YYYY-MM-DD): ")
		if !ok {
			return "", false
		}
		if len(date) == 10 && strings.Count(date, "-") == 2 {
			return date, true
		}
		fmt.Fprintln(c.out, "=> Error: invalid date format")
	}
}

// promptMember re-asks until the id resolves in the catalog.
func (c *CLI) promptMember(ctx context.Context) (ledger.MemberID, bool) {
	for {
		raw, ok := c.prompt("Member id: ")
		if !ok {
			return "", false
		}
		member, err := c.engine.FindMember(ctx, ledger.MemberID(raw))
		if err != nil {
			c.printError(err)
			return "", false
		}
		if member != nil {
			return member.ID, true
		}
		fmt.Fprintln(c.out, "=> Error: member id not found, try again")
	}
}

// promptBook re-asks until the id resolves in the catalog.
func (c *CLI) promptBook(ctx context.Context) (*ledger.Book, bool) {
	for {
		raw, ok := c.prompt("Book id: ")
		if !ok {
			return nil, false
		}
		book, err := c.engine.FindBook(ctx, ledger.BookID(raw))
		if err != nil {
			c.printError(err)
			return nil, false
		}
		if book != nil {
			return book, true
		}
		fmt.Fprintln(c.out, "=> Error: book id not found, try again")
	}
}

func (c *CLI) promptSaleID(p string) (ledger.SaleID, bool) {
	for {
		raw, ok := c.prompt(p)
		if !ok {
			return 0, false
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err == nil && id > 0 {
			return ledger.SaleID(id), true
		}
		fmt.Fprintln(c.out, "=> Error: sale id must be a positive integer, try again")
	}
}

func (c *CLI) promptPositiveInt(p string) (int64, bool) {
	for {
		raw, ok := c.prompt(p)
		if !ok {
			return 0, false
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err == nil && v > 0 {
			return v, true
		}
		fmt.Fprintln(c.out, "=> Error: must be a positive integer, try again")
	}
}

func (c *CLI) promptNonNegativeInt(p string) (int64, bool) {
	for {
		raw, ok := c.prompt(p)
		if !ok {
			return 0, false
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err == nil && v >= 0 {
			return v, true
		}
		fmt.Fprintln(c.out, "=> Error: discount must be a non-negative integer, try again")
	}
}

// printError renders an engine error as a one-line message.
func (c *CLI) printError(err error) {
	var stockErr *ledger.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		fmt.Fprintf(c.out, "=> Error: insufficient stock (available: %d)\n", stockErr.Available)
	case errors.Is(err, ledger.ErrSaleNotFound):
		fmt.Fprintln(c.out, "=> Error: sale not found")
	case errors.Is(err, ledger.ErrMemberNotFound):
		fmt.Fprintln(c.out, "=> Error: member id not found")
	case errors.Is(err, ledger.ErrBookNotFound):
		fmt.Fprintln(c.out, "=> Error: book id not found")
	default:
		fmt.Fprintf(c.out, "=> Error: %v\n", err)
	}
}
