package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Summary aggregates the sales report: count, gross total, discount given,
// and the average sale value. Totals are integer currency units; the average
// is kept as a decimal so fractions survive the division.
type Summary struct {
	Sales         int64
	GrossTotal    int64
	TotalDiscount int64
	AverageTotal  decimal.Decimal
}

// Summarize computes a Summary over the current sales snapshot.
// Recomputed on each call, like the report itself.
func (e *Engine) Summarize(ctx context.Context) (Summary, error) {
	views, err := e.store.ListSaleViews(ctx)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, v := range views {
		sum.Sales++
		sum.GrossTotal += v.Total
		sum.TotalDiscount += v.Discount
	}
	if sum.Sales > 0 {
		sum.AverageTotal = decimal.NewFromInt(sum.GrossTotal).
			Div(decimal.NewFromInt(sum.Sales)).
			Round(2)
	}
	return sum, nil
}
