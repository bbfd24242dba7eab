// Package finance derives quote and order amounts. All money is rounded to
// cents; balance and margin are always obtained by subtraction.
package finance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

// Cents is the number of decimal places kept for money.
const Cents = 2

var hundred = decimal.NewFromInt(100)

// Item is one priced line.
type Item struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// LineTotal returns quantity * unit price rounded to cents.
func (i Item) LineTotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice).Round(Cents)
}

// QuoteTotals are the derived amounts of a quote.
type QuoteTotals struct {
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
	Advance    decimal.Decimal
	Balance    decimal.Decimal
	LineTotals []decimal.Decimal
}

// ComputeQuoteTotals derives subtotal, tax, total, advance and balance.
// taxRate and advanceRate are fractions (0.15 for 15%).
func ComputeQuoteTotals(items []Item, taxRate decimal.Decimal, applyTax bool, advanceRate decimal.Decimal) (QuoteTotals, error) {
	if len(items) == 0 {
		return QuoteTotals{}, fmt.Errorf("%w: at least one item is required", shared.ErrValidation)
	}
	if taxRate.IsNegative() {
		return QuoteTotals{}, fmt.Errorf("%w: tax rate must not be negative", shared.ErrValidation)
	}
	if advanceRate.IsNegative() || advanceRate.GreaterThan(decimal.NewFromInt(1)) {
		return QuoteTotals{}, fmt.Errorf("%w: advance rate must be between 0 and 1", shared.ErrValidation)
	}

	totals := QuoteTotals{LineTotals: make([]decimal.Decimal, 0, len(items))}
	subtotal := decimal.Zero
	for i, item := range items {
		if !item.Quantity.IsPositive() {
			return QuoteTotals{}, fmt.Errorf("%w: item %d: quantity must be positive", shared.ErrValidation, i+1)
		}
		if item.UnitPrice.IsNegative() {
			return QuoteTotals{}, fmt.Errorf("%w: item %d: unit price must not be negative", shared.ErrValidation, i+1)
		}
		line := item.LineTotal()
		totals.LineTotals = append(totals.LineTotals, line)
		subtotal = subtotal.Add(line)
	}

	tax := decimal.Zero
	if applyTax {
		tax = subtotal.Mul(taxRate).Round(Cents)
	}
	total := subtotal.Add(tax)
	advance := total.Mul(advanceRate).Round(Cents)

	totals.Subtotal = subtotal
	totals.Tax = tax
	totals.Total = total
	totals.Advance = advance
	totals.Balance = total.Sub(advance)
	return totals, nil
}

// ComputeOrderMargin returns quoteTotal - workerCost. Negative margins are allowed.
func ComputeOrderMargin(quoteTotal, workerCost decimal.Decimal) decimal.Decimal {
	return quoteTotal.Sub(workerCost)
}

// Percent converts a percentage such as 15 into the fraction 0.15.
func Percent(p decimal.Decimal) decimal.Decimal {
	return p.Div(hundred)
}
