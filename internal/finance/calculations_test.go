package finance_test

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/finance"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeQuoteTotalsSingleItemWithTax(t *testing.T) {
	totals, err := finance.ComputeQuoteTotals(
		[]finance.Item{{Quantity: d("1"), UnitPrice: d("35")}},
		d("0.15"), true, d("0.30"),
	)
	require.NoError(t, err)

	assert.Equal(t, "35.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "5.25", totals.Tax.StringFixed(2))
	assert.Equal(t, "40.25", totals.Total.StringFixed(2))
	assert.Equal(t, "12.08", totals.Advance.StringFixed(2))
	assert.Equal(t, "28.17", totals.Balance.StringFixed(2))
}

func TestComputeQuoteTotalsWithoutTax(t *testing.T) {
	totals, err := finance.ComputeQuoteTotals(
		[]finance.Item{
			{Quantity: d("2"), UnitPrice: d("12.50")},
			{Quantity: d("1.5"), UnitPrice: d("8")},
		},
		d("0.15"), false, d("0.30"),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"25.00", "12.00"}, []string{totals.LineTotals[0].StringFixed(2), totals.LineTotals[1].StringFixed(2)})
	assert.True(t, totals.Tax.IsZero())
	assert.Equal(t, "37.00", totals.Total.StringFixed(2))
	assert.Equal(t, "11.10", totals.Advance.StringFixed(2))
	assert.Equal(t, "25.90", totals.Balance.StringFixed(2))
}

func TestComputeQuoteTotalsRejectsBadInput(t *testing.T) {
	cases := map[string][]finance.Item{
		"empty":          nil,
		"zero quantity":  {{Quantity: d("0"), UnitPrice: d("10")}},
		"negative qty":   {{Quantity: d("-1"), UnitPrice: d("10")}},
		"negative price": {{Quantity: d("1"), UnitPrice: d("-10")}},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := finance.ComputeQuoteTotals(items, d("0.15"), true, d("0.3"))
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}

	_, err := finance.ComputeQuoteTotals([]finance.Item{{Quantity: d("1"), UnitPrice: d("1")}}, d("0.15"), true, d("1.5"))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestQuoteTotalsInvariantsHoldForRandomInput(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		n := rng.Intn(5) + 1
		items := make([]finance.Item, n)
		for j := range items {
			items[j] = finance.Item{
				Quantity:  decimal.NewFromInt(int64(rng.Intn(1000) + 1)).Div(decimal.NewFromInt(10)),
				UnitPrice: decimal.NewFromInt(int64(rng.Intn(100000))).Div(decimal.NewFromInt(100)),
			}
		}
		applyTax := rng.Intn(2) == 0
		advance := decimal.NewFromInt(int64(rng.Intn(101))).Div(decimal.NewFromInt(100))

		totals, err := finance.ComputeQuoteTotals(items, d("0.15"), applyTax, advance)
		require.NoError(t, err)

		assert.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.Tax)), "total = subtotal + tax")
		assert.True(t, totals.Advance.Add(totals.Balance).Equal(totals.Total), "advance + balance = total")
		if !applyTax {
			assert.True(t, totals.Tax.IsZero())
		}
		assert.True(t, totals.Advance.Equal(totals.Advance.Round(finance.Cents)), "advance kept to cents")
		assert.True(t, totals.Balance.Equal(totals.Balance.Round(finance.Cents)), "balance kept to cents")
	}
}

func TestComputeOrderMargin(t *testing.T) {
	assert.Equal(t, "40.25", finance.ComputeOrderMargin(d("40.25"), decimal.Zero).StringFixed(2))
	assert.Equal(t, "15.25", finance.ComputeOrderMargin(d("40.25"), d("25")).StringFixed(2))
	assert.Equal(t, "-9.75", finance.ComputeOrderMargin(d("40.25"), d("50")).StringFixed(2))
}

func TestPercent(t *testing.T) {
	assert.True(t, finance.Percent(d("15")).Equal(d("0.15")))
}
