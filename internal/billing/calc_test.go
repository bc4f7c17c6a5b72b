package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func line(gross string, cages int, cageUnit, price, discount string) InvoiceLine {
	return InvoiceLine{
		GrossWeight:    dec(gross),
		CagesCount:     cages,
		CageUnitWeight: dec(cageUnit),
		UnitPrice:      dec(price),
		DiscountPct:    dec(discount),
	}
}

func TestRecalculateLine(t *testing.T) {
	t.Run("derives weights and amounts", func(t *testing.T) {
		got := RecalculateLine(line("82", 3, "8", "1.80", "0"))

		require.True(t, got.CagesWeight.Equal(dec("24")), "cages weight: %s", got.CagesWeight)
		require.True(t, got.NetWeight.Equal(dec("58")), "net weight: %s", got.NetWeight)
		require.True(t, got.TotalAmount.Equal(dec("104.40")), "total: %s", got.TotalAmount)
		require.True(t, got.DiscountAmount.IsZero())
		require.True(t, got.FinalAmount.Equal(dec("104.40")), "final: %s", got.FinalAmount)
	})

	t.Run("applies discount percentage", func(t *testing.T) {
		got := RecalculateLine(line("82", 3, "8", "1.80", "10"))

		require.True(t, got.DiscountAmount.Equal(dec("10.44")), "discount: %s", got.DiscountAmount)
		require.True(t, got.FinalAmount.Equal(dec("93.96")), "final: %s", got.FinalAmount)
	})

	t.Run("clamps net weight at zero", func(t *testing.T) {
		got := RecalculateLine(line("40", 6, "10", "2.00", "0"))

		require.True(t, got.CagesWeight.Equal(dec("60")))
		require.True(t, got.NetWeight.IsZero(), "net weight: %s", got.NetWeight)
		require.True(t, got.TotalAmount.IsZero())
		require.True(t, got.FinalAmount.IsZero())
	})

	t.Run("idempotent on its own output", func(t *testing.T) {
		first := RecalculateLine(line("82", 3, "8", "1.80", "10"))
		second := RecalculateLine(first)

		require.True(t, first.CagesWeight.Equal(second.CagesWeight))
		require.True(t, first.NetWeight.Equal(second.NetWeight))
		require.True(t, first.TotalAmount.Equal(second.TotalAmount))
		require.True(t, first.DiscountAmount.Equal(second.DiscountAmount))
		require.True(t, first.FinalAmount.Equal(second.FinalAmount))
	})

	t.Run("stale derived fields are overwritten", func(t *testing.T) {
		in := line("82", 3, "8", "1.80", "0")
		in.NetWeight = dec("999")
		in.FinalAmount = dec("999")

		got := RecalculateLine(in)
		require.True(t, got.NetWeight.Equal(dec("58")))
		require.True(t, got.FinalAmount.Equal(dec("104.40")))
	})
}

func TestAggregate(t *testing.T) {
	t.Run("final amount is the sum of line finals", func(t *testing.T) {
		lines := []InvoiceLine{
			line("82", 3, "8", "1.80", "0"),
			line("82", 3, "8", "1.80", "10"),
			line("100", 4, "8", "2.50", "5"),
		}

		totals := Aggregate(lines, decimal.Zero)

		var wantFinal, wantTotal, wantDiscount, wantNet decimal.Decimal
		for _, l := range lines {
			l = RecalculateLine(l)
			wantNet = wantNet.Add(l.NetWeight)
			wantTotal = wantTotal.Add(l.TotalAmount)
			wantDiscount = wantDiscount.Add(l.DiscountAmount)
			wantFinal = wantFinal.Add(l.FinalAmount)
		}

		require.True(t, totals.NetWeight.Equal(wantNet))
		require.True(t, totals.TotalAmount.Equal(wantTotal))
		require.True(t, totals.DiscountAmount.Equal(wantDiscount))
		require.True(t, totals.FinalAmount.Equal(wantFinal))
		require.True(t, totals.FinalAmount.Equal(dec("359.86")), "final: %s", totals.FinalAmount)
	})

	t.Run("current balance stacks on prior debt", func(t *testing.T) {
		lines := []InvoiceLine{line("82", 3, "8", "1.80", "0")}

		totals := Aggregate(lines, dec("93.83"))

		require.True(t, totals.PreviousBalance.Equal(dec("93.83")))
		require.True(t, totals.CurrentBalance.Equal(dec("198.23")), "current balance: %s", totals.CurrentBalance)
	})

	t.Run("empty invoice totals zero", func(t *testing.T) {
		totals := Aggregate(nil, decimal.Zero)

		require.True(t, totals.FinalAmount.IsZero())
		require.True(t, totals.CurrentBalance.IsZero())
	})
}
