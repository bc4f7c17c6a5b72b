package billing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// RecalculateLine derives cage weight, net weight and the monetary amounts from
// the raw scale inputs. It is pure and idempotent: calling it again on its own
// output yields identical derived fields. Net weight is clamped at zero when
// the cages outweigh the gross load; whether such a line is acceptable is the
// save gate's decision, not this function's.
func RecalculateLine(line InvoiceLine) InvoiceLine {
	line.CagesWeight = decimal.NewFromInt(int64(line.CagesCount)).Mul(line.CageUnitWeight)

	net := line.GrossWeight.Sub(line.CagesWeight)
	if net.IsNegative() {
		net = decimal.Zero
	}
	line.NetWeight = net

	line.TotalAmount = line.NetWeight.Mul(line.UnitPrice)
	line.DiscountAmount = line.TotalAmount.Mul(line.DiscountPct).Div(hundred)
	line.FinalAmount = line.TotalAmount.Sub(line.DiscountAmount)
	return line
}

// Aggregate folds the lines and the customer's prior debt into invoice-level
// totals. Every line is recalculated first so callers cannot hand in stale
// derived fields. FinalAmount is the sum of per-line finals, not
// TotalAmount - DiscountAmount recomputed at the aggregate level, so invoices
// mixing discount rates cannot drift from their lines.
func Aggregate(lines []InvoiceLine, priorDebt decimal.Decimal) InvoiceTotals {
	totals := InvoiceTotals{
		NetWeight:      decimal.Zero,
		TotalAmount:    decimal.Zero,
		DiscountAmount: decimal.Zero,
		FinalAmount:    decimal.Zero,
	}
	for _, line := range lines {
		line = RecalculateLine(line)
		totals.NetWeight = totals.NetWeight.Add(line.NetWeight)
		totals.TotalAmount = totals.TotalAmount.Add(line.TotalAmount)
		totals.DiscountAmount = totals.DiscountAmount.Add(line.DiscountAmount)
		totals.FinalAmount = totals.FinalAmount.Add(line.FinalAmount)
	}
	totals.PreviousBalance = priorDebt
	totals.CurrentBalance = priorDebt.Add(totals.FinalAmount)
	return totals
}
