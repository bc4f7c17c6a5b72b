package billing

import "fmt"

// ValidateForSave runs the save gate over a composition session. Rules are
// checked in a fixed order and the gate stops at the first rule category that
// fails, returning every violation collected within that category so the
// operator can fix all of them in one pass. An empty slice means the invoice
// may be persisted.
//
// Order: customer selected, truck selected, at least one sellable line, then
// per-line invariants (cages weight vs gross weight, discount range).
func ValidateForSave(customerID, truckID int64, lines []InvoiceLine) []string {
	if customerID == 0 {
		return []string{"a customer must be selected"}
	}
	if truckID == 0 {
		return []string{"a truck must be selected"}
	}

	sellable := false
	for _, line := range lines {
		if line.GrossWeight.IsPositive() && line.CagesCount > 0 && line.UnitPrice.IsPositive() {
			sellable = true
			break
		}
	}
	if !sellable {
		return []string{"the invoice needs at least one line with gross weight, cage count and unit price"}
	}

	var violations []string
	for i, line := range lines {
		line = RecalculateLine(line)
		if line.GrossWeight.IsPositive() && line.CagesWeight.GreaterThanOrEqual(line.GrossWeight) {
			violations = append(violations, fmt.Sprintf("line %d: cages weight %s is not below gross weight %s", i+1, line.CagesWeight, line.GrossWeight))
		}
		if line.DiscountPct.IsNegative() || line.DiscountPct.GreaterThan(hundred) {
			violations = append(violations, fmt.Sprintf("line %d: discount %s%% is outside 0-100", i+1, line.DiscountPct))
		}
		if line.UnitPrice.IsNegative() {
			violations = append(violations, fmt.Sprintf("line %d: unit price %s is negative", i+1, line.UnitPrice))
		}
	}
	return violations
}
