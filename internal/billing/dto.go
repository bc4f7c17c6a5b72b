package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmgate/farmgate-pos/internal/shared"
)

// LineRequest carries one weighing's raw inputs. Derived fields are ignored on
// input; the calculator owns them.
type LineRequest struct {
	GrossWeight    decimal.Decimal `json:"gross_weight"`
	CagesCount     int             `json:"cages_count" validate:"gte=0"`
	CageUnitWeight decimal.Decimal `json:"cage_unit_weight"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountPct    decimal.Decimal `json:"discount_pct"`
}

// SaveInvoiceRequest persists a composition session. IdempotencyKey is read
// from the Idempotency-Key header, not the body.
type SaveInvoiceRequest struct {
	CustomerID     int64         `json:"customer_id"`
	TruckID        int64         `json:"truck_id"`
	InvoiceDate    time.Time     `json:"invoice_date"`
	Lines          []LineRequest `json:"lines"`
	IdempotencyKey string        `json:"-"`
}

// PreviewRequest recomputes lines and totals without persisting, the
// "on every edit" path for thin clients.
type PreviewRequest struct {
	CustomerID int64         `json:"customer_id"`
	Lines      []LineRequest `json:"lines"`
}

// PreviewResponse returns the recalculated lines and the aggregated totals.
type PreviewResponse struct {
	Lines  []InvoiceLine `json:"lines"`
	Totals InvoiceTotals `json:"totals"`
}

// ListInvoicesRequest filters the invoice listing.
type ListInvoicesRequest struct {
	CustomerID int64 `json:"customer_id"`
	Limit      int   `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int   `json:"offset" validate:"gte=0"`
}

// ValidationError carries the ordered save-gate violations. It unwraps to
// shared.ErrValidationFailed so handlers can map it without losing the list.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", shared.ErrValidationFailed, strings.Join(e.Violations, "; "))
}

func (e *ValidationError) Unwrap() error {
	return shared.ErrValidationFailed
}

func (r LineRequest) toLine() InvoiceLine {
	return InvoiceLine{
		GrossWeight:    r.GrossWeight,
		CagesCount:     r.CagesCount,
		CageUnitWeight: r.CageUnitWeight,
		UnitPrice:      r.UnitPrice,
		DiscountPct:    r.DiscountPct,
	}
}
