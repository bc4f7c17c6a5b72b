package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceLine is one weighing on the scale. The raw fields come straight from
// operator input; the derived fields are owned by RecalculateLine and are never
// set independently.
type InvoiceLine struct {
	ID        int64 `json:"id" db:"id"`
	InvoiceID int64 `json:"invoice_id" db:"invoice_id"`

	GrossWeight    decimal.Decimal `json:"gross_weight" db:"gross_weight"`
	CagesCount     int             `json:"cages_count" db:"cages_count"`
	CageUnitWeight decimal.Decimal `json:"cage_unit_weight" db:"cage_unit_weight"`
	UnitPrice      decimal.Decimal `json:"unit_price" db:"unit_price"`
	DiscountPct    decimal.Decimal `json:"discount_pct" db:"discount_pct"`

	CagesWeight    decimal.Decimal `json:"cages_weight" db:"cages_weight"`
	NetWeight      decimal.Decimal `json:"net_weight" db:"net_weight"`
	TotalAmount    decimal.Decimal `json:"total_amount" db:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount" db:"final_amount"`

	LineOrder int       `json:"line_order" db:"line_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Invoice is persisted exactly once at the end of a composition session and is
// immutable afterwards. PreviousBalance and CurrentBalance are snapshots taken
// inside the save transaction and are never recomputed later.
type Invoice struct {
	ID          int64     `json:"id" db:"id"`
	Number      string    `json:"number" db:"number"`
	InvoiceDate time.Time `json:"invoice_date" db:"invoice_date"`
	CustomerID  int64     `json:"customer_id" db:"customer_id"`
	TruckID     int64     `json:"truck_id" db:"truck_id"`

	NetWeight      decimal.Decimal `json:"net_weight" db:"net_weight"`
	TotalAmount    decimal.Decimal `json:"total_amount" db:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount" db:"final_amount"`

	PreviousBalance decimal.Decimal `json:"previous_balance" db:"previous_balance"`
	CurrentBalance  decimal.Decimal `json:"current_balance" db:"current_balance"`

	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	Lines     []InvoiceLine `json:"lines,omitempty" db:"-"`
}

// InvoiceTotals is the aggregation result fed back to the composition screen on
// every edit.
type InvoiceTotals struct {
	NetWeight       decimal.Decimal `json:"net_weight"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
}

// InvoiceWithDetails joins the customer and truck names for listings.
type InvoiceWithDetails struct {
	Invoice
	CustomerName string `json:"customer_name" db:"customer_name"`
	TruckPlate   string `json:"truck_plate" db:"truck_plate"`
}
