package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmgate/farmgate-pos/internal/shared"
)

var two = decimal.NewFromInt(2)

// ApplyCharge returns the debt after an invoice charge. It is the arithmetic
// half of the charge contract; the repository supplies the transactional half.
func ApplyCharge(debt, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return debt, shared.ErrInvalidAmount
	}
	return debt.Add(amount), nil
}

// ApplyCredit returns the debt after a payment. Overpayment is allowed up to
// twice the current debt, and the stored debt is clamped at zero per operation;
// the payment row still records the full amount.
func ApplyCredit(debt, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return debt, shared.ErrInvalidAmount
	}
	if amount.GreaterThan(debt.Mul(two)) {
		return debt, shared.ErrOverpaymentLimit
	}
	next := debt.Sub(amount)
	if next.IsNegative() {
		next = decimal.Zero
	}
	return next, nil
}

// ReconcileBalance recomputes the debt from full history: the sum of invoice
// final amounts minus the sum of payment amounts.
func ReconcileBalance(invoiceFinals, paymentAmounts decimal.Decimal) decimal.Decimal {
	return invoiceFinals.Sub(paymentAmounts)
}

// Payment model.
type Payment struct {
	ID         int64           `json:"id" db:"id"`
	Number     string          `json:"number" db:"number"`
	CustomerID int64           `json:"customer_id" db:"customer_id"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Method     string          `json:"method" db:"method"`
	PaidAt     time.Time       `json:"paid_at" db:"paid_at"`
	Note       string          `json:"note,omitempty" db:"note"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// PaymentInput for recording payments.
type PaymentInput struct {
	CustomerID int64           `json:"customer_id" validate:"required,gt=0"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	Method     string          `json:"method" validate:"required,oneof=cash transfer cheque"`
	PaidAt     time.Time       `json:"paid_at"`
	Note       string          `json:"note,omitempty"`
}

// StatementEntry is one row of a customer statement: either an invoice charge
// or a payment credit, with the running balance after it.
type StatementEntry struct {
	Kind      string          `json:"kind"`
	Reference string          `json:"reference"`
	Date      time.Time       `json:"date"`
	Charge    decimal.Decimal `json:"charge"`
	Credit    decimal.Decimal `json:"credit"`
	Balance   decimal.Decimal `json:"balance"`
}

// HistoryEntry is one charge or credit as stored, used by reconciliation and
// statements.
type HistoryEntry struct {
	Kind      string
	Reference string
	Date      time.Time
	Amount    decimal.Decimal
}

// ReconcileResult reports a reconciliation run for one customer.
type ReconcileResult struct {
	CustomerID int64           `json:"customer_id"`
	Balance    decimal.Decimal `json:"balance"`
	Corrected  bool            `json:"corrected"`
}

const (
	// EntryInvoice marks an invoice charge in history and statements.
	EntryInvoice = "invoice"
	// EntryPayment marks a payment credit in history and statements.
	EntryPayment = "payment"
)
