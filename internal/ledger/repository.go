package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/farmgate/farmgate-pos/internal/platform/db"
	"github.com/farmgate/farmgate-pos/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the ledger. Each
// mutation runs in a RepeatableRead transaction that locks the customer row,
// so concurrent operations against the same customer serialize instead of
// lost-updating each other.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetDebt returns the stored running debt for a customer.
func (r *Repository) GetDebt(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	var raw string
	err := r.pool.QueryRow(ctx, `SELECT total_debt::text FROM customers WHERE id = $1`, customerID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, shared.ErrNotFound
		}
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

// Charge applies an invoice charge to the customer's debt.
func (r *Repository) Charge(ctx context.Context, customerID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	var debt decimal.Decimal
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := lockDebt(ctx, tx, customerID)
		if err != nil {
			return err
		}
		debt, err = ApplyCharge(current, amount)
		if err != nil {
			return err
		}
		return writeDebt(ctx, tx, customerID, debt)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return debt, nil
}

// CreatePaymentAndCredit records the payment row and the debt credit together.
func (r *Repository) CreatePaymentAndCredit(ctx context.Context, input PaymentInput) (*Payment, decimal.Decimal, error) {
	var (
		payment Payment
		debt    decimal.Decimal
	)
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := lockDebt(ctx, tx, input.CustomerID)
		if err != nil {
			return err
		}
		debt, err = ApplyCredit(current, input.Amount)
		if err != nil {
			return err
		}

		number, err := nextPaymentNumber(ctx, tx)
		if err != nil {
			return fmt.Errorf("ledger: generate payment number: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO payments (number, customer_id, amount, method, paid_at, note, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			RETURNING id, created_at`,
			number, input.CustomerID, input.Amount.String(), input.Method, input.PaidAt, input.Note,
		).Scan(&payment.ID, &payment.CreatedAt)
		if err != nil {
			return fmt.Errorf("ledger: insert payment: %w", err)
		}
		payment.Number = number
		payment.CustomerID = input.CustomerID
		payment.Amount = input.Amount
		payment.Method = input.Method
		payment.PaidAt = input.PaidAt
		payment.Note = input.Note

		return writeDebt(ctx, tx, input.CustomerID, debt)
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	return &payment, debt, nil
}

// ReconcileDebt recomputes the debt from invoice and payment history and
// overwrites the stored value when it drifted.
func (r *Repository) ReconcileDebt(ctx context.Context, customerID int64) (decimal.Decimal, bool, error) {
	var (
		balance   decimal.Decimal
		corrected bool
	)
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		stored, err := lockDebt(ctx, tx, customerID)
		if err != nil {
			return err
		}

		var finalsRaw, paymentsRaw string
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(SUM(final_amount), 0)::text FROM invoices WHERE customer_id = $1`,
			customerID,
		).Scan(&finalsRaw); err != nil {
			return fmt.Errorf("ledger: sum invoice finals: %w", err)
		}
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(SUM(amount), 0)::text FROM payments WHERE customer_id = $1`,
			customerID,
		).Scan(&paymentsRaw); err != nil {
			return fmt.Errorf("ledger: sum payments: %w", err)
		}

		finals, err := decimal.NewFromString(finalsRaw)
		if err != nil {
			return err
		}
		paid, err := decimal.NewFromString(paymentsRaw)
		if err != nil {
			return err
		}

		balance = ReconcileBalance(finals, paid)
		if balance.Equal(stored) {
			return nil
		}
		corrected = true
		return writeDebt(ctx, tx, customerID, balance)
	})
	if err != nil {
		return decimal.Zero, false, err
	}
	return balance, corrected, nil
}

// ListPayments returns payments for a customer, newest first.
func (r *Repository) ListPayments(ctx context.Context, customerID int64, limit int) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, number, customer_id, amount::text, method, paid_at, note, created_at
		FROM payments
		WHERE customer_id = $1
		ORDER BY paid_at DESC, id DESC
		LIMIT $2`, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var (
			p   Payment
			raw string
		)
		if err := rows.Scan(&p.ID, &p.Number, &p.CustomerID, &raw, &p.Method, &p.PaidAt, &p.Note, &p.CreatedAt); err != nil {
			return nil, err
		}
		if p.Amount, err = decimal.NewFromString(raw); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// History returns every charge and credit for a customer, unordered; the
// service sorts and replays them.
func (r *Repository) History(ctx context.Context, customerID int64) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT 'invoice', number, invoice_date, final_amount::text FROM invoices WHERE customer_id = $1
		UNION ALL
		SELECT 'payment', number, paid_at, amount::text FROM payments WHERE customer_id = $1`,
		customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []HistoryEntry
	for rows.Next() {
		var (
			h   HistoryEntry
			raw string
		)
		if err := rows.Scan(&h.Kind, &h.Reference, &h.Date, &raw); err != nil {
			return nil, err
		}
		if h.Amount, err = decimal.NewFromString(raw); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// ListCustomerIDs returns every customer ID, for reconciliation fan-out.
func (r *Repository) ListCustomerIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM customers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func lockDebt(ctx context.Context, tx pgx.Tx, customerID int64) (decimal.Decimal, error) {
	var raw string
	err := tx.QueryRow(ctx, `SELECT total_debt::text FROM customers WHERE id = $1 FOR UPDATE`, customerID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, shared.ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("ledger: lock customer debt: %w", err)
	}
	return decimal.NewFromString(raw)
}

func writeDebt(ctx context.Context, tx pgx.Tx, customerID int64, debt decimal.Decimal) error {
	_, err := tx.Exec(ctx, `UPDATE customers SET total_debt = $1, updated_at = NOW() WHERE id = $2`, debt.String(), customerID)
	if err != nil {
		return fmt.Errorf("ledger: write customer debt: %w", err)
	}
	return nil
}

func nextPaymentNumber(ctx context.Context, tx pgx.Tx) (string, error) {
	var seq int64
	if err := tx.QueryRow(ctx, `SELECT nextval('payment_number_seq')`).Scan(&seq); err != nil {
		return "", err
	}
	return fmt.Sprintf("PAY-%06d", seq), nil
}
