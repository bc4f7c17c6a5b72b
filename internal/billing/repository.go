package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/farmgate/farmgate-pos/internal/ledger"
	"github.com/farmgate/farmgate-pos/internal/platform/db"
	"github.com/farmgate/farmgate-pos/internal/shared"
)

// Repository provides PostgreSQL backed persistence for invoices.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveInvoice persists the invoice, its lines and the ledger charge in one
// RepeatableRead transaction. The customer row is locked first so the balance
// snapshot and the debt update cannot interleave with a concurrent payment.
func (r *Repository) SaveInvoice(ctx context.Context, invoice Invoice) (*Invoice, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var debtRaw string
		err := tx.QueryRow(ctx, `SELECT total_debt::text FROM customers WHERE id = $1 FOR UPDATE`, invoice.CustomerID).Scan(&debtRaw)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return fmt.Errorf("billing: lock customer: %w", err)
		}
		priorDebt, err := decimal.NewFromString(debtRaw)
		if err != nil {
			return err
		}

		newDebt, err := ledger.ApplyCharge(priorDebt, invoice.FinalAmount)
		if err != nil {
			return err
		}
		invoice.PreviousBalance = priorDebt
		invoice.CurrentBalance = newDebt

		invoice.Number, err = nextInvoiceNumber(ctx, tx, invoice.InvoiceDate)
		if err != nil {
			return fmt.Errorf("billing: generate invoice number: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO invoices (
				number, invoice_date, customer_id, truck_id,
				net_weight, total_amount, discount_amount, final_amount,
				previous_balance, current_balance, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
			RETURNING id, created_at`,
			invoice.Number, invoice.InvoiceDate, invoice.CustomerID, invoice.TruckID,
			invoice.NetWeight.String(), invoice.TotalAmount.String(),
			invoice.DiscountAmount.String(), invoice.FinalAmount.String(),
			invoice.PreviousBalance.String(), invoice.CurrentBalance.String(),
		).Scan(&invoice.ID, &invoice.CreatedAt)
		if err != nil {
			return fmt.Errorf("billing: insert invoice: %w", err)
		}

		for i := range invoice.Lines {
			line := &invoice.Lines[i]
			line.InvoiceID = invoice.ID
			err = tx.QueryRow(ctx, `
				INSERT INTO invoice_lines (
					invoice_id, gross_weight, cages_count, cage_unit_weight,
					unit_price, discount_pct, cages_weight, net_weight,
					total_amount, discount_amount, final_amount, line_order, created_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
				RETURNING id, created_at`,
				invoice.ID, line.GrossWeight.String(), line.CagesCount, line.CageUnitWeight.String(),
				line.UnitPrice.String(), line.DiscountPct.String(), line.CagesWeight.String(),
				line.NetWeight.String(), line.TotalAmount.String(), line.DiscountAmount.String(),
				line.FinalAmount.String(), line.LineOrder,
			).Scan(&line.ID, &line.CreatedAt)
			if err != nil {
				return fmt.Errorf("billing: insert invoice line %d: %w", i+1, err)
			}
		}

		if _, err := tx.Exec(ctx, `UPDATE customers SET total_debt = $1, updated_at = NOW() WHERE id = $2`,
			newDebt.String(), invoice.CustomerID); err != nil {
			return fmt.Errorf("billing: charge customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetInvoice returns one invoice with its lines.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return r.getInvoice(ctx, `WHERE id = $1`, id)
}

// GetByNumber returns one invoice by its external number.
func (r *Repository) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	return r.getInvoice(ctx, `WHERE number = $1`, number)
}

func (r *Repository) getInvoice(ctx context.Context, where string, arg any) (*Invoice, error) {
	var (
		inv Invoice
		raw [6]string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, number, invoice_date, customer_id, truck_id,
		       net_weight::text, total_amount::text, discount_amount::text, final_amount::text,
		       previous_balance::text, current_balance::text, created_at
		FROM invoices `+where,
		arg,
	).Scan(&inv.ID, &inv.Number, &inv.InvoiceDate, &inv.CustomerID, &inv.TruckID,
		&raw[0], &raw[1], &raw[2], &raw[3], &raw[4], &raw[5], &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	fields := []*decimal.Decimal{&inv.NetWeight, &inv.TotalAmount, &inv.DiscountAmount, &inv.FinalAmount, &inv.PreviousBalance, &inv.CurrentBalance}
	for i, dst := range fields {
		if *dst, err = decimal.NewFromString(raw[i]); err != nil {
			return nil, err
		}
	}

	if inv.Lines, err = r.listLines(ctx, inv.ID); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *Repository) listLines(ctx context.Context, invoiceID int64) ([]InvoiceLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, gross_weight::text, cages_count, cage_unit_weight::text,
		       unit_price::text, discount_pct::text, cages_weight::text, net_weight::text,
		       total_amount::text, discount_amount::text, final_amount::text, line_order, created_at
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY line_order`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []InvoiceLine
	for rows.Next() {
		var (
			line InvoiceLine
			raw  [10]string
		)
		if err := rows.Scan(&line.ID, &line.InvoiceID, &raw[0], &line.CagesCount, &raw[1],
			&raw[2], &raw[3], &raw[4], &raw[5], &raw[6], &raw[7], &raw[8], &line.LineOrder, &line.CreatedAt); err != nil {
			return nil, err
		}
		fields := []*decimal.Decimal{
			&line.GrossWeight, &line.CageUnitWeight, &line.UnitPrice, &line.DiscountPct,
			&line.CagesWeight, &line.NetWeight, &line.TotalAmount, &line.DiscountAmount, &line.FinalAmount,
		}
		for i, dst := range fields {
			if *dst, err = decimal.NewFromString(raw[i]); err != nil {
				return nil, err
			}
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// ListInvoices returns invoices joined with customer and truck details.
func (r *Repository) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]InvoiceWithDetails, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.CustomerID != 0 {
		conditions = append(conditions, fmt.Sprintf("i.customer_id = $%d", argPos))
		args = append(args, req.CustomerID)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM invoices i %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT i.id, i.number, i.invoice_date, i.customer_id, i.truck_id,
		       i.net_weight::text, i.total_amount::text, i.discount_amount::text, i.final_amount::text,
		       i.previous_balance::text, i.current_balance::text, i.created_at,
		       c.name, t.plate_number
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		JOIN trucks t ON t.id = i.truck_id
		%s
		ORDER BY i.invoice_date DESC, i.id DESC
		LIMIT $%d OFFSET $%d`, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var invoices []InvoiceWithDetails
	for rows.Next() {
		var (
			inv InvoiceWithDetails
			raw [6]string
		)
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.InvoiceDate, &inv.CustomerID, &inv.TruckID,
			&raw[0], &raw[1], &raw[2], &raw[3], &raw[4], &raw[5], &inv.CreatedAt,
			&inv.CustomerName, &inv.TruckPlate); err != nil {
			return nil, 0, err
		}
		fields := []*decimal.Decimal{&inv.NetWeight, &inv.TotalAmount, &inv.DiscountAmount, &inv.FinalAmount, &inv.PreviousBalance, &inv.CurrentBalance}
		for i, dst := range fields {
			if *dst, err = decimal.NewFromString(raw[i]); err != nil {
				return nil, 0, err
			}
		}
		invoices = append(invoices, inv)
	}
	return invoices, total, rows.Err()
}

// GetCustomerDebt returns the customer's current stored debt.
func (r *Repository) GetCustomerDebt(ctx context.Context, customerID int64) (decimal.Decimal, error) {
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

func nextInvoiceNumber(ctx context.Context, tx pgx.Tx, date time.Time) (string, error) {
	var seq int64
	if err := tx.QueryRow(ctx, `SELECT nextval('invoice_number_seq')`).Scan(&seq); err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%s-%05d", date.Format("20060102"), seq), nil
}
