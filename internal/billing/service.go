package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmgate/farmgate-pos/internal/observability"
	"github.com/farmgate/farmgate-pos/internal/shared"
)

// RepositoryPort defines data access for invoice composition. SaveInvoice is
// the persistence collaborator of the save flow: it snapshots the customer's
// prior debt, writes the invoice with its lines and applies the ledger charge
// in one atomic transaction.
type RepositoryPort interface {
	SaveInvoice(ctx context.Context, invoice Invoice) (*Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]InvoiceWithDetails, int, error)
	GetCustomerDebt(ctx context.Context, customerID int64) (decimal.Decimal, error)
}

// Service drives a composition session: recalculation on every edit (Preview)
// and the validated, idempotent save.
type Service struct {
	repo    RepositoryPort
	idem    *shared.IdempotencyStore
	locker  shared.Locker
	metrics *observability.Metrics
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, idem *shared.IdempotencyStore, locker shared.Locker, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, idem: idem, locker: locker, metrics: metrics}
}

// Preview recalculates every line and aggregates totals against the customer's
// current debt without persisting anything.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (*PreviewResponse, error) {
	lines := make([]InvoiceLine, 0, len(req.Lines))
	for i, lr := range req.Lines {
		line := RecalculateLine(lr.toLine())
		line.LineOrder = i + 1
		lines = append(lines, line)
	}

	priorDebt := decimal.Zero
	if req.CustomerID != 0 {
		debt, err := s.repo.GetCustomerDebt(ctx, req.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("get customer debt: %w", err)
		}
		priorDebt = debt
	}

	return &PreviewResponse{
		Lines:  lines,
		Totals: Aggregate(lines, priorDebt),
	}, nil
}

// Save runs the save gate and persists the invoice. Validation failures are
// returned as a *ValidationError with every collected violation; the invoice
// is not persisted and the ledger is not touched. On persistence failure an
// idempotency key reserved for this save is released so the operator can retry.
func (s *Service) Save(ctx context.Context, req SaveInvoiceRequest) (*Invoice, error) {
	lines := make([]InvoiceLine, 0, len(req.Lines))
	for i, lr := range req.Lines {
		line := RecalculateLine(lr.toLine())
		line.LineOrder = i + 1
		lines = append(lines, line)
	}

	if violations := ValidateForSave(req.CustomerID, req.TruckID, lines); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	if s.idem != nil && req.IdempotencyKey != "" {
		if err := s.idem.CheckAndInsert(ctx, req.IdempotencyKey, "billing"); err != nil {
			return nil, err
		}
	}

	invoiceDate := req.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}

	totals := Aggregate(lines, decimal.Zero)
	invoice := Invoice{
		InvoiceDate:    invoiceDate,
		CustomerID:     req.CustomerID,
		TruckID:        req.TruckID,
		NetWeight:      totals.NetWeight,
		TotalAmount:    totals.TotalAmount,
		DiscountAmount: totals.DiscountAmount,
		FinalAmount:    totals.FinalAmount,
		Lines:          lines,
	}

	var saved *Invoice
	err := s.locker.WithLock(ctx, shared.LedgerLockKey(req.CustomerID), 15*time.Second, func(ctx context.Context) error {
		var err error
		saved, err = s.repo.SaveInvoice(ctx, invoice)
		return err
	})
	if err != nil {
		if s.idem != nil && req.IdempotencyKey != "" && !errors.Is(err, shared.ErrIdempotencyConflict) {
			_ = s.idem.Delete(ctx, req.IdempotencyKey)
		}
		return nil, fmt.Errorf("save invoice: %w", err)
	}

	s.metrics.InvoiceSaved()
	return saved, nil
}

// Get returns one invoice with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// GetByNumber returns one invoice by its external number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	return s.repo.GetByNumber(ctx, number)
}

// List returns invoices with customer and truck details.
func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]InvoiceWithDetails, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.ListInvoices(ctx, req)
}
