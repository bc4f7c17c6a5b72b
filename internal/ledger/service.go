package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmgate/farmgate-pos/internal/observability"
	"github.com/farmgate/farmgate-pos/internal/shared"
)

// RepositoryPort defines the persistence contract for the ledger. Every
// mutation re-reads the stored debt, applies the arithmetic from domain.go and
// writes the new debt together with the associated row in one transaction.
type RepositoryPort interface {
	GetDebt(ctx context.Context, customerID int64) (decimal.Decimal, error)
	Charge(ctx context.Context, customerID int64, amount decimal.Decimal) (decimal.Decimal, error)
	CreatePaymentAndCredit(ctx context.Context, input PaymentInput) (*Payment, decimal.Decimal, error)
	ReconcileDebt(ctx context.Context, customerID int64) (decimal.Decimal, bool, error)
	ListPayments(ctx context.Context, customerID int64, limit int) ([]Payment, error)
	History(ctx context.Context, customerID int64) ([]HistoryEntry, error)
	ListCustomerIDs(ctx context.Context) ([]int64, error)
}

// Service is the only authority allowed to mutate a customer's running debt.
type Service struct {
	repo    RepositoryPort
	locker  shared.Locker
	metrics *observability.Metrics
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, locker shared.Locker, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, locker: locker, metrics: metrics}
}

const lockTTL = 15 * time.Second

// Charge increases the customer's debt by the invoice's final amount. Called
// exactly once per saved invoice.
func (s *Service) Charge(ctx context.Context, customerID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if customerID == 0 {
		return decimal.Zero, fmt.Errorf("ledger: customer ID required")
	}
	if !amount.IsPositive() {
		return decimal.Zero, shared.ErrInvalidAmount
	}
	var debt decimal.Decimal
	err := s.locker.WithLock(ctx, shared.LedgerLockKey(customerID), lockTTL, func(ctx context.Context) error {
		var err error
		debt, err = s.repo.Charge(ctx, customerID, amount)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return debt, nil
}

// RegisterPayment records a payment and credits the customer's debt in one
// atomic operation. The returned debt reflects the per-operation clamp at zero.
func (s *Service) RegisterPayment(ctx context.Context, input PaymentInput) (*Payment, decimal.Decimal, error) {
	if input.CustomerID == 0 {
		return nil, decimal.Zero, fmt.Errorf("ledger: customer ID required")
	}
	if !input.Amount.IsPositive() {
		return nil, decimal.Zero, shared.ErrInvalidAmount
	}
	if input.PaidAt.IsZero() {
		input.PaidAt = time.Now()
	}
	var (
		payment *Payment
		debt    decimal.Decimal
	)
	err := s.locker.WithLock(ctx, shared.LedgerLockKey(input.CustomerID), lockTTL, func(ctx context.Context) error {
		var err error
		payment, debt, err = s.repo.CreatePaymentAndCredit(ctx, input)
		return err
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	s.metrics.PaymentRecorded()
	return payment, debt, nil
}

// Recalculate recomputes the debt from full history and overwrites the stored
// value when it drifted. Running it twice in a row reports no correction the
// second time.
func (s *Service) Recalculate(ctx context.Context, customerID int64) (ReconcileResult, error) {
	if customerID == 0 {
		return ReconcileResult{}, fmt.Errorf("ledger: customer ID required")
	}
	var result ReconcileResult
	err := s.locker.WithLock(ctx, shared.LedgerLockKey(customerID), lockTTL, func(ctx context.Context) error {
		balance, corrected, err := s.repo.ReconcileDebt(ctx, customerID)
		if err != nil {
			return err
		}
		result = ReconcileResult{CustomerID: customerID, Balance: balance, Corrected: corrected}
		return nil
	})
	if err != nil {
		return ReconcileResult{}, err
	}
	if result.Corrected {
		s.metrics.LedgerCorrected()
	}
	return result, nil
}

// GetDebt returns the customer's stored running debt.
func (s *Service) GetDebt(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	return s.repo.GetDebt(ctx, customerID)
}

// ListPayments returns payments for a customer, newest first.
func (s *Service) ListPayments(ctx context.Context, customerID int64, limit int) ([]Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.ListPayments(ctx, customerID, limit)
}

// ListCustomerIDs returns every customer with ledger activity, for the
// reconciliation job.
func (s *Service) ListCustomerIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ListCustomerIDs(ctx)
}

// Statement merges invoice charges and payment credits into a chronological
// statement with a running balance. The running balance replays the ledger
// arithmetic, clamping credits at zero the same way the live operations did.
func (s *Service) Statement(ctx context.Context, customerID int64) ([]StatementEntry, error) {
	history, err := s.repo.History(ctx, customerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date.Before(history[j].Date)
	})

	entries := make([]StatementEntry, 0, len(history))
	balance := decimal.Zero
	for _, h := range history {
		entry := StatementEntry{
			Kind:      h.Kind,
			Reference: h.Reference,
			Date:      h.Date,
			Charge:    decimal.Zero,
			Credit:    decimal.Zero,
		}
		switch h.Kind {
		case EntryInvoice:
			balance = balance.Add(h.Amount)
			entry.Charge = h.Amount
		case EntryPayment:
			balance = balance.Sub(h.Amount)
			if balance.IsNegative() {
				balance = decimal.Zero
			}
			entry.Credit = h.Amount
		}
		entry.Balance = balance
		entries = append(entries, entry)
	}
	return entries, nil
}
