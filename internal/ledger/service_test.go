package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/farmgate/farmgate-pos/internal/shared"
)

type memoryLedgerRepo struct {
	debts    map[int64]decimal.Decimal
	invoices map[int64][]HistoryEntry
	payments map[int64][]Payment
	nextID   int64
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{
		debts:    make(map[int64]decimal.Decimal),
		invoices: make(map[int64][]HistoryEntry),
		payments: make(map[int64][]Payment),
	}
}

func (r *memoryLedgerRepo) GetDebt(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	debt, ok := r.debts[customerID]
	if !ok {
		return decimal.Zero, shared.ErrNotFound
	}
	return debt, nil
}

func (r *memoryLedgerRepo) Charge(ctx context.Context, customerID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	newDebt, err := ApplyCharge(r.debts[customerID], amount)
	if err != nil {
		return decimal.Zero, err
	}
	r.debts[customerID] = newDebt
	r.nextID++
	r.invoices[customerID] = append(r.invoices[customerID], HistoryEntry{
		Kind:      EntryInvoice,
		Reference: fmt.Sprintf("INV-%05d", r.nextID),
		Date:      time.Now(),
		Amount:    amount,
	})
	return newDebt, nil
}

func (r *memoryLedgerRepo) CreatePaymentAndCredit(ctx context.Context, input PaymentInput) (*Payment, decimal.Decimal, error) {
	newDebt, err := ApplyCredit(r.debts[input.CustomerID], input.Amount)
	if err != nil {
		return nil, decimal.Zero, err
	}
	r.debts[input.CustomerID] = newDebt
	r.nextID++
	p := Payment{
		ID:         r.nextID,
		Number:     fmt.Sprintf("PAY-%06d", r.nextID),
		CustomerID: input.CustomerID,
		Amount:     input.Amount,
		Method:     input.Method,
		PaidAt:     input.PaidAt,
		Note:       input.Note,
		CreatedAt:  time.Now(),
	}
	r.payments[input.CustomerID] = append(r.payments[input.CustomerID], p)
	return &p, newDebt, nil
}

func (r *memoryLedgerRepo) ReconcileDebt(ctx context.Context, customerID int64) (decimal.Decimal, bool, error) {
	finals := decimal.Zero
	for _, inv := range r.invoices[customerID] {
		finals = finals.Add(inv.Amount)
	}
	paid := decimal.Zero
	for _, p := range r.payments[customerID] {
		paid = paid.Add(p.Amount)
	}
	computed := ReconcileBalance(finals, paid)
	if computed.Equal(r.debts[customerID]) {
		return computed, false, nil
	}
	r.debts[customerID] = computed
	return computed, true, nil
}

func (r *memoryLedgerRepo) ListPayments(ctx context.Context, customerID int64, limit int) ([]Payment, error) {
	payments := r.payments[customerID]
	if len(payments) > limit {
		payments = payments[:limit]
	}
	return payments, nil
}

func (r *memoryLedgerRepo) History(ctx context.Context, customerID int64) ([]HistoryEntry, error) {
	var history []HistoryEntry
	history = append(history, r.invoices[customerID]...)
	for _, p := range r.payments[customerID] {
		history = append(history, HistoryEntry{
			Kind:      EntryPayment,
			Reference: p.Number,
			Date:      p.PaidAt,
			Amount:    p.Amount,
		})
	}
	return history, nil
}

func (r *memoryLedgerRepo) ListCustomerIDs(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(r.debts))
	for id := range r.debts {
		ids = append(ids, id)
	}
	return ids, nil
}

func newTestService(repo *memoryLedgerRepo) *Service {
	return NewService(repo, shared.Locker{}, nil)
}

func TestServiceCharge(t *testing.T) {
	ctx := context.Background()

	t.Run("stacks charges on the prior debt", func(t *testing.T) {
		repo := newMemoryLedgerRepo()
		repo.debts[1] = dec("93.83")
		svc := newTestService(repo)

		debt, err := svc.Charge(ctx, 1, dec("104.40"))
		require.NoError(t, err)
		require.True(t, debt.Equal(dec("198.23")), "debt: %s", debt)
		require.True(t, repo.debts[1].Equal(dec("198.23")))
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		svc := newTestService(newMemoryLedgerRepo())

		_, err := svc.Charge(ctx, 1, decimal.Zero)
		require.ErrorIs(t, err, shared.ErrInvalidAmount)

		_, err = svc.Charge(ctx, 1, dec("-10"))
		require.ErrorIs(t, err, shared.ErrInvalidAmount)
	})
}

func TestServiceRegisterPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("overpayment clamps the debt but records the full amount", func(t *testing.T) {
		repo := newMemoryLedgerRepo()
		repo.debts[1] = dec("100.00")
		svc := newTestService(repo)

		payment, debt, err := svc.RegisterPayment(ctx, PaymentInput{
			CustomerID: 1,
			Amount:     dec("150.00"),
			Method:     "cash",
		})
		require.NoError(t, err)

		require.True(t, debt.IsZero(), "debt: %s", debt)
		require.True(t, payment.Amount.Equal(dec("150.00")), "recorded amount: %s", payment.Amount)
		require.NotEmpty(t, payment.Number)
		require.False(t, payment.PaidAt.IsZero())
	})

	t.Run("rejects payments above twice the debt", func(t *testing.T) {
		repo := newMemoryLedgerRepo()
		repo.debts[1] = dec("100.00")
		svc := newTestService(repo)

		_, _, err := svc.RegisterPayment(ctx, PaymentInput{
			CustomerID: 1,
			Amount:     dec("250.00"),
			Method:     "transfer",
		})
		require.ErrorIs(t, err, shared.ErrOverpaymentLimit)
		require.True(t, repo.debts[1].Equal(dec("100.00")), "debt must be untouched")
		require.Empty(t, repo.payments[1])
	})

	t.Run("partial payments reduce the debt step by step", func(t *testing.T) {
		repo := newMemoryLedgerRepo()
		repo.debts[1] = dec("198.23")
		svc := newTestService(repo)

		_, debt, err := svc.RegisterPayment(ctx, PaymentInput{CustomerID: 1, Amount: dec("98.23"), Method: "cash"})
		require.NoError(t, err)
		require.True(t, debt.Equal(dec("100")))

		_, debt, err = svc.RegisterPayment(ctx, PaymentInput{CustomerID: 1, Amount: dec("100"), Method: "cash"})
		require.NoError(t, err)
		require.True(t, debt.IsZero())
	})
}

func TestServiceRecalculate(t *testing.T) {
	ctx := context.Background()

	t.Run("reports no correction when the debt matches history", func(t *testing.T) {
		repo := newMemoryLedgerRepo()
		repo.debts[1] = decimal.Zero
		svc := newTestService(repo)

		_, err := svc.Charge(ctx, 1, dec("104.40"))
		require.NoError(t, err)
		_, _, err = svc.RegisterPayment(ctx, PaymentInput{CustomerID: 1, Amount: dec("50"), Method: "cash"})
		require.NoError(t, err)

		result, err := svc.Recalculate(ctx, 1)
		require.NoError(t, err)
		require.False(t, result.Corrected)
		require.True(t, result.Balance.Equal(dec("54.40")), "balance: %s", result.Balance)
	})

	t.Run("overwrites a drifted debt and is idempotent", func(t *testing.T) {
		repo := newMemoryLedgerRepo()
		repo.debts[1] = decimal.Zero
		svc := newTestService(repo)

		_, err := svc.Charge(ctx, 1, dec("104.40"))
		require.NoError(t, err)

		// Simulated drift from an out-of-band edit.
		repo.debts[1] = dec("999")

		result, err := svc.Recalculate(ctx, 1)
		require.NoError(t, err)
		require.True(t, result.Corrected)
		require.True(t, result.Balance.Equal(dec("104.40")))
		require.True(t, repo.debts[1].Equal(dec("104.40")))

		again, err := svc.Recalculate(ctx, 1)
		require.NoError(t, err)
		require.False(t, again.Corrected, "second run must find nothing to fix")
		require.True(t, again.Balance.Equal(result.Balance))
	})
}

func TestServiceStatement(t *testing.T) {
	ctx := context.Background()

	t.Run("replays history chronologically with a running balance", func(t *testing.T) {
		repo := newMemoryLedgerRepo()
		now := time.Now()
		repo.invoices[1] = []HistoryEntry{
			{Kind: EntryInvoice, Reference: "INV-00002", Date: now.Add(-24 * time.Hour), Amount: dec("104.40")},
			{Kind: EntryInvoice, Reference: "INV-00001", Date: now.Add(-72 * time.Hour), Amount: dec("100.00")},
		}
		repo.payments[1] = []Payment{
			{Number: "PAY-000001", CustomerID: 1, Amount: dec("150.00"), PaidAt: now.Add(-48 * time.Hour)},
		}
		svc := newTestService(repo)

		entries, err := svc.Statement(ctx, 1)
		require.NoError(t, err)
		require.Len(t, entries, 3)

		require.Equal(t, "INV-00001", entries[0].Reference)
		require.True(t, entries[0].Balance.Equal(dec("100.00")))

		require.Equal(t, "PAY-000001", entries[1].Reference)
		require.True(t, entries[1].Balance.IsZero(), "overpayment clamps in the replay too")

		require.Equal(t, "INV-00002", entries[2].Reference)
		require.True(t, entries[2].Balance.Equal(dec("104.40")))
	})
}
