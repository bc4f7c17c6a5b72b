package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/farmgate/farmgate-pos/internal/ledger"
)

type fakeLedgerService struct {
	mu         sync.Mutex
	ids        []int64
	reconciled []int64
	corrected  map[int64]bool
	failOn     int64
}

func (f *fakeLedgerService) Recalculate(ctx context.Context, customerID int64) (ledger.ReconcileResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != 0 && customerID == f.failOn {
		return ledger.ReconcileResult{}, errors.New("reconcile failed")
	}
	f.reconciled = append(f.reconciled, customerID)
	return ledger.ReconcileResult{
		CustomerID: customerID,
		Balance:    decimal.Zero,
		Corrected:  f.corrected[customerID],
	}, nil
}

func (f *fakeLedgerService) ListCustomerIDs(ctx context.Context) ([]int64, error) {
	return f.ids, nil
}

func TestLedgerReconcileJob(t *testing.T) {
	ctx := context.Background()

	t.Run("fans out over every customer", func(t *testing.T) {
		svc := &fakeLedgerService{ids: []int64{1, 2, 3}, corrected: map[int64]bool{2: true}}
		job := NewLedgerReconcileJob(svc, nil, nil, 2)

		task, err := NewLedgerReconcileTask(0)
		require.NoError(t, err)

		require.NoError(t, job.Handle(ctx, task))
		require.ElementsMatch(t, []int64{1, 2, 3}, svc.reconciled)
	})

	t.Run("targets a single customer when scoped", func(t *testing.T) {
		svc := &fakeLedgerService{ids: []int64{1, 2, 3}}
		job := NewLedgerReconcileJob(svc, nil, nil, 2)

		task, err := NewLedgerReconcileTask(2)
		require.NoError(t, err)

		require.NoError(t, job.Handle(ctx, task))
		require.Equal(t, []int64{2}, svc.reconciled)
	})

	t.Run("propagates a customer failure", func(t *testing.T) {
		svc := &fakeLedgerService{ids: []int64{1, 2}, failOn: 2}
		job := NewLedgerReconcileJob(svc, nil, nil, 1)

		task, err := NewLedgerReconcileTask(0)
		require.NoError(t, err)

		require.Error(t, job.Handle(ctx, task))
	})
}
