package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/farmgate/farmgate-pos/internal/jobs"
	"github.com/farmgate/farmgate-pos/internal/ledger"
)

// LedgerService describes the behaviour the reconciliation job needs from the
// ledger.
type LedgerService interface {
	Recalculate(ctx context.Context, customerID int64) (ledger.ReconcileResult, error)
	ListCustomerIDs(ctx context.Context) ([]int64, error)
}

// LedgerReconcileJob replays every customer's history and corrects drifted
// debts. It runs nightly and on demand.
type LedgerReconcileJob struct {
	Service     LedgerService
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	Concurrency int
}

// NewLedgerReconcileJob constructs the job handler.
func NewLedgerReconcileJob(service LedgerService, logger *slog.Logger, metrics *jobmetrics.Metrics, concurrency int) *LedgerReconcileJob {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &LedgerReconcileJob{Service: service, Logger: logger, Metrics: metrics, Concurrency: concurrency}
}

// Handle executes the reconciliation job.
func (j *LedgerReconcileJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("ledger reconcile: dependencies not configured")
	}
	var payload LedgerReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskLedgerReconcile)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if payload.CustomerID != 0 {
		resultErr = j.reconcileOne(ctx, payload.CustomerID)
		return resultErr
	}

	ids, err := j.Service.ListCustomerIDs(ctx)
	if err != nil {
		resultErr = err
		j.log().Error("list customers", slog.Any("error", err))
		return resultErr
	}
	if len(ids) == 0 {
		j.log().Info("no customers with ledger activity")
		return resultErr
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(j.Concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			return j.reconcileOne(ctx, id)
		})
	}
	resultErr = g.Wait()
	if resultErr == nil {
		j.log().Info("ledger reconciliation finished", slog.Int("customers", len(ids)))
	}
	return resultErr
}

func (j *LedgerReconcileJob) reconcileOne(ctx context.Context, customerID int64) error {
	result, err := j.Service.Recalculate(ctx, customerID)
	if err != nil {
		j.log().Error("reconcile customer", slog.Int64("customer_id", customerID), slog.Any("error", err))
		return err
	}
	if result.Corrected {
		j.log().Warn("ledger drift corrected",
			slog.Int64("customer_id", customerID),
			slog.String("balance", result.Balance.String()))
	}
	return nil
}

func (j *LedgerReconcileJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
