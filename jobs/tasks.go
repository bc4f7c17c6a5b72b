package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerReconcile recomputes customer debts from transaction history.
	TaskLedgerReconcile = "ledger:reconcile"
)

// LedgerReconcilePayload scopes a reconciliation run. CustomerID zero means
// every customer with ledger activity.
type LedgerReconcilePayload struct {
	CustomerID int64 `json:"customer_id"`
}

// NewLedgerReconcileTask constructs an Asynq task.
func NewLedgerReconcileTask(customerID int64) (*asynq.Task, error) {
	body, err := json.Marshal(LedgerReconcilePayload{CustomerID: customerID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerReconcile, body, asynq.Queue(QueueDefault)), nil
}
