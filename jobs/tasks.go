package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeLedgerIntegrity recomputes cached account balances and
	// reports drift.
	TaskTypeLedgerIntegrity = "finanzas:integridad"
	// TaskTypeDashboardWarmup precomputes the dashboard snapshot cache.
	TaskTypeDashboardWarmup = "finanzas:dashboard_warmup"
)

// LedgerIntegrityPayload narrows the scan to specific accounts when set.
type LedgerIntegrityPayload struct {
	AccountIDs []int64 `json:"cuentaIds,omitempty"`
}

// NewLedgerIntegrityTask constructs an Asynq task for the integrity scan.
func NewLedgerIntegrityTask(payload LedgerIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLedgerIntegrity, data), nil
}

// NewDashboardWarmupTask constructs an Asynq task for the snapshot warmup.
func NewDashboardWarmupTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskTypeDashboardWarmup, nil), nil
}
