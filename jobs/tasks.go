package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan sweeps the catalog for parts under the threshold.
	TaskLowStockScan = "lowstock:scan"
	// TaskReportsWarmup precomputes report aggregates into the cache.
	TaskReportsWarmup = "reports:warmup"
)

// LowStockScanPayload configures a low-stock sweep. Threshold zero
// means use the canonical stored threshold.
type LowStockScanPayload struct {
	Threshold int `json:"threshold"`
}

// NewLowStockScanTask constructs an Asynq task for the sweep.
func NewLowStockScanTask(threshold int) (*asynq.Task, error) {
	data, err := json.Marshal(LowStockScanPayload{Threshold: threshold})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, data), nil
}

// ReportsWarmupPayload configures a warmup run.
type ReportsWarmupPayload struct {
	Scope string `json:"scope"`
}

// NewReportsWarmupTask constructs an Asynq task for report warmup.
func NewReportsWarmupTask(scope string) (*asynq.Task, error) {
	data, err := json.Marshal(ReportsWarmupPayload{Scope: scope})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsWarmup, data), nil
}
