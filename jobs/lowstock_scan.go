package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ThresholdSource resolves the canonical low-stock threshold.
type ThresholdSource interface {
	Threshold(ctx context.Context) (int, error)
}

// LowStockScanJob sweeps the catalog for parts under the threshold
// that have no open alert yet. The sweep catches parts that slipped
// past the transactional alert raising, for example after a threshold
// increase.
type LowStockScanJob struct {
	Pool       *pgxpool.Pool
	Thresholds ThresholdSource
	Logger     *slog.Logger
	clock      func() time.Time
}

// NewLowStockScanJob initialises the low-stock sweep handler.
func NewLowStockScanJob(pool *pgxpool.Pool, thresholds ThresholdSource, logger *slog.Logger) *LowStockScanJob {
	return &LowStockScanJob{
		Pool:       pool,
		Thresholds: thresholds,
		Logger:     logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the sweep.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("lowstock scan: handler not configured")
	}
	if j.Pool == nil {
		return errors.New("lowstock scan: pool not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	threshold := payload.Threshold
	if threshold <= 0 {
		if j.Thresholds == nil {
			return errors.New("lowstock scan: threshold source not configured")
		}
		resolved, err := j.Thresholds.Threshold(ctx)
		if err != nil {
			return err
		}
		threshold = resolved
	}

	start := j.now()
	logger := j.logger().With(slog.Int("threshold", threshold))
	logger.Info("starting low-stock scan")

	tag, err := j.Pool.Exec(ctx, `
		INSERT INTO alerts (part_id, current_quantity, threshold)
		SELECT p.id, p.quantity, $1
		FROM parts p
		WHERE p.quantity < $1
		  AND NOT EXISTS (
			SELECT 1 FROM alerts a WHERE a.part_id = p.id AND a.resolved = FALSE
		  )`, threshold)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	logger.Info("completed low-stock scan",
		slog.Int64("alerts_raised", tag.RowsAffected()),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLowStockScan))
	}
	return slog.Default().With(slog.String("job", TaskLowStockScan))
}

func (j *LowStockScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
