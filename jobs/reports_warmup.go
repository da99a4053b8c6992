package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// ReportWarmer precomputes report aggregates.
type ReportWarmer interface {
	WarmUp(ctx context.Context) error
}

// ReportsWarmupJob refreshes the cached reports so dashboard requests
// hit warm keys.
type ReportsWarmupJob struct {
	Reports ReportWarmer
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewReportsWarmupJob initialises the warmup handler.
func NewReportsWarmupJob(reports ReportWarmer, logger *slog.Logger) *ReportsWarmupJob {
	return &ReportsWarmupJob{
		Reports: reports,
		Logger:  logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the warmup.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("reports warmup: handler not configured")
	}
	var payload ReportsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := j.now()
	logger := j.logger()
	logger.Info("starting reports warmup", slog.String("scope", payload.Scope))

	if err := j.Reports.WarmUp(ctx); err != nil {
		logger.Error("warmup failed", slog.Any("error", err))
		return err
	}

	logger.Info("completed reports warmup", slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *ReportsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportsWarmup))
}

func (j *ReportsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
