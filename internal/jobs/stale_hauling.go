package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type staleHaulingCompleter interface {
	CompleteStale(ctx context.Context, before time.Time) (int64, error)
}

// StaleHaulingJob переводит в done выезды, чья дата уже прошла.
type StaleHaulingJob struct {
	repo   staleHaulingCompleter
	logger *zap.Logger
}

func NewStaleHaulingJob(repo staleHaulingCompleter, logger *zap.Logger) *StaleHaulingJob {
	return &StaleHaulingJob{repo: repo, logger: logger}
}

func (j *StaleHaulingJob) Name() string { return "stale-haulings" }

func (j *StaleHaulingJob) Run(ctx context.Context, now time.Time) error {
	updated, err := j.repo.CompleteStale(ctx, startOfDay(now))
	if err != nil {
		return fmt.Errorf("не удалось закрыть просроченные выезды: %w", err)
	}
	j.logger.Info("StaleHaulingJob: выезды закрыты", zap.Int64("updated", updated))
	return nil
}
