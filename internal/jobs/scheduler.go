package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"job-order-system/internal/repositories"
	"job-order-system/pkg/config"
)

// lockTTL меньше суток, чтобы ключ вчерашнего запуска не мешал сегодняшнему.
const lockTTL = 23 * time.Hour

// Job - ежедневная фоновая задача.
type Job interface {
	Name() string
	Run(ctx context.Context, now time.Time) error
}

type Scheduler struct {
	jobs   []Job
	locks  repositories.LockRepositoryInterface
	hour   int
	minute int
	owner  string
	now    func() time.Time
	logger *zap.Logger
}

func NewScheduler(cfg config.SchedulerConfig, locks repositories.LockRepositoryInterface, logger *zap.Logger, jobs ...Job) (*Scheduler, error) {
	hour, minute, err := cfg.Clock()
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		jobs:   jobs,
		locks:  locks,
		hour:   hour,
		minute: minute,
		owner:  uuid.NewString(),
		now:    time.Now,
		logger: logger,
	}, nil
}

// Start блокируется до отмены ctx и раз в сутки запускает все задачи.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Scheduler: запуск", zap.Int("hour", s.hour), zap.Int("minute", s.minute), zap.Int("jobs", len(s.jobs)))
	for {
		next := NextRun(s.now(), s.hour, s.minute)
		timer := time.NewTimer(time.Until(next))
		s.logger.Debug("Scheduler: следующий запуск", zap.Time("at", next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Scheduler: остановлен")
			return nil
		case <-timer.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce запускает задачи, для которых удалось взять блокировку на сегодня.
// Ошибка одной задачи не мешает остальным.
func (s *Scheduler) RunOnce(ctx context.Context) {
	now := s.now()
	for _, job := range s.jobs {
		log := s.logger.With(zap.String("job", job.Name()))
		key := lockKey(job.Name(), now)

		acquired, err := s.locks.Acquire(ctx, key, s.owner, lockTTL)
		if err != nil {
			log.Error("Scheduler: не удалось взять блокировку", zap.Error(err))
			continue
		}
		if !acquired {
			log.Info("Scheduler: задача уже выполняется или выполнена другим экземпляром")
			continue
		}

		started := time.Now()
		if err := job.Run(ctx, now); err != nil {
			log.Error("Scheduler: задача завершилась с ошибкой", zap.Error(err))
			// Снимаем блокировку, чтобы повтор в тот же день был возможен
			if relErr := s.locks.Release(ctx, key, s.owner); relErr != nil {
				log.Warn("Scheduler: не удалось снять блокировку", zap.Error(relErr))
			}
			continue
		}
		log.Info("Scheduler: задача выполнена", zap.Duration("took", time.Since(started)))
	}
}

func lockKey(name string, day time.Time) string {
	return fmt.Sprintf("jobs:%s:%s", name, day.Format("2006-01-02"))
}

// NextRun - ближайший момент hour:minute строго после now.
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
