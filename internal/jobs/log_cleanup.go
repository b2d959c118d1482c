package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"job-order-system/pkg/logger"
)

// LogCleanupJob удаляет дневные файлы логов старше retentionDays.
type LogCleanupJob struct {
	dir           string
	retentionDays int
	logger        *zap.Logger
}

func NewLogCleanupJob(dir string, retentionDays int, logger *zap.Logger) *LogCleanupJob {
	return &LogCleanupJob{dir: dir, retentionDays: retentionDays, logger: logger}
}

func (j *LogCleanupJob) Name() string { return "log-cleanup" }

func (j *LogCleanupJob) Run(ctx context.Context, now time.Time) error {
	removed, err := j.Cleanup(now)
	if err != nil {
		return err
	}
	j.logger.Info("LogCleanupJob: старые логи удалены", zap.Int("removed", removed))
	return nil
}

// Cleanup возвращает число удалённых файлов. Файлы с чужими именами и
// сегодняшний файл не трогаются.
func (j *LogCleanupJob) Cleanup(now time.Time) (int, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return 0, fmt.Errorf("не удалось прочитать каталог логов: %w", err)
	}

	today := startOfDay(now)
	cutoff := today.AddDate(0, 0, -j.retentionDays)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		day, ok := parseLogDay(entry.Name(), now.Location())
		if !ok || !day.Before(cutoff) || day.Equal(today) {
			continue
		}
		if err := os.Remove(filepath.Join(j.dir, entry.Name())); err != nil {
			j.logger.Warn("LogCleanupJob: не удалось удалить файл", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}

func parseLogDay(name string, loc *time.Location) (time.Time, bool) {
	if !strings.HasPrefix(name, logger.FilePrefix) || !strings.HasSuffix(name, logger.FileSuffix) {
		return time.Time{}, false
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(name, logger.FilePrefix), logger.FileSuffix)
	day, err := time.ParseInLocation(logger.FileLayout, raw, loc)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}
