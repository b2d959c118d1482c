package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"job-order-system/pkg/config"
	"job-order-system/pkg/logger"
)

type memoryLocks struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemoryLocks() *memoryLocks {
	return &memoryLocks{keys: map[string]string{}}
}

func (l *memoryLocks) Acquire(_ context.Context, key, owner string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.keys[key]; held {
		return false, nil
	}
	l.keys[key] = owner
	return true, nil
}

func (l *memoryLocks) Release(_ context.Context, key, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.keys[key] == owner {
		delete(l.keys, key)
	}
	return nil
}

type countingJob struct {
	name string
	err  error
	runs int
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context, time.Time) error {
	j.runs++
	return j.err
}

func newTestScheduler(t *testing.T, locks *memoryLocks, now time.Time, jobs ...Job) *Scheduler {
	t.Helper()
	s, err := NewScheduler(config.SchedulerConfig{Enabled: true, RunAt: "00:05"}, locks, zap.NewNop(), jobs...)
	require.NoError(t, err)
	s.now = func() time.Time { return now }
	return s
}

func TestNextRun(t *testing.T) {
	loc := time.Local
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before run time", time.Date(2025, 3, 14, 0, 1, 0, 0, loc), time.Date(2025, 3, 14, 0, 5, 0, 0, loc)},
		{"exactly at run time", time.Date(2025, 3, 14, 0, 5, 0, 0, loc), time.Date(2025, 3, 15, 0, 5, 0, 0, loc)},
		{"after run time", time.Date(2025, 3, 14, 18, 0, 0, 0, loc), time.Date(2025, 3, 15, 0, 5, 0, 0, loc)},
		{"month boundary", time.Date(2025, 3, 31, 23, 0, 0, 0, loc), time.Date(2025, 4, 1, 0, 5, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(NextRun(tt.now, 0, 5)), "got %s", NextRun(tt.now, 0, 5))
		})
	}
}

func TestNewScheduler_BadClock(t *testing.T) {
	_, err := NewScheduler(config.SchedulerConfig{RunAt: "midnight"}, newMemoryLocks(), zap.NewNop())
	assert.Error(t, err)
}

func TestRunOnce_OncePerDay(t *testing.T) {
	locks := newMemoryLocks()
	now := time.Date(2025, 3, 14, 0, 5, 0, 0, time.Local)
	first := &countingJob{name: "first"}
	second := &countingJob{name: "second"}

	s := newTestScheduler(t, locks, now, first, second)
	s.RunOnce(t.Context())
	s.RunOnce(t.Context())

	// Второй экземпляр с другим владельцем тоже не должен запуститься
	other := newTestScheduler(t, locks, now, first, second)
	other.RunOnce(t.Context())

	assert.Equal(t, 1, first.runs)
	assert.Equal(t, 1, second.runs)
	assert.Contains(t, locks.keys, "jobs:first:2025-03-14")

	s.now = func() time.Time { return now.AddDate(0, 0, 1) }
	s.RunOnce(t.Context())
	assert.Equal(t, 2, first.runs)
}

func TestRunOnce_FailureReleasesLock(t *testing.T) {
	locks := newMemoryLocks()
	now := time.Date(2025, 3, 14, 0, 5, 0, 0, time.Local)
	failing := &countingJob{name: "failing", err: errors.New("boom")}
	healthy := &countingJob{name: "healthy"}

	s := newTestScheduler(t, locks, now, failing, healthy)
	s.RunOnce(t.Context())

	assert.Equal(t, 1, healthy.runs)
	assert.NotContains(t, locks.keys, "jobs:failing:2025-03-14")

	s.RunOnce(t.Context())
	assert.Equal(t, 2, failing.runs)
	assert.Equal(t, 1, healthy.runs)
}

func TestStart_StopsOnCancel(t *testing.T) {
	s := newTestScheduler(t, newMemoryLocks(), time.Now(), &countingJob{name: "noop"})
	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("log"), 0o644))
}

func TestLogCleanup(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 14, 0, 5, 0, 0, time.Local)

	old := logger.FileName(now.AddDate(0, 0, -20))
	edge := logger.FileName(now.AddDate(0, 0, -14))
	fresh := logger.FileName(now.AddDate(0, 0, -3))
	today := logger.FileName(now)
	for _, name := range []string{old, edge, fresh, today, "notes.txt", "app-garbage.log"} {
		touch(t, dir, name)
	}

	job := NewLogCleanupJob(dir, 14, zap.NewNop())
	removed, err := job.Cleanup(now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var left []string
	for _, e := range entries {
		left = append(left, e.Name())
	}
	assert.ElementsMatch(t, []string{edge, fresh, today, "notes.txt", "app-garbage.log"}, left)
}

func TestLogCleanup_MissingDir(t *testing.T) {
	job := NewLogCleanupJob(filepath.Join(t.TempDir(), "absent"), 14, zap.NewNop())
	assert.Error(t, job.Run(t.Context(), time.Now()))
}

type fakeCompleter struct {
	before time.Time
	err    error
}

func (f *fakeCompleter) CompleteStale(_ context.Context, before time.Time) (int64, error) {
	f.before = before
	return 3, f.err
}

func TestStaleHaulingJob(t *testing.T) {
	repo := &fakeCompleter{}
	now := time.Date(2025, 3, 14, 0, 5, 30, 0, time.Local)

	require.NoError(t, NewStaleHaulingJob(repo, zap.NewNop()).Run(t.Context(), now))
	assert.True(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.Local).Equal(repo.before))

	repo.err = errors.New("db down")
	assert.ErrorIs(t, NewStaleHaulingJob(repo, zap.NewNop()).Run(t.Context(), now), repo.err)
}
