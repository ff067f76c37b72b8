// AngelaMos | 2026
// scheduler_test.go

package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/streamflix/internal/config"
	"github.com/carterperez-dev/streamflix/internal/subscription"
)

type fakeSweeper struct {
	calls atomic.Int32
	err   error
}

func (f *fakeSweeper) SweepStatuses(context.Context) (map[subscription.Status]int64, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return map[subscription.Status]int64{
		subscription.StatusActive:   2,
		subscription.StatusInactive: 1,
	}, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, nil)), buf
}

func TestRunSweepLogsCounts(t *testing.T) {
	logger, buf := newLogger()
	sweeper := &fakeSweeper{}
	s := New(config.SchedulerConfig{Enabled: true, SubscriptionSweep: "@hourly"}, sweeper, logger)

	s.RunSweep(context.Background())

	assert.Equal(t, int32(1), sweeper.calls.Load())
	assert.Contains(t, buf.String(), "activated=2")
	assert.Contains(t, buf.String(), "expired=1")
}

func TestRunSweepLogsFailure(t *testing.T) {
	logger, buf := newLogger()
	sweeper := &fakeSweeper{err: errors.New("db down")}
	s := New(config.SchedulerConfig{Enabled: true, SubscriptionSweep: "@hourly"}, sweeper, logger)

	s.RunSweep(context.Background())

	assert.Contains(t, buf.String(), "subscription sweep failed")
	assert.Contains(t, buf.String(), "db down")
}

func TestStartDisabledSchedulesNothing(t *testing.T) {
	logger, _ := newLogger()
	s := New(config.SchedulerConfig{Enabled: false, SubscriptionSweep: "not a cron expression"}, &fakeSweeper{}, logger)

	require.NoError(t, s.Start(context.Background()))
	assert.Empty(t, s.cron.Entries())
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	logger, _ := newLogger()
	s := New(config.SchedulerConfig{Enabled: true, SubscriptionSweep: "every tuesday"}, &fakeSweeper{}, logger)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every tuesday")
}

func TestStartRunsSweepOnSchedule(t *testing.T) {
	logger, _ := newLogger()
	sweeper := &fakeSweeper{}
	s := New(config.SchedulerConfig{Enabled: true, SubscriptionSweep: "@every 1s"}, sweeper, logger)

	require.NoError(t, s.Start(context.Background()))
	require.Len(t, s.cron.Entries(), 1)

	require.Eventually(t, func() bool {
		return sweeper.calls.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Stop(ctx)
	s.Stop(ctx)
}
