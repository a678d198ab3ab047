package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"subscription_reminder_bot/internal/app"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu       sync.Mutex
	calls    []time.Time
	deadline bool
	err      error
}

func (f *fakeRunner) RunScheduledScan(ctx context.Context, now time.Time) (app.ScanResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	_, f.deadline = ctx.Deadline()
	return app.ScanResult{Evaluated: 1}, f.err
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestRunOnceUsesConfiguredLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	runner := &fakeRunner{}
	s := NewReminderScheduler(runner, quietLogger(), "@every 1h", time.Minute, loc)
	s.now = func() time.Time { return time.Date(2024, time.March, 3, 20, 0, 0, 0, time.UTC) }

	s.RunOnce()

	require.Len(t, runner.calls, 1)
	assert.Equal(t, loc, runner.calls[0].Location())
	assert.Equal(t, 4, runner.calls[0].Day())
	assert.True(t, runner.deadline)
}

func TestRunOnceSurvivesScanError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("store down")}
	s := NewReminderScheduler(runner, quietLogger(), "@every 1h", time.Minute, nil)

	assert.NotPanics(t, s.RunOnce)
	assert.Equal(t, 1, runner.callCount())
}

func TestStartRunsCatchUpScan(t *testing.T) {
	runner := &fakeRunner{}
	s := NewReminderScheduler(runner, quietLogger(), "@every 1h", time.Minute, time.UTC)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return runner.callCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	s := NewReminderScheduler(&fakeRunner{}, quietLogger(), "not a cron spec", time.Minute, time.UTC)
	assert.Error(t, s.Start())
}
