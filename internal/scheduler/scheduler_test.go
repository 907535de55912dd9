package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-bulletin/internal/bulletin"
)

type countingRunner struct {
	calls    int32
	deadline atomic.Bool
	err      error
}

func (r *countingRunner) Run(ctx context.Context) (bulletin.Result, error) {
	atomic.AddInt32(&r.calls, 1)
	_, ok := ctx.Deadline()
	r.deadline.Store(ok)
	return bulletin.Result{}, r.err
}

func TestStartRejectsBadCron(t *testing.T) {
	s := New(&countingRunner{}, "not a cron", time.UTC, 0)
	assert.Error(t, s.Start())
}

func TestStartWithoutRunner(t *testing.T) {
	s := New(nil, "", nil, 0)
	require.NoError(t, s.Start())
	s.Stop()
}

func TestEvery(t *testing.T) {
	s := New(nil, "", time.UTC, 0)
	assert.Error(t, s.Every(0, "purge", func() {}))

	var runs int32
	require.NoError(t, s.Every(100*time.Millisecond, "purge", func() { atomic.AddInt32(&runs, 1) }))
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) > 0 }, 3*time.Second, 20*time.Millisecond)
}

func TestDefaults(t *testing.T) {
	s := New(&countingRunner{}, "", nil, 0)
	assert.Equal(t, DefaultCron, s.cron)
	assert.Equal(t, DefaultRunTimeout, s.timeout)
}

func TestRunOnceUsesTimeout(t *testing.T) {
	r := &countingRunner{err: errors.New("boom")}
	s := New(r, "", time.UTC, time.Second)

	s.runOnce()

	assert.EqualValues(t, 1, atomic.LoadInt32(&r.calls))
	assert.True(t, r.deadline.Load())
}

func TestStartAndStop(t *testing.T) {
	r := &countingRunner{}
	s := New(r, "* * * * *", time.UTC, time.Second)
	require.NoError(t, s.Start())
	s.Stop()
}
