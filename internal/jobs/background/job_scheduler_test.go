package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls atomic.Int32
	grace atomic.Int64
	err   error
}

func (f *fakeSweeper) SweepOrphanedImages(_ context.Context, grace time.Duration) (int, error) {
	f.calls.Add(1)
	f.grace.Store(int64(grace))
	return 2, f.err
}

func TestNewJobSchedulerRegistersSweep(t *testing.T) {
	js, err := NewJobScheduler(&fakeSweeper{}, Config{SweepInterval: time.Hour, SweepGrace: time.Minute})
	require.NoError(t, err)
	defer js.Stop()

	status := js.GetJobStatus()
	assert.Equal(t, 1, status["total_jobs"])
	assert.Equal(t, []string{MediaSweepJob}, status["jobs"])
}

func TestNewJobSchedulerSweepDisabled(t *testing.T) {
	js, err := NewJobScheduler(&fakeSweeper{}, Config{})
	require.NoError(t, err)
	defer js.Stop()

	assert.Equal(t, 0, js.GetJobStatus()["total_jobs"])
	assert.Error(t, js.RunNow(MediaSweepJob))
}

func TestRunNowSweepsWithGrace(t *testing.T) {
	sweeper := &fakeSweeper{}
	js, err := NewJobScheduler(sweeper, Config{SweepInterval: time.Hour, SweepGrace: 90 * time.Second})
	require.NoError(t, err)
	js.Start()
	defer js.Stop()

	require.NoError(t, js.RunNow(MediaSweepJob))

	assert.Eventually(t, func() bool { return sweeper.calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(90*time.Second), sweeper.grace.Load())
}

func TestSweepMediaReturnsError(t *testing.T) {
	js := &JobScheduler{sweeper: &fakeSweeper{err: errors.New("bucket unreachable")}, cfg: Config{SweepGrace: time.Minute}}
	assert.EqualError(t, js.sweepMedia(), "bucket unreachable")
}

func TestAddAndRemoveJob(t *testing.T) {
	js, err := NewJobScheduler(nil, Config{})
	require.NoError(t, err)
	defer js.Stop()

	require.NoError(t, js.AddJob("noop", time.Hour, func() {}))
	assert.Error(t, js.AddJob("noop", time.Hour, func() {}))
	assert.Equal(t, 1, js.GetJobStatus()["total_jobs"])

	require.NoError(t, js.RemoveJob("noop"))
	assert.Equal(t, 0, js.GetJobStatus()["total_jobs"])
	assert.NoError(t, js.RemoveJob("missing"))
}
