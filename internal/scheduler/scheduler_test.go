package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	appLog "calview/internal/log"
)

func TestMain(m *testing.M) {
	appLog.Use(zap.NewNop())
	goleak.VerifyTestMain(m)
}

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Refresh(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestNewRejectsInvalidSpec(t *testing.T) {
	_, err := New("every now and then", &countingJob{})
	assert.Error(t, err)
}

func TestRunNowReturnsJobError(t *testing.T) {
	boom := errors.New("boom")
	job := &countingJob{err: boom}
	s, err := New("*/15 * * * *", job)
	require.NoError(t, err)

	assert.ErrorIs(t, s.RunNow(context.Background()), boom)
	assert.EqualValues(t, 1, job.runs.Load())
}

func TestScheduledRunsAndStops(t *testing.T) {
	job := &countingJob{}
	s, err := New("@every 1s", job)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))

	require.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, s.Stop(stopCtx))
}
