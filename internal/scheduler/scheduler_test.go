package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/prophet/pkg/logger"
)

func TestScheduler_AddRemove(t *testing.T) {
	s := New(logger.NewNop())

	job := FuncJob{JobName: "scan", Spec: Every(time.Hour), Fn: func(ctx context.Context) error { return nil }}
	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(job), "duplicate job")
	assert.Equal(t, []string{"scan"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("scan"))
	assert.Error(t, s.RemoveJob("scan"))
	assert.Empty(t, s.GetAllJobs())

	bad := FuncJob{JobName: "bad", Spec: "not a schedule", Fn: job.Fn}
	assert.Error(t, s.AddJob(bad))
}

func TestScheduler_RunNowRecordsHistory(t *testing.T) {
	s := New(logger.NewNop())

	calls := 0
	require.NoError(t, s.AddJob(FuncJob{
		JobName: "scan",
		Spec:    Every(time.Hour),
		Fn: func(ctx context.Context) error {
			calls++
			if calls == 2 {
				return errors.New("collector down")
			}
			return nil
		},
	}))

	res, err := s.RunNow("scan")
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = s.RunNow("scan")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "collector down", res.Error)

	stats := s.GetJobStats()["scan"]
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
	assert.NotNil(t, stats.LastFailure)

	_, err = s.RunNow("missing")
	assert.Error(t, err)
}

func TestScheduler_Retries(t *testing.T) {
	s := New(logger.NewNop(), WithRetries(2, time.Millisecond))

	var calls int32
	require.NoError(t, s.AddJob(FuncJob{
		JobName: "flaky",
		Spec:    Every(time.Hour),
		Fn: func(ctx context.Context) error {
			if atomic.AddInt32(&calls, 1) < 3 {
				return errors.New("transient")
			}
			return nil
		},
	}))

	res, err := s.RunNow("flaky")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	s := New(logger.NewNop())

	started := make(chan struct{})
	finished := make(chan error, 1)
	require.NoError(t, s.AddJob(FuncJob{
		JobName: "long",
		Spec:    Every(time.Hour),
		Fn: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
	}))
	s.Start()

	go func() {
		res, _ := s.RunNow("long")
		if !res.Success {
			finished <- errors.New(res.Error)
			return
		}
		finished <- nil
	}()

	<-started
	s.Stop()

	select {
	case err := <-finished:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "context canceled")
	case <-time.After(2 * time.Second):
		t.Fatal("job did not observe stop")
	}
	assert.Error(t, s.Context().Err())
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 105; i++ {
		h.AddResult(JobResult{Success: i%5 != 0})
	}

	assert.Len(t, h.Results, 100)
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.Len(t, h.GetFailedResults(), 20)
	assert.InDelta(t, 0.8, h.GetSuccessRate(), 1e-9)
}
