package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRunsAfterDelay(t *testing.T) {
	start := time.Now()
	task := Go(context.Background(), 20*time.Millisecond, func(context.Context) (int, error) {
		return 42, nil
	})
	v, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestTaskPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	task := Go(context.Background(), 0, func(context.Context) (string, error) { return "", boom })
	_, err := task.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestTaskCancelSkipsWork(t *testing.T) {
	var ran atomic.Bool
	task := Go(context.Background(), time.Hour, func(context.Context) (struct{}, error) {
		ran.Store(true)
		return struct{}{}, nil
	})
	task.Cancel()

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("cancelled task did not finish")
	}
	_, err := task.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran.Load())
}

func TestTaskWaitContextCancelsTask(t *testing.T) {
	var ran atomic.Bool
	task := Go(context.Background(), time.Hour, func(context.Context) (int, error) {
		ran.Store(true)
		return 1, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := task.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	<-task.Done()
	assert.False(t, ran.Load())
}

func TestTaskWaitReturnsOnlyAfterRunningWorkStops(t *testing.T) {
	var finished atomic.Bool
	started := make(chan struct{})
	task := Go(context.Background(), 0, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		finished.Store(true)
		return 0, ctx.Err()
	})
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := task.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, finished.Load(), "Wait returned while the task was still running")
}

func TestTaskWaitReportsWorkThatCompleted(t *testing.T) {
	started := make(chan struct{})
	task := Go(context.Background(), 0, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		// already applied before the cancellation was seen
		return 7, nil
	})
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v, err := task.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
