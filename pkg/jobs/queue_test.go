package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var handled int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&handled, 1)
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{Type: "noop"}))
	}
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&handled) == 5 }, time.Second, 5*time.Millisecond)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "flaky"}))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) == 3 }, time.Second, 5*time.Millisecond)
}

func TestEnqueueBeforeStartFails(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{Type: "noop"}))
}

func TestEverySchedulesJobs(t *testing.T) {
	seen := make(chan Job, 8)
	q := NewQueue("sched", func(ctx context.Context, job Job) error {
		seen <- job
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Every(ctx, 5*time.Millisecond, "sweep")
		close(done)
	}()

	select {
	case job := <-seen:
		assert.Equal(t, "sweep", job.Type)
		assert.NotEmpty(t, job.ID)
	case <-time.After(time.Second):
		t.Fatal("scheduled job not handled")
	}
	cancel()
	<-done
}
