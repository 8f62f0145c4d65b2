package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolRunsAllSubmittedJobs(t *testing.T) {
	p := New(context.Background(), 2)
	var completed int32

	for i := 0; i < 10; i++ {
		p.Submit(func(ctx context.Context) {
			atomic.AddInt32(&completed, 1)
		})
	}
	p.Shutdown()

	require.Equal(t, int32(10), atomic.LoadInt32(&completed))
}

func TestPoolCancelSkipsRemainingJobs(t *testing.T) {
	p := New(context.Background(), 1)
	started := make(chan struct{})
	block := make(chan struct{})

	p.Submit(func(ctx context.Context) {
		close(started)
		<-block
	})
	<-started
	p.Cancel()
	close(block)

	var ran int32
	p.Submit(func(ctx context.Context) {
		atomic.AddInt32(&ran, 1)
	})

	p.Shutdown()
	require.Equal(t, int32(0), atomic.LoadInt32(&ran), "jobs submitted after Cancel must not run")
}

func TestPoolSurvivesPanickingJob(t *testing.T) {
	p := New(context.Background(), 1)
	p.Submit(func(ctx context.Context) {
		panic("boom")
	})

	var ran int32
	p.Submit(func(ctx context.Context) {
		atomic.AddInt32(&ran, 1)
	})

	p.Shutdown()
	require.Equal(t, int32(1), atomic.LoadInt32(&ran), "worker must keep running jobs after a panic")
}

func TestPoolShutdownTerminatesEveryWorker(t *testing.T) {
	p := New(context.Background(), 4)
	done := make(chan struct{})
	go func() {
		p.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not join all workers")
	}
}
