package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_RunsJobs(t *testing.T) {
	p := New(Config{})
	defer p.Close()
	require.Equal(t, DefaultWorkers, p.Workers())

	var wg sync.WaitGroup
	var count atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(context.Background(), "count", func(context.Context) {
			defer wg.Done()
			count.Add(1)
		}))
	}
	wg.Wait()
	require.Equal(t, int32(10), count.Load())
}

func TestPool_BoundsConcurrency(t *testing.T) {
	p := New(Config{Workers: 2})

	var inflight, peak atomic.Int32
	for i := 0; i < 8; i++ {
		require.NoError(t, p.Submit(context.Background(), "slow", func(context.Context) {
			n := inflight.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inflight.Add(-1)
		}))
	}
	p.Close()

	require.LessOrEqual(t, peak.Load(), int32(2))
	require.Equal(t, int64(8), p.Completed())
}

func TestPool_CloseDrainsQueue(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 16})

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Submit(context.Background(), "queued", func(ctx context.Context) {
			assert.NoError(t, ctx.Err(), "ctx stays live while draining")
			ran.Add(1)
		}))
	}
	p.Close()

	require.Equal(t, int32(5), ran.Load())
}

func TestPool_SubmitAfterClose(t *testing.T) {
	p := New(Config{})
	p.Close()
	p.Close()

	err := p.Submit(context.Background(), "late", func(context.Context) {})
	require.ErrorIs(t, err, ErrPoolClosed)
}

func TestPool_SubmitHonorsContextWhenFull(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 1})
	defer p.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), "block", func(context.Context) {
		close(started)
		<-release
	}))
	<-started
	require.NoError(t, p.Submit(context.Background(), "fill", func(context.Context) {}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, "overflow", func(context.Context) {})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestPool_PanicRecovered(t *testing.T) {
	p := New(Config{Workers: 1})

	require.NoError(t, p.Submit(context.Background(), "boom", func(context.Context) {
		panic("boom")
	}))
	done := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), "after", func(context.Context) {
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive panic")
	}
	p.Close()
	require.Equal(t, int64(2), p.Completed())
}
