package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBroker_Subscribe(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx)

	broker.Publish(RebuildCompleted, "hello")

	select {
	case event := <-ch:
		require.Equal(t, "hello", event.Payload)
		require.Equal(t, RebuildCompleted, event.Type)
		require.False(t, event.Timestamp.IsZero())
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "timeout waiting for event")
	}
}

func TestBroker_TypeFilter(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rebuilds := broker.Subscribe(ctx, RebuildCompleted, RebuildFailed)
	all := broker.Subscribe(ctx)

	broker.Publish(LogEntry, 1)
	broker.Publish(RebuildCompleted, 2)

	select {
	case event := <-rebuilds:
		require.Equal(t, 2, event.Payload, "filtered subscriber must skip log entries")
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "timeout waiting for rebuild event")
	}

	for _, want := range []int{1, 2} {
		select {
		case event := <-all:
			require.Equal(t, want, event.Payload)
		case <-time.After(100 * time.Millisecond):
			require.Fail(t, "timeout waiting for event", "want %d", want)
		}
	}
}

func TestBroker_MultipleSubscribers(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx := context.Background()

	ch1 := broker.Subscribe(ctx)
	ch2 := broker.Subscribe(ctx)
	ch3 := broker.Subscribe(ctx)

	require.Equal(t, 3, broker.SubscriberCount())

	broker.Publish(RebuildStarted, 42)

	for i, ch := range []<-chan Event[int]{ch1, ch2, ch3} {
		select {
		case event := <-ch:
			require.Equal(t, 42, event.Payload, "subscriber %d", i)
		case <-time.After(100 * time.Millisecond):
			require.Fail(t, "timeout waiting for event", "subscriber %d", i)
		}
	}
}

func TestBroker_ContextCancellation(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	require.Equal(t, 1, broker.SubscriberCount())

	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok, "channel should be closed after cancel")
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "timeout waiting for channel close")
	}
	require.Eventually(t, func() bool { return broker.SubscriberCount() == 0 },
		100*time.Millisecond, 5*time.Millisecond)
}

func TestBroker_NonBlocking(t *testing.T) {
	broker := NewBrokerWithBuffer[int](1)
	defer broker.Close()

	ch := broker.Subscribe(context.Background())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			broker.Publish(LogEntry, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "publish blocked on a full subscriber")
	}

	event := <-ch
	require.Equal(t, 0, event.Payload, "first event kept, rest dropped")
}

func TestBroker_CloseIdempotent(t *testing.T) {
	broker := NewBroker[string]()
	ch := broker.Subscribe(context.Background())

	broker.Close()
	broker.Close()

	_, ok := <-ch
	require.False(t, ok)
	require.Equal(t, 0, broker.SubscriberCount())

	closed := broker.Subscribe(context.Background())
	_, ok = <-closed
	require.False(t, ok, "subscribe after close returns a closed channel")

	require.NotPanics(t, func() { broker.Publish(LogEntry, "ignored") })
}

func TestListenCmd_ReceivesEvent(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := ListenCmd(ctx, broker.Subscribe(ctx))
	broker.Publish(RebuildCompleted, "v2")

	msg := cmd()
	event, ok := msg.(Event[string])
	require.True(t, ok)
	require.Equal(t, "v2", event.Payload)
}

func TestListenCmd_ContextCancelled(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cmd := ListenCmd(ctx, broker.Subscribe(context.Background()))
	cancel()

	require.Nil(t, cmd())
}
