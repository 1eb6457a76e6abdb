package actor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPromise_resolve_once(t *testing.T) {
	p := NewPromise[string]()
	require.False(t, p.Settled())

	require.True(t, p.Resolve("a"))
	require.False(t, p.Resolve("b"))
	require.False(t, p.Fail(errors.New("late")))
	require.True(t, p.Settled())

	v, err := p.Await(t.Context())
	require.NoError(t, err)
	require.Equal(t, "a", v)
}

func TestPromise_fail(t *testing.T) {
	p := NewPromise[int]()
	p.Fail(ErrReplyDropped)
	_, err := p.Await(t.Context())
	require.ErrorIs(t, err, ErrReplyDropped)
}

func TestPromise_dropped_receiver(t *testing.T) {
	p := NewPromise[int]()
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := p.Await(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, p.Dropped())

	// resolving after the caller left must neither block nor panic
	require.False(t, p.Resolve(1))
}

func TestBroadcast_fan_out(t *testing.T) {
	b := NewBroadcast[int](t.Context())
	defer b.Close()

	s1 := b.Subscribe(4)
	s2 := b.Subscribe(4)
	require.Equal(t, 2, b.Subscribers())

	require.Equal(t, 2, b.Publish(1))
	require.Equal(t, 2, b.Publish(2))

	for _, s := range []*Subscription[int]{s1, s2} {
		require.Equal(t, 1, <-s.C())
		require.Equal(t, 2, <-s.C())
	}
}

func TestBroadcast_slow_subscriber_drops(t *testing.T) {
	b := NewBroadcast[int](t.Context())
	defer b.Close()

	slow := b.Subscribe(1)
	fast := b.Subscribe(8)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 5 {
			b.Publish(i)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	require.Equal(t, uint64(4), slow.Dropped())
	require.Equal(t, uint64(0), fast.Dropped())
	require.Equal(t, uint64(4), b.Dropped())
	require.Equal(t, 0, <-slow.C())
}

func TestBroadcast_close(t *testing.T) {
	b := NewBroadcast[string](t.Context())
	s := b.Subscribe(1)

	b.Close()
	b.Close()
	require.True(t, b.Closed())

	_, ok := <-s.C()
	require.False(t, ok)

	require.Equal(t, 0, b.Publish("late"))

	late := b.Subscribe(1)
	_, ok = <-late.C()
	require.False(t, ok)
}

func TestBroadcast_unsubscribe(t *testing.T) {
	b := NewBroadcast[int](t.Context())
	defer b.Close()

	s := b.Subscribe(1)
	s.Unsubscribe()
	s.Unsubscribe()

	_, ok := <-s.C()
	require.False(t, ok)
	require.Equal(t, 0, b.Subscribers())
	require.Equal(t, 0, b.Publish(1))
}

func TestBroadcast_concurrent(t *testing.T) {
	b := NewBroadcast[int](t.Context())
	sub := b.Subscribe(1000)

	var wg sync.WaitGroup
	for w := range 10 {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := range 50 {
				b.Publish(w*100 + i)
			}
		}(w)
	}
	wg.Wait()
	b.Close()

	n := 0
	for range sub.C() {
		n++
	}
	require.Equal(t, 500, n)
}
