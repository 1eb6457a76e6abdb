package actor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_process(t *testing.T) {
	type data struct{ Value int }
	s := NewState(t.Context(), &data{Value: 42})
	inc := func(d *data) { d.Value++ }

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Process(inc))
		}()
	}
	wg.Wait()

	require.NoError(t, s.Process(inc, inc, inc))

	v, err := Read(s, func(d *data) int { return d.Value })
	require.NoError(t, err)
	require.Equal(t, 55, v)
}

func TestState_stopped(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	s := NewState(ctx, new(int))
	cancel()

	require.Eventually(t, func() bool {
		return s.Process(func(*int) {}) != nil
	}, time.Second, time.Millisecond)
	_, err := Read(s, func(v *int) int { return *v })
	require.ErrorIs(t, err, ErrActorStopped)
}
