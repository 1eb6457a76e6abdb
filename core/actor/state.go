package actor

import "context"

type (
	StateOp[T any] func(*T)

	// State is a goroutine-owned value. Every read and write runs on the
	// owning goroutine, in submission order, so callers never lock.
	State[T any] struct {
		data    *T
		tasks   chan func(*T)
		stopped chan struct{}
	}
)

// NewState starts the owning goroutine. It exits when ctx is done.
func NewState[T any](ctx context.Context, data *T) *State[T] {
	s := &State[T]{
		data:    data,
		tasks:   make(chan func(*T), 1),
		stopped: make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// Process applies ops in order and waits for them to complete. It returns
// ErrActorStopped, without having applied anything, once the owner is gone.
func (s *State[T]) Process(ops ...StateOp[T]) error {
	done := make(chan struct{})
	task := func(st *T) {
		for _, op := range ops {
			op(st)
		}
		close(done)
	}

	select {
	case <-s.stopped:
		return ErrActorStopped
	case s.tasks <- task:
	}

	select {
	case <-done:
		return nil
	case <-s.stopped:
		// the owner may have run the task right before exiting
		select {
		case <-done:
			return nil
		default:
			return ErrActorStopped
		}
	}
}

// Read runs op on the owning goroutine and returns its result.
func Read[T any, R any](s *State[T], op func(*T) R) (out R, err error) {
	err = s.Process(func(st *T) { out = op(st) })
	return out, err
}

func (s *State[T]) run(ctx context.Context) {
	defer close(s.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.tasks:
			t(s.data)
		}
	}
}
