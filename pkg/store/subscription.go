package store

import (
	"context"
	"sync"
	"sync/atomic"
)

// subscription owns one notifier listener and one delivery goroutine.
// Change signals are coalesced: a burst of writes causes at least one
// refresh that observes the latest committed state.
type subscription struct {
	signal     chan struct{}
	cancel     context.CancelFunc
	closed     atomic.Bool
	once       sync.Once
	stopListen func()
}

// startSubscription runs refresh once immediately and again after every
// change of the given kind for the user. deliver reports whether the
// subscription is still open and must be checked right before invoking the
// caller's callback.
func startSubscription(
	ctx context.Context,
	notifier Notifier,
	userID string,
	kind ChangeKind,
	refresh func(ctx context.Context, deliver func() bool),
) func() {
	subCtx, cancel := context.WithCancel(ctx)
	s := &subscription{
		signal: make(chan struct{}, 1),
		cancel: cancel,
	}

	s.stopListen = notifier.Listen(userID, func(change Change) {
		if change.Kind != kind {
			return
		}
		select {
		case s.signal <- struct{}{}:
		default:
		}
	})

	deliver := func() bool {
		return !s.closed.Load() && subCtx.Err() == nil
	}

	go func() {
		refresh(subCtx, deliver)
		for {
			select {
			case <-subCtx.Done():
				s.unsubscribe()
				return
			case <-s.signal:
				refresh(subCtx, deliver)
			}
		}
	}()

	return s.unsubscribe
}

func (s *subscription) unsubscribe() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.stopListen()
		s.cancel()
	})
}
