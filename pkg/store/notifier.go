package store

import (
	"context"
	"sync"
)

// LocalNotifier fans changes out to listeners in the same process.
// Listeners are called synchronously from Publish and must not block.
type LocalNotifier struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[string]map[uint64]func(Change)
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{
		listeners: make(map[string]map[uint64]func(Change)),
	}
}

func (n *LocalNotifier) Publish(ctx context.Context, change Change) error {
	n.mu.RLock()
	fns := make([]func(Change), 0, len(n.listeners[change.UserID]))
	for _, fn := range n.listeners[change.UserID] {
		fns = append(fns, fn)
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
	return nil
}

func (n *LocalNotifier) Listen(userID string, fn func(Change)) func() {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	if n.listeners[userID] == nil {
		n.listeners[userID] = make(map[uint64]func(Change))
	}
	n.listeners[userID][id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.listeners[userID], id)
			if len(n.listeners[userID]) == 0 {
				delete(n.listeners, userID)
			}
		})
	}
}

// ListenerCount is the number of live listeners for the user.
func (n *LocalNotifier) ListenerCount(userID string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners[userID])
}

func (n *LocalNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = make(map[string]map[uint64]func(Change))
	return nil
}
