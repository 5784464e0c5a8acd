// Package feed delivers live sensor snapshots per user.
package feed

import (
	"context"
	"sync"

	"liyu1981.xyz/aquapure-service/pkg/models"
)

// Feed pushes every new snapshot for a user. Each snapshot replaces the
// previous one.
type Feed interface {
	Subscribe(ctx context.Context, userID string, fn func(models.SensorSnapshot)) (func(), error)
}

// ChanFeed is an in-process feed. Publish calls listeners synchronously;
// a new subscriber first receives the user's latest snapshot, if any.
type ChanFeed struct {
	mu        sync.RWMutex
	nextID    uint64
	latest    map[string]models.SensorSnapshot
	listeners map[string]map[uint64]func(models.SensorSnapshot)
}

func NewChanFeed() *ChanFeed {
	return &ChanFeed{
		latest:    make(map[string]models.SensorSnapshot),
		listeners: make(map[string]map[uint64]func(models.SensorSnapshot)),
	}
}

func (f *ChanFeed) Publish(userID string, snapshot models.SensorSnapshot) {
	f.mu.Lock()
	f.latest[userID] = snapshot
	fns := make([]func(models.SensorSnapshot), 0, len(f.listeners[userID]))
	for _, fn := range f.listeners[userID] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

func (f *ChanFeed) Latest(userID string) (models.SensorSnapshot, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.latest[userID]
	return s, ok
}

func (f *ChanFeed) Subscribe(ctx context.Context, userID string, fn func(models.SensorSnapshot)) (func(), error) {
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	if f.listeners[userID] == nil {
		f.listeners[userID] = make(map[uint64]func(models.SensorSnapshot))
	}
	f.listeners[userID][id] = fn
	latest, ok := f.latest[userID]
	f.mu.Unlock()

	var once sync.Once
	stopped := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(stopped)
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.listeners[userID], id)
			if len(f.listeners[userID]) == 0 {
				delete(f.listeners, userID)
			}
		})
	}

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-stopped:
			}
		}()
	}

	if ok {
		fn(latest)
	}
	return cancel, nil
}

func (f *ChanFeed) ListenerCount(userID string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.listeners[userID])
}
