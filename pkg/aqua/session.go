package aqua

import (
	"context"
	"sync"

	"liyu1981.xyz/aquapure-service/pkg/feed"
	"liyu1981.xyz/aquapure-service/pkg/models"
)

// SessionView is what the dashboard renders for one user.
type SessionView struct {
	Weekly      []models.AggregateBucket `json:"weekly"`
	Summary     models.Summary           `json:"summary"`
	TodayLiters float64                  `json:"today_liters"`
	Sensor      models.SensorSnapshot    `json:"sensor"`
	Evaluation  Evaluation               `json:"evaluation"`
	HasSensor   bool                     `json:"has_sensor"`
}

// Session owns one user's dashboard state and the subscriptions that keep
// it current.
type Session struct {
	userID string

	mu      sync.RWMutex
	view    SessionView
	pending map[WindowKind]bool
	ready   chan struct{}

	unsubscribes []func()
	closeOnce    sync.Once
}

// OpenSession subscribes to the weekly window, the summary, today's total
// and, when f is not nil, the user's sensor feed.
func (a *Aqua) OpenSession(ctx context.Context, userID string, f feed.Feed) (*Session, error) {
	s := &Session{
		userID:  userID,
		pending: map[WindowKind]bool{WindowWeekly: true, WindowSummary: true, WindowToday: true},
		ready:   make(chan struct{}),
	}
	s.view.Weekly = BuildRollingWindow(nil, a.now(), DefaultSpanDays, DirectionBackward)
	s.view.Summary = a.Summarize(nil)

	for _, kind := range []WindowKind{WindowWeekly, WindowSummary, WindowToday} {
		unsubscribe, err := a.Usage.Subscribe(ctx, userID, WindowSpec{Kind: kind}, s.apply)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.unsubscribes = append(s.unsubscribes, unsubscribe)
	}

	if f != nil {
		unsubscribe, err := f.Subscribe(ctx, userID, s.applySensor)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.unsubscribes = append(s.unsubscribes, unsubscribe)
	}

	return s, nil
}

func (s *Session) apply(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch u.Kind {
	case WindowWeekly:
		s.view.Weekly = u.Buckets
	case WindowSummary:
		if u.Summary != nil {
			s.view.Summary = *u.Summary
		}
	case WindowToday:
		s.view.TodayLiters = u.TodayLiters
	}

	if s.pending[u.Kind] {
		delete(s.pending, u.Kind)
		if len(s.pending) == 0 {
			close(s.ready)
		}
	}
}

// Ready is closed once the weekly window, the summary and today's total
// have each been loaded at least once.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

func (s *Session) applySensor(snapshot models.SensorSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Sensor = snapshot
	s.view.Evaluation = Evaluate(snapshot)
	s.view.HasSensor = true
}

func (s *Session) UserID() string {
	return s.userID
}

func (s *Session) View() SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := s.view
	view.Weekly = append([]models.AggregateBucket(nil), s.view.Weekly...)
	return view
}

// Close ends every subscription. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		for _, unsubscribe := range s.unsubscribes {
			unsubscribe()
		}
	})
}
