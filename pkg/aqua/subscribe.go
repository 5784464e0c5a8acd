package aqua

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/datekey"
	"liyu1981.xyz/aquapure-service/pkg/models"
	"liyu1981.xyz/aquapure-service/pkg/store"
)

type WindowKind string

const (
	WindowWeekly  WindowKind = "weekly"
	WindowMonthly WindowKind = "monthly"
	WindowYearly  WindowKind = "yearly"
	WindowSummary WindowKind = "summary"
	WindowToday   WindowKind = "today"
)

func ParseWindowKind(s string) (WindowKind, error) {
	switch k := WindowKind(strings.ToLower(strings.TrimSpace(s))); k {
	case WindowWeekly, WindowMonthly, WindowYearly, WindowSummary, WindowToday:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWindow, s)
}

// WindowSpec selects what a subscription recomputes. Zero SpanDays,
// MonthCount and Anchor take the defaults: 7 days backward, 12 months, now.
type WindowSpec struct {
	Kind       WindowKind
	SpanDays   int
	Direction  Direction
	MonthCount int
	Anchor     time.Time
}

// Update carries the recomputed view. Buckets is set for weekly, monthly
// and yearly, Summary for summary, TodayLiters for today.
type Update struct {
	Kind        WindowKind               `json:"kind"`
	Buckets     []models.AggregateBucket `json:"buckets,omitempty"`
	Summary     *models.Summary          `json:"summary,omitempty"`
	TodayLiters float64                  `json:"today_liters"`
}

func (s WindowSpec) withDefaults() WindowSpec {
	if s.Kind == WindowWeekly {
		if s.SpanDays == 0 {
			s.SpanDays = DefaultSpanDays
		}
		if s.Direction == "" {
			s.Direction = DirectionBackward
		}
	}
	if s.Kind == WindowMonthly && s.MonthCount == 0 {
		s.MonthCount = DefaultMonthCount
	}
	return s
}

// query is the store filter for the window as of its anchor.
func (s WindowSpec) query(userID string) (store.UsageQuery, error) {
	q := store.UsageQuery{UserID: userID}
	var err error
	switch s.Kind {
	case WindowWeekly:
		if s.SpanDays > 0 {
			q.From, q.To, err = windowKeys(s.Anchor, s.SpanDays, s.Direction)
		}
	case WindowMonthly:
		if s.MonthCount > 0 {
			q.From, q.To, err = monthKeys(s.Anchor, s.MonthCount)
		}
	case WindowToday:
		q.From, err = datekey.LocalDayKey(s.Anchor)
		q.To = q.From
	}
	return q, err
}

// followsClock reports whether the window moves with the local day.
func (s WindowSpec) followsClock() bool {
	return s.Kind == WindowWeekly || s.Kind == WindowMonthly || s.Kind == WindowToday
}

func (a *Aqua) buildUpdate(spec WindowSpec, records []models.DailyUsage) Update {
	u := Update{Kind: spec.Kind}
	switch spec.Kind {
	case WindowWeekly:
		u.Buckets = BuildRollingWindow(records, spec.Anchor, spec.SpanDays, spec.Direction)
	case WindowMonthly:
		u.Buckets = BuildRollingMonths(records, spec.Anchor, spec.MonthCount)
	case WindowYearly:
		u.Buckets = BuildYearlyTotals(records)
	case WindowSummary:
		summary := a.Summarize(records)
		u.Summary = &summary
	case WindowToday:
		u.TodayLiters = models.SumBuckets(BuildRollingWindow(records, spec.Anchor, 1, DirectionBackward))
	}
	return u
}

// subscribe keeps onUpdate current with the store. A store refresh failure
// arrives as an empty record set, so the update degrades to zeros. Without
// an explicit anchor the window follows the local day.
func (a *Aqua) subscribe(ctx context.Context, userID string, spec WindowSpec, onUpdate func(Update)) (func(), error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	if _, err := ParseWindowKind(string(spec.Kind)); err != nil {
		return nil, err
	}

	spec = spec.withDefaults()
	follow := spec.Anchor.IsZero() && spec.followsClock()
	spec.Anchor = a.anchor(spec.Anchor)

	unsubscribe, err := a.subscribeAt(ctx, userID, spec, onUpdate)
	if err != nil {
		return nil, err
	}

	subscriptionLogger().Debug("Subscribed", zap.String("user_id", userID), zap.String("kind", string(spec.Kind)))

	if !follow {
		return unsubscribe, nil
	}
	return a.rollDaily(ctx, userID, spec, onUpdate, unsubscribe), nil
}

func subscriptionLogger() *zap.Logger {
	return common.GetLoggerWith(
		common.LoggerNameAquaCore,
		zap.String(common.LoggerFieldAquaCategory, common.LoggerCategoryAquaSubscription),
	)
}

func (a *Aqua) subscribeAt(ctx context.Context, userID string, spec WindowSpec, onUpdate func(Update)) (func(), error) {
	q, err := spec.query(userID)
	if err != nil {
		return nil, err
	}

	unsubscribe, err := a.UsageStore.Subscribe(ctx, q, func(records []models.DailyUsage) {
		onUpdate(a.buildUpdate(spec, records))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return unsubscribe, nil
}

// rollingSubscription swaps its store subscription for one anchored on the
// new day whenever the local day changes.
type rollingSubscription struct {
	mu          sync.Mutex
	unsubscribe func()
	closed      bool

	stop      chan struct{}
	closeOnce sync.Once
}

func (r *rollingSubscription) close() {
	r.closeOnce.Do(func() {
		close(r.stop)

		r.mu.Lock()
		r.closed = true
		unsubscribe := r.unsubscribe
		r.mu.Unlock()

		unsubscribe()
	})
}

// swap ends the current store subscription before starting the next one,
// so a delivery for the old day never follows one for the new day.
func (r *rollingSubscription) swap(next func() (func(), error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}

	r.unsubscribe()
	r.unsubscribe = func() {}

	unsubscribe, err := next()
	if err != nil {
		return err
	}
	r.unsubscribe = unsubscribe
	return nil
}

func (a *Aqua) rollDaily(ctx context.Context, userID string, spec WindowSpec, onUpdate func(Update), unsubscribe func()) func() {
	r := &rollingSubscription{unsubscribe: unsubscribe, stop: make(chan struct{})}
	day, _ := datekey.LocalDayKey(spec.Anchor)

	go func() {
		ticker := time.NewTicker(a.rollInterval())
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				r.close()
				return
			case <-r.stop:
				return
			case <-ticker.C:
			}

			now := a.now()
			today, err := datekey.LocalDayKey(now)
			if err != nil || today == day {
				continue
			}

			next := spec
			next.Anchor = now
			if err := r.swap(func() (func(), error) {
				return a.subscribeAt(ctx, userID, next, onUpdate)
			}); err != nil {
				// retried on the next tick
				subscriptionLogger().Warn("Failed to roll window",
					zap.String("user_id", userID), zap.String("kind", string(spec.Kind)), zap.Error(err))
				continue
			}
			day = today
			subscriptionLogger().Debug("Rolled window",
				zap.String("user_id", userID), zap.String("kind", string(spec.Kind)), zap.String("day", today.String()))
		}
	}()

	return r.close
}
