// Package store persists daily usage counters and alert history and tells
// subscribers when either changes.
package store

import (
	"context"
	"errors"
	"time"

	"liyu1981.xyz/aquapure-service/pkg/datekey"
	"liyu1981.xyz/aquapure-service/pkg/models"
)

var ErrNoNotifier = errors.New("store has no change notifier")

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks liyu1981.xyz/aquapure-service/pkg/store UsageStore,HistoryStore,Notifier

// UsageQuery selects a user's daily records. Empty From/To leave that side
// of the range open; bounds are inclusive and compared lexicographically.
type UsageQuery struct {
	UserID string
	From   datekey.Key
	To     datekey.Key
}

type UsageStore interface {
	// Upsert overwrites the day's total.
	Upsert(ctx context.Context, userID string, date datekey.Key, liters float64, updatedAt time.Time) error
	// Increment atomically adds delta to the day's total and returns the new record.
	Increment(ctx context.Context, userID string, date datekey.Key, delta float64, updatedAt time.Time) (models.DailyUsage, error)
	// Get returns nil without error when the day has no record.
	Get(ctx context.Context, userID string, date datekey.Key) (*models.DailyUsage, error)
	QueryRange(ctx context.Context, userID string, from, to datekey.Key) ([]models.DailyUsage, error)
	QueryAll(ctx context.Context, userID string) ([]models.DailyUsage, error)
	Subscribe(ctx context.Context, q UsageQuery, onChange func([]models.DailyUsage)) (func(), error)
}

type HistoryStore interface {
	Append(ctx context.Context, userID string, entry models.AlertHistory) (models.AlertHistory, error)
	// List returns the user's alerts, newest first.
	List(ctx context.Context, userID string) ([]models.AlertHistory, error)
	Subscribe(ctx context.Context, userID string, onChange func([]models.AlertHistory)) (func(), error)
}

type ChangeKind string

const (
	ChangeKindUsage   ChangeKind = "usage"
	ChangeKindHistory ChangeKind = "history"
)

// Change announces a committed write for a user.
type Change struct {
	Kind   ChangeKind `json:"kind"`
	UserID string     `json:"user_id"`
	Date   string     `json:"date,omitempty"`
}

type Notifier interface {
	Publish(ctx context.Context, change Change) error
	// Listen registers fn for the user's changes and returns its cancel func.
	Listen(userID string, fn func(Change)) func()
	Close() error
}
