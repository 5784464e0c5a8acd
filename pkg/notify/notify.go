// Package notify delivers user-facing notifications.
package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/aquapure-service/pkg/common"
)

//go:generate mockgen -destination=mocks/mock_notify.go -package=mocks liyu1981.xyz/aquapure-service/pkg/notify Dispatcher

// Dispatcher shows a notification immediately.
type Dispatcher interface {
	Schedule(ctx context.Context, title, body string) error
}

// Notification is the payload written by dispatchers that serialize.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type userKey struct{}

// WithUser tags ctx with the user a notification is for.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

func UserFrom(ctx context.Context) string {
	userID, _ := ctx.Value(userKey{}).(string)
	return userID
}

// LogDispatcher writes notifications to the service log.
type LogDispatcher struct {
	logger *zap.Logger
}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{logger: common.GetLoggerWith(common.LoggerNameNotify)}
}

func (d *LogDispatcher) Schedule(ctx context.Context, title, body string) error {
	d.logger.Warn("Notification",
		zap.String("user_id", UserFrom(ctx)),
		zap.String("title", title),
		zap.String("body", body),
	)
	return nil
}

// MultiDispatcher fans a notification out to every dispatcher and joins
// their errors.
type MultiDispatcher []Dispatcher

func (m MultiDispatcher) Schedule(ctx context.Context, title, body string) error {
	var errs []error
	for _, d := range m {
		if err := d.Schedule(ctx, title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
