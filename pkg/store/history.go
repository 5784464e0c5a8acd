package store

import (
	"context"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/db"
	"liyu1981.xyz/aquapure-service/pkg/models"
)

type GormHistoryStore struct {
	Db       *db.DB
	Notifier Notifier
	Clock    func() time.Time
}

func NewGormHistoryStore(database *db.DB, notifier Notifier) *GormHistoryStore {
	if notifier == nil {
		notifier = NewLocalNotifier()
	}
	return &GormHistoryStore{Db: database, Notifier: notifier, Clock: time.Now}
}

// Append stores the entry with the store's own clock as CreatedAt.
func (s *GormHistoryStore) Append(ctx context.Context, userID string, entry models.AlertHistory) (models.AlertHistory, error) {
	alert := models.AlertHistory{
		UserID:    userID,
		Message:   entry.Message,
		Type:      entry.Type,
		CreatedAt: s.Clock(),
	}
	if alert.Type == "" {
		alert.Type = models.AlertTypeAlert
	}

	if err := s.Db.Conn.WithContext(ctx).Create(&alert).Error; err != nil {
		return models.AlertHistory{}, err
	}

	if s.Notifier != nil {
		if err := s.Notifier.Publish(ctx, Change{Kind: ChangeKindHistory, UserID: userID}); err != nil {
			common.GetLoggerWith(common.LoggerNameStore).
				Warn("Failed to publish history change", zap.String("user_id", userID), zap.Error(err))
		}
	}

	return alert, nil
}

func (s *GormHistoryStore) List(ctx context.Context, userID string) ([]models.AlertHistory, error) {
	var alerts []models.AlertHistory
	err := s.Db.Conn.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Order("id desc").
		Find(&alerts).Error
	return alerts, err
}

func (s *GormHistoryStore) Subscribe(ctx context.Context, userID string, onChange func([]models.AlertHistory)) (func(), error) {
	if s.Notifier == nil {
		return nil, ErrNoNotifier
	}

	logger := common.GetLoggerWith(
		common.LoggerNameStore,
		zap.String(common.LoggerFieldAquaCategory, common.LoggerCategoryAquaSubscription),
	)

	return startSubscription(ctx, s.Notifier, userID, ChangeKindHistory, func(ctx context.Context, deliver func() bool) {
		alerts, err := s.List(ctx, userID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Failed to refresh alert history subscription", zap.String("user_id", userID), zap.Error(err))
			alerts = nil
		}
		if deliver() {
			onChange(alerts)
		}
	}), nil
}
