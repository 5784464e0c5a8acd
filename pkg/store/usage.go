package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/datekey"
	"liyu1981.xyz/aquapure-service/pkg/db"
	"liyu1981.xyz/aquapure-service/pkg/models"
)

var userDateColumns = []clause.Column{{Name: "user_id"}, {Name: "date"}}

type GormUsageStore struct {
	Db       *db.DB
	Notifier Notifier
	Clock    func() time.Time
}

func NewGormUsageStore(database *db.DB, notifier Notifier) *GormUsageStore {
	if notifier == nil {
		notifier = NewLocalNotifier()
	}
	return &GormUsageStore{Db: database, Notifier: notifier, Clock: time.Now}
}

func (s *GormUsageStore) stamp(updatedAt time.Time) time.Time {
	if updatedAt.IsZero() {
		return s.Clock()
	}
	return updatedAt
}

func (s *GormUsageStore) Upsert(ctx context.Context, userID string, date datekey.Key, liters float64, updatedAt time.Time) error {
	record := models.DailyUsage{
		UserID:      userID,
		Date:        date.String(),
		Liters:      liters,
		LastUpdated: s.stamp(updatedAt),
	}

	err := s.Db.Conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   userDateColumns,
		DoUpdates: clause.AssignmentColumns([]string{"liters", "last_updated"}),
	}).Create(&record).Error
	if err != nil {
		return err
	}

	s.publish(ctx, userID, date)
	return nil
}

func (s *GormUsageStore) Increment(ctx context.Context, userID string, date datekey.Key, delta float64, updatedAt time.Time) (models.DailyUsage, error) {
	record := models.DailyUsage{
		UserID:      userID,
		Date:        date.String(),
		Liters:      delta,
		LastUpdated: s.stamp(updatedAt),
	}

	var saved models.DailyUsage
	err := s.Db.Conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: userDateColumns,
			DoUpdates: clause.Assignments(map[string]any{
				"liters":       gorm.Expr("liters + excluded.liters"),
				"last_updated": gorm.Expr("excluded.last_updated"),
			}),
		}).Create(&record).Error
		if err != nil {
			return err
		}
		return tx.Where("user_id = ? AND date = ?", userID, date.String()).First(&saved).Error
	})
	if err != nil {
		return models.DailyUsage{}, err
	}

	s.publish(ctx, userID, date)
	return saved, nil
}

func (s *GormUsageStore) Get(ctx context.Context, userID string, date datekey.Key) (*models.DailyUsage, error) {
	var record models.DailyUsage
	err := s.Db.Conn.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date.String()).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *GormUsageStore) QueryRange(ctx context.Context, userID string, from, to datekey.Key) ([]models.DailyUsage, error) {
	return s.query(ctx, UsageQuery{UserID: userID, From: from, To: to})
}

func (s *GormUsageStore) QueryAll(ctx context.Context, userID string) ([]models.DailyUsage, error) {
	return s.query(ctx, UsageQuery{UserID: userID})
}

func (s *GormUsageStore) query(ctx context.Context, q UsageQuery) ([]models.DailyUsage, error) {
	tx := s.Db.Conn.WithContext(ctx).Where("user_id = ?", q.UserID)
	if q.From != "" {
		tx = tx.Where("date >= ?", q.From.String())
	}
	if q.To != "" {
		tx = tx.Where("date <= ?", q.To.String())
	}

	var records []models.DailyUsage
	err := tx.Order("date asc").Find(&records).Error
	return records, err
}

// Subscribe delivers the query result now and after every usage change of
// the user. A failed refresh is logged and delivered as an empty result.
func (s *GormUsageStore) Subscribe(ctx context.Context, q UsageQuery, onChange func([]models.DailyUsage)) (func(), error) {
	if s.Notifier == nil {
		return nil, ErrNoNotifier
	}
	logger := common.GetLoggerWith(
		common.LoggerNameStore,
		zap.String(common.LoggerFieldAquaCategory, common.LoggerCategoryAquaSubscription),
	)

	return startSubscription(ctx, s.Notifier, q.UserID, ChangeKindUsage, func(ctx context.Context, deliver func() bool) {
		records, err := s.query(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Failed to refresh usage subscription", zap.String("user_id", q.UserID), zap.Error(err))
			records = nil
		}
		if deliver() {
			onChange(records)
		}
	}), nil
}

func (s *GormUsageStore) publish(ctx context.Context, userID string, date datekey.Key) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Publish(ctx, Change{Kind: ChangeKindUsage, UserID: userID, Date: date.String()}); err != nil {
		common.GetLoggerWith(common.LoggerNameStore).
			Warn("Failed to publish usage change", zap.String("user_id", userID), zap.Error(err))
	}
}
