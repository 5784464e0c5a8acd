package aqua

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/datekey"
	"liyu1981.xyz/aquapure-service/pkg/models"
)

func usageLogger() *zap.Logger {
	return common.GetLoggerWith(
		common.LoggerNameAquaCore,
		zap.String(common.LoggerFieldAquaCategory, common.LoggerCategoryAquaUsage),
	)
}

func validateDelta(userID string, liters float64) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingUser
	}
	if math.IsNaN(liters) || math.IsInf(liters, 0) || liters < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDelta, liters)
	}
	return nil
}

func (a *Aqua) logDelta(ctx context.Context, userID string, liters float64, at time.Time) (models.DailyUsage, error) {
	if err := validateDelta(userID, liters); err != nil {
		return models.DailyUsage{}, err
	}

	if at.IsZero() {
		at = a.now()
	}
	date, err := datekey.LocalDayKey(at.In(a.Settings.Location))
	if err != nil {
		return models.DailyUsage{}, err
	}

	logger := usageLogger()

	var saved models.DailyUsage
	err = common.Retry(ctx, a.Settings.StoreRetry, func(ctx context.Context) error {
		var err error
		saved, err = a.UsageStore.Increment(ctx, userID, date, liters, a.Clock())
		if err != nil {
			logger.Warn("Increment attempt failed", zap.String("user_id", userID), zap.Error(err))
		}
		return err
	})
	if err != nil {
		a.Metrics.StoreError("increment")
		logger.Error("Failed to log usage",
			zap.String("user_id", userID),
			zap.String("date", date.String()),
			zap.Float64("liters", liters),
			zap.Error(err),
		)
		return models.DailyUsage{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	a.Metrics.UsageLogged(liters)
	logger.Info("Usage logged",
		zap.String("user_id", userID),
		zap.String("date", saved.Date),
		zap.Float64("delta", liters),
		zap.Float64("liters", saved.Liters),
	)
	return saved, nil
}

// readRecords runs a store read with retry. Reads never fail the caller:
// after the last attempt the error is logged and no records are returned.
func (a *Aqua) readRecords(ctx context.Context, op string, userID string, read func(ctx context.Context) ([]models.DailyUsage, error)) []models.DailyUsage {
	var records []models.DailyUsage
	err := common.Retry(ctx, a.Settings.StoreRetry, func(ctx context.Context) error {
		var err error
		records, err = read(ctx)
		return err
	})
	if err != nil {
		a.Metrics.StoreError(op)
		usageLogger().Error("Usage read failed, showing empty data",
			zap.String("op", op),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil
	}
	return records
}

func (a *Aqua) todayUsage(ctx context.Context, userID string) float64 {
	today := datekey.MustLocalDayKey(a.now())

	var liters float64
	err := common.Retry(ctx, a.Settings.StoreRetry, func(ctx context.Context) error {
		record, err := a.UsageStore.Get(ctx, userID, today)
		if err != nil {
			return err
		}
		liters = 0
		if record != nil && checkRecord(*record) == nil {
			liters = record.Liters
		}
		return nil
	})
	if err != nil {
		a.Metrics.StoreError("get")
		usageLogger().Error("Failed to read today's usage", zap.String("user_id", userID), zap.Error(err))
		return 0
	}
	return liters
}

func (a *Aqua) window(ctx context.Context, userID string, anchor time.Time, spanDays int, direction Direction) []models.AggregateBucket {
	if spanDays <= 0 {
		return []models.AggregateBucket{}
	}
	anchor = a.anchor(anchor)
	from, to, err := windowKeys(anchor, spanDays, direction)
	if err != nil {
		usageLogger().Warn("Window out of range", zap.String("user_id", userID), zap.Error(err))
		return BuildRollingWindow(nil, anchor, spanDays, direction)
	}

	records := a.readRecords(ctx, "query_range", userID, func(ctx context.Context) ([]models.DailyUsage, error) {
		return a.UsageStore.QueryRange(ctx, userID, from, to)
	})
	return BuildRollingWindow(records, anchor, spanDays, direction)
}

func (a *Aqua) months(ctx context.Context, userID string, anchor time.Time, monthCount int) []models.AggregateBucket {
	if monthCount <= 0 {
		return []models.AggregateBucket{}
	}
	anchor = a.anchor(anchor)
	from, to, err := monthKeys(anchor, monthCount)
	if err != nil {
		usageLogger().Warn("Months out of range", zap.String("user_id", userID), zap.Error(err))
		return BuildRollingMonths(nil, anchor, monthCount)
	}

	records := a.readRecords(ctx, "query_range", userID, func(ctx context.Context) ([]models.DailyUsage, error) {
		return a.UsageStore.QueryRange(ctx, userID, from, to)
	})
	return BuildRollingMonths(records, anchor, monthCount)
}

func (a *Aqua) years(ctx context.Context, userID string) []models.AggregateBucket {
	records := a.readRecords(ctx, "query_all", userID, func(ctx context.Context) ([]models.DailyUsage, error) {
		return a.UsageStore.QueryAll(ctx, userID)
	})
	return BuildYearlyTotals(records)
}

func (a *Aqua) summary(ctx context.Context, userID string) models.Summary {
	records := a.readRecords(ctx, "query_all", userID, func(ctx context.Context) ([]models.DailyUsage, error) {
		return a.UsageStore.QueryAll(ctx, userID)
	})
	return a.Summarize(records)
}

// Summarize applies the configured unit rate and filter life.
func (a *Aqua) Summarize(records []models.DailyUsage) models.Summary {
	return Summarize(records, a.Settings.UnitRate, a.Settings.FilterLifeLiters)
}

// anchor moves t into the service time zone, defaulting to now.
func (a *Aqua) anchor(t time.Time) time.Time {
	if t.IsZero() {
		return a.now()
	}
	return t.In(a.Settings.Location)
}

type IUsageImpl struct {
	aqua *Aqua
}

func (iu *IUsageImpl) LogDelta(ctx context.Context, userID string, liters float64, at time.Time) (models.DailyUsage, error) {
	return iu.aqua.logDelta(ctx, userID, liters, at)
}

func (iu *IUsageImpl) TodayUsage(ctx context.Context, userID string) float64 {
	return iu.aqua.todayUsage(ctx, userID)
}

func (iu *IUsageImpl) Window(ctx context.Context, userID string, anchor time.Time, spanDays int, direction Direction) []models.AggregateBucket {
	return iu.aqua.window(ctx, userID, anchor, spanDays, direction)
}

func (iu *IUsageImpl) Months(ctx context.Context, userID string, anchor time.Time, monthCount int) []models.AggregateBucket {
	return iu.aqua.months(ctx, userID, anchor, monthCount)
}

func (iu *IUsageImpl) Years(ctx context.Context, userID string) []models.AggregateBucket {
	return iu.aqua.years(ctx, userID)
}

func (iu *IUsageImpl) Summary(ctx context.Context, userID string) models.Summary {
	return iu.aqua.summary(ctx, userID)
}

func (iu *IUsageImpl) Subscribe(ctx context.Context, userID string, spec WindowSpec, onUpdate func(Update)) (func(), error) {
	return iu.aqua.subscribe(ctx, userID, spec, onUpdate)
}

func (a *Aqua) GetIUsage() IUsage {
	return &IUsageImpl{aqua: a}
}
