package aqua

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/models"
	"liyu1981.xyz/aquapure-service/pkg/notify"
)

func alertLogger() *zap.Logger {
	return common.GetLoggerWith(
		common.LoggerNameAquaCore,
		zap.String(common.LoggerFieldAquaCategory, common.LoggerCategoryAquaAlert),
	)
}

func (a *Aqua) checkSnapshot(ctx context.Context, userID string, snapshot models.SensorSnapshot) (Evaluation, bool, error) {
	a.Metrics.SensorReading()

	evaluation := Evaluate(snapshot)
	now := a.now()
	if !a.gate.TryFire(userID, evaluation, snapshot, now) {
		return evaluation, false, nil
	}

	alertLogger().Info("Unsafe water detected",
		zap.String("user_id", userID),
		zap.Float64("ph", snapshot.PH),
		zap.Float64("turbidity", snapshot.Turbidity),
	)
	return evaluation, true, a.fireEffects(ctx, userID, AlertMessage(snapshot))
}

// fire records now as the user's last alert time and runs both side
// effects, regardless of the gate.
func (a *Aqua) fire(ctx context.Context, userID string, message string, now time.Time) error {
	a.gate.markFired(userID, now)
	return a.fireEffects(ctx, userID, message)
}

// fireEffects sends the notification and appends the history entry. The
// two are independent: a failure of one never skips the other.
func (a *Aqua) fireEffects(ctx context.Context, userID string, message string) error {
	logger := alertLogger()
	a.Metrics.AlertFired()

	var errs []error

	if err := a.Dispatcher.Schedule(notify.WithUser(ctx, userID), ContaminationTitle, message); err != nil {
		a.Metrics.AlertFailure("notification")
		logger.Error("Failed to dispatch notification", zap.String("user_id", userID), zap.Error(err))
		errs = append(errs, fmt.Errorf("%w: %w", ErrNotificationDispatch, err))
	}

	historyCtx := ctx
	if a.Settings.StoreRetry.Timeout > 0 {
		var cancel context.CancelFunc
		historyCtx, cancel = context.WithTimeout(ctx, a.Settings.StoreRetry.Timeout)
		defer cancel()
	}
	saved, err := a.HistoryStore.Append(historyCtx, userID, models.AlertHistory{
		Message: message,
		Type:    models.AlertTypeAlert,
	})
	if err != nil {
		a.Metrics.AlertFailure("history")
		logger.Error("Failed to store alert history", zap.String("user_id", userID), zap.Error(err))
		errs = append(errs, fmt.Errorf("%w: %w", ErrHistoryWrite, err))
	} else {
		logger.Info("Alert saved", zap.Reflect("alert", saved))
	}

	return errors.Join(errs...)
}

func (a *Aqua) listAlerts(ctx context.Context, userID string) ([]models.AlertHistory, error) {
	alerts, err := a.HistoryStore.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return alerts, nil
}

type IAlertImpl struct {
	aqua *Aqua
}

func (ia *IAlertImpl) CheckSnapshot(ctx context.Context, userID string, snapshot models.SensorSnapshot) (Evaluation, bool, error) {
	return ia.aqua.checkSnapshot(ctx, userID, snapshot)
}

func (ia *IAlertImpl) Fire(ctx context.Context, userID string, message string, now time.Time) error {
	return ia.aqua.fire(ctx, userID, message, now)
}

func (ia *IAlertImpl) ListAlerts(ctx context.Context, userID string) ([]models.AlertHistory, error) {
	return ia.aqua.listAlerts(ctx, userID)
}

func (ia *IAlertImpl) SubscribeAlerts(ctx context.Context, userID string, onChange func([]models.AlertHistory)) (func(), error) {
	return ia.aqua.HistoryStore.Subscribe(ctx, userID, onChange)
}

func (a *Aqua) GetIAlert() IAlert {
	return &IAlertImpl{aqua: a}
}
