package aqua

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/feed"
	"liyu1981.xyz/aquapure-service/pkg/models"
)

// Monitor watches one user's sensor feed and raises alerts.
type Monitor struct {
	aqua   *Aqua
	userID string

	mu         sync.RWMutex
	latest     models.SensorSnapshot
	evaluation Evaluation
	seen       bool
}

func NewMonitor(a *Aqua, userID string) *Monitor {
	return &Monitor{aqua: a, userID: userID}
}

// Run blocks until ctx is done. Errors in the alert path are logged and
// never end the loop.
func (m *Monitor) Run(ctx context.Context, f feed.Feed) error {
	logger := common.GetLoggerWith(
		common.LoggerNameAquaCore,
		zap.String(common.LoggerFieldAquaCategory, common.LoggerCategoryAquaSensor),
		zap.String("user_id", m.userID),
	)

	unsubscribe, err := f.Subscribe(ctx, m.userID, func(snapshot models.SensorSnapshot) {
		m.handle(ctx, logger, snapshot)
	})
	if err != nil {
		return fmt.Errorf("subscribing to sensor feed: %w", err)
	}
	defer unsubscribe()

	logger.Info("Sensor monitor started")
	<-ctx.Done()
	logger.Info("Sensor monitor stopped")
	return nil
}

func (m *Monitor) handle(ctx context.Context, logger *zap.Logger, snapshot models.SensorSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered from alert pipeline panic", zap.Any("panic", r))
		}
	}()

	evaluation, fired, err := m.aqua.Alert.CheckSnapshot(ctx, m.userID, snapshot)

	m.mu.Lock()
	m.latest = snapshot
	m.evaluation = evaluation
	m.seen = true
	m.mu.Unlock()

	if err != nil {
		logger.Error("Alert side effects failed", zap.Bool("fired", fired), zap.Error(err))
		return
	}
	if fired {
		logger.Info("Contamination alert fired", zap.String("status", evaluation.Status()))
	}
}

// Latest returns the last snapshot and its evaluation; ok is false until
// the first reading arrives.
func (m *Monitor) Latest() (models.SensorSnapshot, Evaluation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.evaluation, m.seen
}
