// Package aqua aggregates daily water usage into dashboard windows and
// turns unsafe sensor readings into rate-limited contamination alerts.
package aqua

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/config"
	"liyu1981.xyz/aquapure-service/pkg/metrics"
	"liyu1981.xyz/aquapure-service/pkg/models"
	"liyu1981.xyz/aquapure-service/pkg/notify"
	"liyu1981.xyz/aquapure-service/pkg/store"
)

//go:generate mockgen -destination=mocks/mock_aqua.go -package=mocks liyu1981.xyz/aquapure-service/pkg/aqua IUsage,IAlert

type IUsage interface {
	LogDelta(ctx context.Context, userID string, liters float64, at time.Time) (models.DailyUsage, error)
	TodayUsage(ctx context.Context, userID string) float64
	Window(ctx context.Context, userID string, anchor time.Time, spanDays int, direction Direction) []models.AggregateBucket
	Months(ctx context.Context, userID string, anchor time.Time, monthCount int) []models.AggregateBucket
	Years(ctx context.Context, userID string) []models.AggregateBucket
	Summary(ctx context.Context, userID string) models.Summary
	Subscribe(ctx context.Context, userID string, spec WindowSpec, onUpdate func(Update)) (func(), error)
}

type IAlert interface {
	// CheckSnapshot evaluates a reading and fires an alert when the gate allows it.
	CheckSnapshot(ctx context.Context, userID string, snapshot models.SensorSnapshot) (Evaluation, bool, error)
	Fire(ctx context.Context, userID string, message string, now time.Time) error
	ListAlerts(ctx context.Context, userID string) ([]models.AlertHistory, error)
	SubscribeAlerts(ctx context.Context, userID string, onChange func([]models.AlertHistory)) (func(), error)
}

type Settings struct {
	UnitRate         decimal.Decimal
	FilterLifeLiters float64
	AlertCooldown    time.Duration
	Location         *time.Location
	StoreRetry       common.RetryPolicy
}

var DefaultSettings = Settings{
	UnitRate:         decimal.RequireFromString("3.00"),
	FilterLifeLiters: 2000,
	AlertCooldown:    time.Hour,
	Location:         time.Local,
	StoreRetry:       common.DefaultRetryPolicy,
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		UnitRate:         cfg.UnitRate,
		FilterLifeLiters: cfg.FilterLifeLiters,
		AlertCooldown:    cfg.AlertCooldown,
		Location:         cfg.Location,
		StoreRetry:       cfg.StoreRetry,
	}
}

type Aqua struct {
	UsageStore   store.UsageStore
	HistoryStore store.HistoryStore
	Dispatcher   notify.Dispatcher
	Metrics      *metrics.Metrics
	Settings     Settings
	Clock        func() time.Time
	// RollInterval is how often subscriptions that follow the clock check
	// for a new local day.
	RollInterval time.Duration

	Usage IUsage
	Alert IAlert

	gate *AlertGate
}

type ServiceOpts struct {
	Usage IUsage
	Alert IAlert
}

// New wires the core with its own IUsage and IAlert implementations.
func New(usageStore store.UsageStore, historyStore store.HistoryStore, dispatcher notify.Dispatcher, settings Settings) *Aqua {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	if settings.FilterLifeLiters <= 0 {
		settings.FilterLifeLiters = DefaultSettings.FilterLifeLiters
	}
	if dispatcher == nil {
		dispatcher = notify.NewLogDispatcher()
	}

	a := &Aqua{
		UsageStore:   usageStore,
		HistoryStore: historyStore,
		Dispatcher:   dispatcher,
		Settings:     settings,
		Clock:        time.Now,
		RollInterval: time.Minute,
		gate:         NewAlertGate(settings.AlertCooldown),
	}
	return a.WithServices(ServiceOpts{
		Usage: a.GetIUsage(),
		Alert: a.GetIAlert(),
	})
}

func (a *Aqua) WithServices(opts ServiceOpts) *Aqua {
	if opts.Usage != nil {
		a.Usage = opts.Usage
	}
	if opts.Alert != nil {
		a.Alert = opts.Alert
	}
	return a
}

func (a *Aqua) WithMetrics(m *metrics.Metrics) *Aqua {
	a.Metrics = m
	return a
}

// Gate exposes the alert cooldown state.
func (a *Aqua) Gate() *AlertGate {
	return a.gate
}

func (a *Aqua) rollInterval() time.Duration {
	if a.RollInterval <= 0 {
		return time.Minute
	}
	return a.RollInterval
}

// now is the service clock in the configured local time zone.
func (a *Aqua) now() time.Time {
	return a.Clock().In(a.Settings.Location)
}
