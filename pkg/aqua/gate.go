package aqua

import (
	"sync"
	"time"

	"liyu1981.xyz/aquapure-service/pkg/models"
)

// ShouldFire is the alert decision: the reading is unsafe, it is not the
// all-zero placeholder, and at least cooldown has passed since the last alert.
func ShouldFire(evaluation Evaluation, snapshot models.SensorSnapshot, lastAlertTime, now time.Time, cooldown time.Duration) bool {
	if evaluation.Safe {
		return false
	}
	if snapshot.IsDegenerate() {
		return false
	}
	if now.Sub(lastAlertTime) < cooldown {
		return false
	}
	return true
}

// AlertGate keeps the last alert time per user.
type AlertGate struct {
	mu       sync.Mutex
	last     map[string]time.Time
	cooldown time.Duration
}

func NewAlertGate(cooldown time.Duration) *AlertGate {
	return &AlertGate{
		last:     make(map[string]time.Time),
		cooldown: cooldown,
	}
}

func (g *AlertGate) Cooldown() time.Duration {
	return g.cooldown
}

// LastAlertTime is the zero instant until the user's first alert.
func (g *AlertGate) LastAlertTime(userID string) time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last[userID]
}

func (g *AlertGate) ShouldFire(userID string, evaluation Evaluation, snapshot models.SensorSnapshot, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ShouldFire(evaluation, snapshot, g.last[userID], now, g.cooldown)
}

// TryFire records now as the last alert time when ShouldFire holds, in one
// step, so concurrent readings cannot both pass the gate.
func (g *AlertGate) TryFire(userID string, evaluation Evaluation, snapshot models.SensorSnapshot, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !ShouldFire(evaluation, snapshot, g.last[userID], now, g.cooldown) {
		return false
	}
	g.last[userID] = now
	return true
}

func (g *AlertGate) markFired(userID string, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last[userID] = now
}
