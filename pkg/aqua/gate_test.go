package aqua

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"liyu1981.xyz/aquapure-service/pkg/models"
)

func TestShouldFire(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	unsafe := models.SensorSnapshot{PH: 9.5, Turbidity: 2}

	cases := []struct {
		name     string
		snapshot models.SensorSnapshot
		last     time.Time
		want     bool
	}{
		{"first unsafe reading", unsafe, time.Time{}, true},
		{"safe reading", models.SensorSnapshot{PH: 7, Turbidity: 1}, time.Time{}, false},
		{"placeholder reading", models.SensorSnapshot{}, time.Time{}, false},
		{"within cooldown", unsafe, now.Add(-59 * time.Minute), false},
		{"exactly at cooldown", unsafe, now.Add(-time.Hour), true},
		{"after cooldown", unsafe, now.Add(-2 * time.Hour), true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ShouldFire(Evaluate(c.snapshot), c.snapshot, c.last, now, time.Hour)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestShouldFire_UnsafeWithOnlyTurbidity(t *testing.T) {
	// pH 0 alone is not the placeholder
	s := models.SensorSnapshot{PH: 0, Turbidity: 7}
	assert.True(t, ShouldFire(Evaluate(s), s, time.Time{}, time.Now(), time.Hour))
}

func TestAlertGate_TryFire(t *testing.T) {
	gate := NewAlertGate(time.Hour)
	userID := uuid.NewString()
	otherID := uuid.NewString()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	unsafe := models.SensorSnapshot{PH: 4, Turbidity: 9}

	assert.True(t, gate.LastAlertTime(userID).IsZero())
	assert.True(t, gate.TryFire(userID, Evaluate(unsafe), unsafe, now))
	assert.Equal(t, now, gate.LastAlertTime(userID))

	assert.False(t, gate.TryFire(userID, Evaluate(unsafe), unsafe, now.Add(30*time.Minute)))
	assert.Equal(t, now, gate.LastAlertTime(userID))

	// users are gated independently
	assert.True(t, gate.ShouldFire(otherID, Evaluate(unsafe), unsafe, now.Add(time.Minute)))

	assert.True(t, gate.TryFire(userID, Evaluate(unsafe), unsafe, now.Add(time.Hour)))
}

func TestAlertGate_TryFireConcurrent(t *testing.T) {
	gate := NewAlertGate(time.Hour)
	userID := uuid.NewString()
	now := time.Now()
	unsafe := models.SensorSnapshot{PH: 10, Turbidity: 1}

	var fired atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gate.TryFire(userID, Evaluate(unsafe), unsafe, now) {
				fired.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fired.Load())
}
