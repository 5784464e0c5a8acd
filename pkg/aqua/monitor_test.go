package aqua

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/feed"
	"liyu1981.xyz/aquapure-service/pkg/models"
	_ "liyu1981.xyz/aquapure-service/pkg/testing"
)

func startMonitor(t *testing.T, aquaObj *Aqua, f *feed.ChanFeed, userID string) (*Monitor, context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	monitor := NewMonitor(aquaObj, userID)
	done := make(chan error, 1)
	go func() {
		done <- monitor.Run(ctx, f)
	}()

	require.Eventually(t, func() bool { return f.ListenerCount(userID) == 1 }, time.Second, 5*time.Millisecond)
	return monitor, cancel, done
}

func TestMonitor_FiresOnUnsafeReading(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, aquaObj, _, _, _ := GetMockAquaWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	f := feed.NewChanFeed()
	userID := uuid.NewString()
	monitor, cancel, done := startMonitor(t, aquaObj, f, userID)

	_, _, ok := monitor.Latest()
	assert.False(t, ok)

	f.Publish(userID, models.SensorSnapshot{PH: 7.1, Turbidity: 0.4})
	snapshot, evaluation, ok := monitor.Latest()
	require.True(t, ok)
	assert.Equal(t, 7.1, snapshot.PH)
	assert.True(t, evaluation.Safe)

	f.Publish(userID, models.SensorSnapshot{PH: 3.2, Turbidity: 0.4})
	f.Publish(userID, models.SensorSnapshot{PH: 3.3, Turbidity: 0.4})

	_, evaluation, _ = monitor.Latest()
	assert.False(t, evaluation.Safe)

	alerts, err := aquaObj.Alert.ListAlerts(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Water is Unsafe! pH: 3.2 | Turbidity: 0.4 NTU", alerts[0].Message)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
	assert.Eventually(t, func() bool { return f.ListenerCount(userID) == 0 }, time.Second, 5*time.Millisecond)
}

func TestMonitor_SurvivesSideEffectFailures(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, aquaObj, _, mockHistoryStore, mockDispatcher := GetMockAquaWithMemorySqliteDialector(t, false, true, true)
	defer ctrl.Finish()

	clock := newTestClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	aquaObj.Clock = clock.Now

	mockDispatcher.EXPECT().Schedule(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("offline")).Times(2)
	mockHistoryStore.EXPECT().Append(gomock.Any(), gomock.Any(), gomock.Any()).Return(models.AlertHistory{}, errors.New("locked")).Times(2)

	f := feed.NewChanFeed()
	userID := uuid.NewString()
	monitor, cancel, _ := startMonitor(t, aquaObj, f, userID)
	defer cancel()

	f.Publish(userID, models.SensorSnapshot{PH: 11, Turbidity: 1})
	clock.Advance(time.Hour)
	f.Publish(userID, models.SensorSnapshot{PH: 12, Turbidity: 1})

	snapshot, _, ok := monitor.Latest()
	require.True(t, ok)
	assert.Equal(t, 12.0, snapshot.PH)
}

func TestMonitor_ReplaysLatest(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, aquaObj, _, _, _ := GetMockAquaWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	f := feed.NewChanFeed()
	userID := uuid.NewString()
	f.Publish(userID, models.SensorSnapshot{PH: 6.8, Turbidity: 2})

	monitor, cancel, _ := startMonitor(t, aquaObj, f, userID)
	defer cancel()

	assert.Eventually(t, func() bool {
		_, evaluation, ok := monitor.Latest()
		return ok && evaluation.Safe
	}, time.Second, 5*time.Millisecond)
}
