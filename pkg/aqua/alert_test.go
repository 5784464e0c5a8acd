package aqua

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zapcore"

	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/models"
	"liyu1981.xyz/aquapure-service/pkg/notify"
	_ "liyu1981.xyz/aquapure-service/pkg/testing"
)

func TestCheckSnapshot(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, aquaObj, _, _, mockDispatcher := GetMockAquaWithMemorySqliteDialector(t, false, false, true)
	defer ctrl.Finish()

	clock := newTestClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	aquaObj.Clock = clock.Now

	ctx := context.Background()
	userID := uuid.NewString()
	unsafe := models.SensorSnapshot{PH: 9.2, Turbidity: 3.0}

	mockDispatcher.
		EXPECT().
		Schedule(gomock.Any(), gomock.Eq(ContaminationTitle), gomock.Eq("Water is Unsafe! pH: 9.2 | Turbidity: 3.0 NTU")).
		DoAndReturn(func(ctx context.Context, title, body string) error {
			assert.Equal(t, userID, notify.UserFrom(ctx))
			return nil
		}).
		Times(2)

	evaluation, fired, err := aquaObj.Alert.CheckSnapshot(ctx, userID, unsafe)
	require.NoError(t, err)
	assert.False(t, evaluation.Safe)
	assert.True(t, fired)

	// inside the cooldown
	clock.Advance(30 * time.Minute)
	_, fired, err = aquaObj.Alert.CheckSnapshot(ctx, userID, unsafe)
	require.NoError(t, err)
	assert.False(t, fired)

	// safe and placeholder readings never fire
	clock.Advance(2 * time.Hour)
	_, fired, _ = aquaObj.Alert.CheckSnapshot(ctx, userID, models.SensorSnapshot{PH: 7, Turbidity: 1})
	assert.False(t, fired)
	_, fired, _ = aquaObj.Alert.CheckSnapshot(ctx, userID, models.SensorSnapshot{})
	assert.False(t, fired)

	_, fired, err = aquaObj.Alert.CheckSnapshot(ctx, userID, unsafe)
	require.NoError(t, err)
	assert.True(t, fired)

	alerts, err := aquaObj.Alert.ListAlerts(ctx, userID)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, models.AlertTypeAlert, alerts[0].Type)
	assert.Equal(t, "Water is Unsafe! pH: 9.2 | Turbidity: 3.0 NTU", alerts[0].Message)
	assert.Equal(t, clock.Now(), aquaObj.Gate().LastAlertTime(userID))
}

func TestFire_NotificationFailureStillWritesHistory(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, aquaObj, _, _, mockDispatcher := GetMockAquaWithMemorySqliteDialector(t, false, false, true)
	defer ctrl.Finish()

	ctx := context.Background()
	userID := uuid.NewString()
	boom := errors.New("push service down")
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mockDispatcher.EXPECT().Schedule(gomock.Any(), ContaminationTitle, "bad water").Return(boom).Times(1)

	err := aquaObj.Alert.Fire(ctx, userID, "bad water", now)
	assert.ErrorIs(t, err, ErrNotificationDispatch)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrHistoryWrite)
	assert.Equal(t, now, aquaObj.Gate().LastAlertTime(userID))

	alerts, err := aquaObj.Alert.ListAlerts(ctx, userID)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "bad water", alerts[0].Message)
}

func TestFire_HistoryFailureStillNotifies(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, aquaObj, _, mockHistoryStore, mockDispatcher := GetMockAquaWithMemorySqliteDialector(t, false, true, true)
	defer ctrl.Finish()

	ctx := context.Background()
	userID := uuid.NewString()
	boom := errors.New("disk full")

	mockDispatcher.EXPECT().Schedule(gomock.Any(), ContaminationTitle, "bad water").Return(nil).Times(1)
	mockHistoryStore.
		EXPECT().
		Append(gomock.Any(), userID, models.AlertHistory{Message: "bad water", Type: models.AlertTypeAlert}).
		Return(models.AlertHistory{}, boom).
		Times(1)

	err := aquaObj.Alert.Fire(ctx, userID, "bad water", time.Now())
	assert.ErrorIs(t, err, ErrHistoryWrite)
	assert.NotErrorIs(t, err, ErrNotificationDispatch)
}

func TestFire_BothFail(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, aquaObj, _, mockHistoryStore, mockDispatcher := GetMockAquaWithMemorySqliteDialector(t, false, true, true)
	defer ctrl.Finish()

	mockDispatcher.EXPECT().Schedule(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("a")).Times(1)
	mockHistoryStore.EXPECT().Append(gomock.Any(), gomock.Any(), gomock.Any()).Return(models.AlertHistory{}, errors.New("b")).Times(1)

	err := aquaObj.Alert.Fire(context.Background(), uuid.NewString(), "x", time.Now())
	assert.ErrorIs(t, err, ErrNotificationDispatch)
	assert.ErrorIs(t, err, ErrHistoryWrite)
}

func TestCheckSnapshot_WithLog(t *testing.T) {
	var buf = &bytes.Buffer{}
	common.SetTestCaptureLogger(buf, zapcore.InfoLevel)

	ctrl, aquaObj, _, _, _ := GetMockAquaWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	userID := uuid.NewString()
	_, fired, err := aquaObj.Alert.CheckSnapshot(context.Background(), userID, models.SensorSnapshot{PH: 5.0, Turbidity: 8.0})
	require.NoError(t, err)
	require.True(t, fired)

	logs := ParseLogs(buf)

	{
		found := false
		for _, log := range logs {
			lobj := log.(map[string]any)
			if lobj["category"] == "alert" &&
				lobj["logger"] == "aqua_core" &&
				lobj["msg"] == "Unsafe water detected" &&
				lobj["user_id"] == userID &&
				lobj["ph"] == 5.0 {
				found = true
			}
		}
		assert.True(t, found)
	}

	{
		found := false
		for _, log := range logs {
			lobj := log.(map[string]any)
			if lobj["category"] == "alert" &&
				lobj["logger"] == "aqua_core" &&
				lobj["msg"] == "Alert saved" &&
				lobj["alert"].(map[string]any)["user_id"] == userID &&
				lobj["alert"].(map[string]any)["type"] == "alert" &&
				lobj["alert"].(map[string]any)["message"] == "Water is Unsafe! pH: 5.0 | Turbidity: 8.0 NTU" {
				found = true
			}
		}
		assert.True(t, found)
	}

	{
		found := false
		for _, log := range logs {
			lobj := log.(map[string]any)
			if lobj["logger"] == "notify" &&
				lobj["msg"] == "Notification" &&
				lobj["title"] == ContaminationTitle {
				found = true
			}
		}
		assert.True(t, found)
	}
}

func TestSubscribeAlerts(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, aquaObj, _, _, _ := GetMockAquaWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	ctx := context.Background()
	userID := uuid.NewString()

	updates := make(chan []models.AlertHistory, 8)
	unsubscribe, err := aquaObj.Alert.SubscribeAlerts(ctx, userID, func(alerts []models.AlertHistory) {
		updates <- alerts
	})
	require.NoError(t, err)
	defer unsubscribe()

	select {
	case initial := <-updates:
		assert.Empty(t, initial)
	case <-time.After(time.Second):
		t.Fatal("no initial delivery")
	}

	require.NoError(t, aquaObj.Alert.Fire(ctx, userID, "first", time.Now()))

	assert.Eventually(t, func() bool {
		select {
		case alerts := <-updates:
			return len(alerts) == 1 && alerts[0].Message == "first"
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
