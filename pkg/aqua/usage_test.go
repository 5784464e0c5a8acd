package aqua

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zapcore"

	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/datekey"
	"liyu1981.xyz/aquapure-service/pkg/models"
	_ "liyu1981.xyz/aquapure-service/pkg/testing"
)

func TestLogDelta(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, aquaObj, _, _, _ := GetMockAquaWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	ctx := context.Background()
	userID := uuid.NewString()
	at := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	saved, err := aquaObj.Usage.LogDelta(ctx, userID, 2.0, at)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", saved.Date)
	assert.Equal(t, 2.0, saved.Liters)

	saved, err = aquaObj.Usage.LogDelta(ctx, userID, 3.5, at.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 5.5, saved.Liters)

	record, err := aquaObj.UsageStore.Get(ctx, userID, "2024-03-05")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 5.5, record.Liters)
}

func TestLogDelta_LocalDay(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, aquaObj, _, _, _ := GetMockAquaWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()
	aquaObj.Settings.Location = time.FixedZone("AEST", 10*60*60)

	// 00:30 on the 7th in UTC+10 is still the 6th in UTC
	late := time.Date(2024, 3, 7, 0, 30, 0, 0, aquaObj.Settings.Location)
	saved, err := aquaObj.Usage.LogDelta(context.Background(), uuid.NewString(), 1, late.UTC())
	require.NoError(t, err)
	assert.Equal(t, "2024-03-07", saved.Date)
}

func TestLogDelta_DefaultsToNow(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, aquaObj, _, _, _ := GetMockAquaWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()
	clock := newTestClock(time.Date(2024, 8, 15, 22, 0, 0, 0, time.UTC))
	aquaObj.Clock = clock.Now

	userID := uuid.NewString()
	saved, err := aquaObj.Usage.LogDelta(context.Background(), userID, 0.75, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "2024-08-15", saved.Date)
	assert.Equal(t, 0.75, aquaObj.Usage.TodayUsage(context.Background(), userID))
}

func TestLogDelta_Validation(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, aquaObj, _, _, _ := GetMockAquaWithMemorySqliteDialector(t, true, false, false)
	defer ctrl.Finish()

	ctx := context.Background()
	userID := uuid.NewString()

	_, err := aquaObj.Usage.LogDelta(ctx, "", 1, time.Now())
	assert.ErrorIs(t, err, ErrMissingUser)

	for _, liters := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err = aquaObj.Usage.LogDelta(ctx, userID, liters, time.Now())
		assert.ErrorIs(t, err, ErrInvalidDelta)
	}

	_, err = aquaObj.Usage.LogDelta(ctx, userID, 1, time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, datekey.ErrInvalidDate)
}

func TestLogDelta_StoreUnavailable(t *testing.T) {
	var buf = &bytes.Buffer{}
	common.SetTestCaptureLogger(buf, zapcore.InfoLevel)

	ctrl, aquaObj, mockUsageStore, _, _ := GetMockAquaWithMemorySqliteDialector(t, true, false, false)
	defer ctrl.Finish()

	userID := uuid.NewString()
	boom := errors.New("database is locked")

	mockUsageStore.
		EXPECT().
		Increment(gomock.Any(), gomock.Eq(userID), gomock.Eq(datekey.Key("2024-03-05")), gomock.Eq(1.25), gomock.Any()).
		Return(models.DailyUsage{}, boom).
		Times(testSettings.StoreRetry.Attempts)

	_, err := aquaObj.Usage.LogDelta(context.Background(), userID, 1.25, time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, boom)

	logs := ParseLogs(buf)
	found := false
	for _, log := range logs {
		lobj := log.(map[string]any)
		if lobj["category"] == "usage" &&
			lobj["logger"] == "aqua_core" &&
			lobj["msg"] == "Failed to log usage" &&
			lobj["user_id"] == userID &&
			lobj["date"] == "2024-03-05" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLogDelta_RetriesThenSucceeds(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, aquaObj, mockUsageStore, _, _ := GetMockAquaWithMemorySqliteDialector(t, true, false, false)
	defer ctrl.Finish()

	userID := uuid.NewString()
	gomock.InOrder(
		mockUsageStore.EXPECT().
			Increment(gomock.Any(), userID, gomock.Any(), 2.0, gomock.Any()).
			Return(models.DailyUsage{}, errors.New("timeout")),
		mockUsageStore.EXPECT().
			Increment(gomock.Any(), userID, gomock.Any(), 2.0, gomock.Any()).
			Return(models.DailyUsage{UserID: userID, Date: "2024-03-05", Liters: 2}, nil),
	)

	saved, err := aquaObj.Usage.LogDelta(context.Background(), userID, 2.0, time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2.0, saved.Liters)
}

func TestReadAPIs(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, aquaObj, _, _, _ := GetMockAquaWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	ctx := context.Background()
	userID := uuid.NewString()
	for _, entry := range []struct {
		at     time.Time
		liters float64
	}{
		{time.Date(2023, 12, 31, 20, 0, 0, 0, time.UTC), 4},
		{time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), 1},
		{time.Date(2024, 3, 6, 8, 0, 0, 0, time.UTC), 2},
		{time.Date(2024, 3, 6, 18, 0, 0, 0, time.UTC), 3},
	} {
		_, err := aquaObj.Usage.LogDelta(ctx, userID, entry.liters, entry.at)
		require.NoError(t, err)
	}

	anchor := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)

	weekly := aquaObj.Usage.Window(ctx, userID, anchor, 7, DirectionBackward)
	require.Len(t, weekly, 7)
	assert.Equal(t, 1.0, weekly[1].Value)
	assert.Equal(t, 5.0, weekly[6].Value)

	months := aquaObj.Usage.Months(ctx, userID, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), 4)
	assert.Equal(t, []float64{4, 0, 0, 6}, values(months))

	years := aquaObj.Usage.Years(ctx, userID)
	assert.Equal(t, []string{"2023", "2024"}, keys(years))
	assert.Equal(t, []float64{4, 6}, values(years))

	summary := aquaObj.Usage.Summary(ctx, userID)
	assert.Equal(t, 10.0, summary.TotalLiters)
	assert.Equal(t, "30", summary.FormatMoneySaved())
	assert.InDelta(t, 99.5, summary.FilterHealth, 1e-9)
}

func TestReadAPIs_DegradeOnStoreFailure(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, aquaObj, mockUsageStore, _, _ := GetMockAquaWithMemorySqliteDialector(t, true, false, false)
	defer ctrl.Finish()

	ctx := context.Background()
	userID := uuid.NewString()
	boom := errors.New("no connection")

	mockUsageStore.EXPECT().QueryRange(gomock.Any(), userID, gomock.Any(), gomock.Any()).Return(nil, boom).AnyTimes()
	mockUsageStore.EXPECT().QueryAll(gomock.Any(), userID).Return(nil, boom).AnyTimes()
	mockUsageStore.EXPECT().Get(gomock.Any(), userID, gomock.Any()).Return(nil, boom).AnyTimes()

	weekly := aquaObj.Usage.Window(ctx, userID, time.Time{}, 7, DirectionBackward)
	require.Len(t, weekly, 7)
	assert.Equal(t, 0.0, models.SumBuckets(weekly))

	months := aquaObj.Usage.Months(ctx, userID, time.Time{}, 12)
	require.Len(t, months, 12)
	assert.Equal(t, 0.0, models.SumBuckets(months))

	assert.Empty(t, aquaObj.Usage.Years(ctx, userID))

	summary := aquaObj.Usage.Summary(ctx, userID)
	assert.Equal(t, 0.0, summary.TotalLiters)
	assert.Equal(t, 100.0, summary.FilterHealth)

	assert.Equal(t, 0.0, aquaObj.Usage.TodayUsage(ctx, userID))
}

func TestReadAPIs_AnchorOutOfRange(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, aquaObj, mockUsageStore, _, _ := GetMockAquaWithMemorySqliteDialector(t, true, false, false)
	defer ctrl.Finish()

	mockUsageStore.EXPECT().QueryRange(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	ctx := context.Background()
	userID := uuid.NewString()

	weekly := aquaObj.Usage.Window(ctx, userID, time.Date(1, 1, 3, 0, 0, 0, 0, time.UTC), 7, DirectionBackward)
	assert.Len(t, weekly, 7)
	assert.Zero(t, models.SumBuckets(weekly))

	months := aquaObj.Usage.Months(ctx, userID, time.Date(9999, 11, 1, 0, 0, 0, 0, time.UTC), 3)
	assert.Len(t, months, 3)
	assert.Zero(t, models.SumBuckets(months))
}

func TestTodayUsage_Absent(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, aquaObj, _, _, _ := GetMockAquaWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	assert.Equal(t, 0.0, aquaObj.Usage.TodayUsage(context.Background(), uuid.NewString()))
}
