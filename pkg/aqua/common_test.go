package aqua

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/db"
	notifymocks "liyu1981.xyz/aquapure-service/pkg/notify/mocks"
	"liyu1981.xyz/aquapure-service/pkg/store"
	storemocks "liyu1981.xyz/aquapure-service/pkg/store/mocks"
)

var testSettings = Settings{
	UnitRate:         DefaultSettings.UnitRate,
	FilterLifeLiters: 2000,
	AlertCooldown:    time.Hour,
	Location:         time.UTC,
	StoreRetry: common.RetryPolicy{
		Attempts:   2,
		Timeout:    time.Second,
		Backoff:    time.Millisecond,
		MaxBackoff: 5 * time.Millisecond,
	},
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func GetMockAquaWithMemorySqliteDialector(t *testing.T, useMockUsageStore, useMockHistoryStore, useMockDispatcher bool) (
	*gomock.Controller,
	*Aqua,
	*storemocks.MockUsageStore,
	*storemocks.MockHistoryStore,
	*notifymocks.MockDispatcher,
) {
	ctrl := gomock.NewController(t)

	mockUsageStore := storemocks.NewMockUsageStore(ctrl)
	mockHistoryStore := storemocks.NewMockHistoryStore(ctrl)
	mockDispatcher := notifymocks.NewMockDispatcher(ctrl)

	dbInstance := db.GetInstance(db.UseMemorySqliteDialector()) // ensure migrations
	notifier := store.NewLocalNotifier()

	var usageStore store.UsageStore = store.NewGormUsageStore(dbInstance, notifier)
	if useMockUsageStore {
		usageStore = mockUsageStore
	}

	var historyStore store.HistoryStore = store.NewGormHistoryStore(dbInstance, notifier)
	if useMockHistoryStore {
		historyStore = mockHistoryStore
	}

	aquaInstance := New(usageStore, historyStore, nil, testSettings)
	if useMockDispatcher {
		aquaInstance.Dispatcher = mockDispatcher
	}

	return ctrl, aquaInstance, mockUsageStore, mockHistoryStore, mockDispatcher
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		line := scanner.Text()
		var j any
		if err := json.Unmarshal([]byte(line), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}
