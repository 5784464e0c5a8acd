package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liyu1981.xyz/aquapure-service/pkg/common"
)

func TestLocalNotifier(t *testing.T) {
	n := NewLocalNotifier()
	userID := uuid.NewString()

	var got []Change
	cancel := n.Listen(userID, func(c Change) { got = append(got, c) })
	assert.Equal(t, 1, n.ListenerCount(userID))

	require.NoError(t, n.Publish(context.Background(), Change{Kind: ChangeKindUsage, UserID: userID, Date: "2024-01-01"}))
	require.NoError(t, n.Publish(context.Background(), Change{Kind: ChangeKindUsage, UserID: uuid.NewString()}))
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-01", got[0].Date)

	cancel()
	cancel()
	assert.Equal(t, 0, n.ListenerCount(userID))

	require.NoError(t, n.Publish(context.Background(), Change{Kind: ChangeKindUsage, UserID: userID}))
	assert.Len(t, got, 1)
}

func TestLocalNotifierClose(t *testing.T) {
	n := NewLocalNotifier()
	userID := uuid.NewString()

	calls := 0
	cancel := n.Listen(userID, func(Change) { calls++ })
	require.NoError(t, n.Close())

	require.NoError(t, n.Publish(context.Background(), Change{Kind: ChangeKindHistory, UserID: userID}))
	assert.Equal(t, 0, calls)
	assert.NotPanics(t, cancel)
}

func TestRedisNotifier(t *testing.T) {
	if !common.IsIntegrationTestEnabled() {
		t.Skip("integration tests disabled")
	}
	common.SetTestLoggerNop()

	addr := os.Getenv(common.EnvKeyAquaRedisAddr)
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	n, err := NewRedisNotifier(ctx, client)
	require.NoError(t, err)
	defer n.Close()

	userID := uuid.NewString()
	got := make(chan Change, 1)
	cancel := n.Listen(userID, func(c Change) { got <- c })
	defer cancel()

	require.NoError(t, n.Publish(ctx, Change{Kind: ChangeKindUsage, UserID: userID, Date: "2024-01-01"}))

	select {
	case c := <-got:
		assert.Equal(t, ChangeKindUsage, c.Kind)
		assert.Equal(t, "2024-01-01", c.Date)
	case <-time.After(3 * time.Second):
		t.Fatal("change was not relayed")
	}
}
