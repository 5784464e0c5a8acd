package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"liyu1981.xyz/aquapure-service/pkg/common"
)

const redisChannelPrefix = "aquapure:changes:"

// RedisNotifier publishes changes on a Redis channel per user and relays
// every change seen on the pattern subscription to local listeners, so all
// service instances sharing the Redis server observe each other's writes.
type RedisNotifier struct {
	client *redis.Client
	pubsub *redis.PubSub
	local  *LocalNotifier
	wg     sync.WaitGroup
	once   sync.Once
}

func NewRedisNotifier(ctx context.Context, client *redis.Client) (*RedisNotifier, error) {
	pubsub := client.PSubscribe(ctx, redisChannelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribing to %s*: %w", redisChannelPrefix, err)
	}

	n := &RedisNotifier{
		client: client,
		pubsub: pubsub,
		local:  NewLocalNotifier(),
	}

	n.wg.Add(1)
	go n.relay()

	return n, nil
}

func (n *RedisNotifier) relay() {
	defer n.wg.Done()
	logger := common.GetLoggerWith(common.LoggerNameStore)

	for msg := range n.pubsub.Channel() {
		var change Change
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			logger.Warn("Dropped malformed change message", zap.String("channel", msg.Channel), zap.Error(err))
			continue
		}
		if change.UserID == "" {
			change.UserID = strings.TrimPrefix(msg.Channel, redisChannelPrefix)
		}
		_ = n.local.Publish(context.Background(), change)
	}
}

func (n *RedisNotifier) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, redisChannelPrefix+change.UserID, payload).Err()
}

func (n *RedisNotifier) Listen(userID string, fn func(Change)) func() {
	return n.local.Listen(userID, fn)
}

func (n *RedisNotifier) Close() error {
	var err error
	n.once.Do(func() {
		err = n.pubsub.Close()
		n.wg.Wait()
		_ = n.local.Close()
	})
	return err
}
