package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/config"
	"liyu1981.xyz/aquapure-service/pkg/models"
)

const sensorTopicSuffix = "SensorValue"

// mqttSubscriber is the part of mqtt.Client the feed needs.
type mqttSubscriber interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
}

// MQTTFeed subscribes once per user to <prefix>/<user>/SensorValue and fans
// decoded snapshots out to every local subscriber of that user.
type MQTTFeed struct {
	client      mqttSubscriber
	disconnect  func()
	topicPrefix string
	local       *ChanFeed
	mu          sync.Mutex
	refs        map[string]int
	logger      *zap.Logger
}

func NewMQTTFeed(cfg config.MqttConfig) (*MQTTFeed, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required")
	}

	broker := cfg.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID("aquapure-" + fmt.Sprint(time.Now().UnixNano()))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	f := NewMQTTFeedWithClient(client, cfg.TopicPrefix)
	f.disconnect = func() {
		if client.IsConnected() {
			client.Disconnect(250)
		}
	}
	return f, nil
}

func NewMQTTFeedWithClient(client mqttSubscriber, topicPrefix string) *MQTTFeed {
	if topicPrefix == "" {
		topicPrefix = "users"
	}
	return &MQTTFeed{
		client:      client,
		topicPrefix: strings.TrimSuffix(topicPrefix, "/"),
		local:       NewChanFeed(),
		refs:        make(map[string]int),
		logger:      common.GetLoggerWith(common.LoggerNameFeed),
	}
}

func (f *MQTTFeed) Topic(userID string) string {
	return fmt.Sprintf("%s/%s/%s", f.topicPrefix, userID, sensorTopicSuffix)
}

func (f *MQTTFeed) Subscribe(ctx context.Context, userID string, fn func(models.SensorSnapshot)) (func(), error) {
	f.mu.Lock()
	if f.refs[userID] == 0 {
		topic := f.Topic(userID)
		token := f.client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
			f.local.Publish(userID, models.DecodeSensorSnapshot(msg.Payload()))
		})
		if token.Wait() && token.Error() != nil {
			f.mu.Unlock()
			return nil, fmt.Errorf("subscribing to %s: %w", topic, token.Error())
		}
		f.logger.Info("Subscribed to sensor topic", zap.String("topic", topic))
	}
	f.refs[userID]++
	f.mu.Unlock()

	cancelLocal, err := f.local.Subscribe(context.Background(), userID, fn)
	if err != nil {
		f.release(userID)
		return nil, err
	}

	var once sync.Once
	stopped := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(stopped)
			cancelLocal()
			f.release(userID)
		})
	}

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-stopped:
			}
		}()
	}

	return cancel, nil
}

func (f *MQTTFeed) release(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.refs[userID]--
	if f.refs[userID] > 0 {
		return
	}
	delete(f.refs, userID)

	topic := f.Topic(userID)
	if token := f.client.Unsubscribe(topic); token.Wait() && token.Error() != nil {
		f.logger.Warn("Failed to unsubscribe sensor topic", zap.String("topic", topic), zap.Error(token.Error()))
	}
}

func (f *MQTTFeed) Close() {
	if f.disconnect != nil {
		f.disconnect()
	}
}
