package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"liyu1981.xyz/aquapure-service/pkg/common"
)

type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type kafkaWriteCloser interface {
	Close() error
}

var errDispatcherNilWriter = errors.New("kafka dispatcher requires a writer")

// KafkaDispatcher publishes each notification as a JSON message keyed by
// user id, so one user's notifications stay ordered on a partition.
type KafkaDispatcher struct {
	topic  string
	writer kafkaMessageWriter
	closer kafkaWriteCloser
	clock  func() time.Time
	logger *zap.Logger
}

func NewKafkaDispatcher(brokers []string, topic string) (*KafkaDispatcher, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("kafka topic must not be empty")
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Balancer:               &kafka.Hash{},
	}
	return newKafkaDispatcherWithWriter(topic, w, w)
}

func newKafkaDispatcherWithWriter(topic string, writer kafkaMessageWriter, closer kafkaWriteCloser) (*KafkaDispatcher, error) {
	if writer == nil {
		return nil, errDispatcherNilWriter
	}
	return &KafkaDispatcher{
		topic:  topic,
		writer: writer,
		closer: closer,
		clock:  time.Now,
		logger: common.GetLoggerWith(common.LoggerNameNotify, zap.String("topic", topic)),
	}, nil
}

func (d *KafkaDispatcher) Schedule(ctx context.Context, title, body string) error {
	n := Notification{
		ID:        uuid.NewString(),
		UserID:    UserFrom(ctx),
		Title:     title,
		Body:      body,
		CreatedAt: d.clock(),
	}
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	msg := kafka.Message{Value: value, Time: n.CreatedAt}
	if n.UserID != "" {
		msg.Key = []byte(n.UserID)
	}

	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		d.logger.Error("Failed to publish notification", zap.String("id", n.ID), zap.Error(err))
		return fmt.Errorf("writing notification to %s: %w", d.topic, err)
	}

	d.logger.Info("Notification published", zap.String("id", n.ID), zap.String("user_id", n.UserID))
	return nil
}

func (d *KafkaDispatcher) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}
