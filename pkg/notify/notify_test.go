package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"liyu1981.xyz/aquapure-service/pkg/common"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaDispatcherSchedule(t *testing.T) {
	common.SetTestLoggerNop()

	w := &fakeWriter{}
	d, err := newKafkaDispatcherWithWriter("aquapure.notifications", w, w)
	require.NoError(t, err)
	fixed := time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)
	d.clock = func() time.Time { return fixed }

	userID := uuid.NewString()
	err = d.Schedule(WithUser(context.Background(), userID), "⚠️ CONTAMINATION ALERT", "Water is Unsafe! pH: 9.1 | Turbidity: 2.0 NTU")
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte(userID), w.msgs[0].Key)

	var n Notification
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &n))
	assert.Equal(t, userID, n.UserID)
	assert.Equal(t, "⚠️ CONTAMINATION ALERT", n.Title)
	assert.True(t, n.CreatedAt.Equal(fixed))
	_, err = uuid.Parse(n.ID)
	assert.NoError(t, err)

	require.NoError(t, d.Close())
	assert.True(t, w.closed)
}

func TestKafkaDispatcherWriteError(t *testing.T) {
	common.SetTestLoggerNop()

	boom := errors.New("broker down")
	w := &fakeWriter{err: boom}
	d, err := newKafkaDispatcherWithWriter("aquapure.notifications", w, w)
	require.NoError(t, err)

	err = d.Schedule(context.Background(), "t", "b")
	assert.ErrorIs(t, err, boom)
}

func TestNewKafkaDispatcherValidation(t *testing.T) {
	_, err := NewKafkaDispatcher([]string{"localhost:9092"}, " ")
	assert.Error(t, err)

	_, err = NewKafkaDispatcher(nil, "topic")
	assert.Error(t, err)

	_, err = newKafkaDispatcherWithWriter("topic", nil, nil)
	assert.ErrorIs(t, err, errDispatcherNilWriter)
}

func TestLogDispatcher(t *testing.T) {
	var buf bytes.Buffer
	common.SetTestCaptureLogger(&buf, zapcore.InfoLevel)
	defer common.SetTestLoggerNop()

	d := NewLogDispatcher()
	userID := uuid.NewString()
	require.NoError(t, d.Schedule(WithUser(context.Background(), userID), "title", "body"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "Notification", entry["msg"])
	assert.Equal(t, userID, entry["user_id"])
	assert.Equal(t, "body", entry["body"])
}

type errDispatcher struct{ err error }

func (e errDispatcher) Schedule(context.Context, string, string) error { return e.err }

func TestMultiDispatcher(t *testing.T) {
	common.SetTestLoggerNop()

	boom := errors.New("boom")
	w := &fakeWriter{}
	k, err := newKafkaDispatcherWithWriter("topic", w, w)
	require.NoError(t, err)

	m := MultiDispatcher{errDispatcher{err: boom}, k}
	err = m.Schedule(context.Background(), "t", "b")
	assert.ErrorIs(t, err, boom)
	assert.Len(t, w.msgs, 1)

	assert.NoError(t, MultiDispatcher{k}.Schedule(context.Background(), "t", "b"))
}
