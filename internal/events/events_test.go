package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"anonpair/backend/internal/events"
	"anonpair/backend/internal/models"

	"github.com/oklog/ulid/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu     sync.Mutex
	name   string
	err    error
	events []models.LifecycleEvent
}

func (s *memorySink) Name() string { return s.name }

func (s *memorySink) Deliver(_ context.Context, ev models.LifecycleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *memorySink) received() []models.LifecycleEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LifecycleEvent(nil), s.events...)
}

func TestDispatcher_DeliversInOrderToEverySink(t *testing.T) {
	failing := &memorySink{name: "failing", err: errors.New("down")}
	ok := &memorySink{name: "ok"}
	d := events.NewDispatcher(8, failing, ok)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Publish(models.LifecycleEvent{Type: models.EventSessionStarted, RoomID: "r1"})
	d.Publish(models.LifecycleEvent{Type: models.EventSessionEnded, RoomID: "r1"})

	assert.Eventually(t, func() bool { return len(ok.received()) == 2 }, time.Second, 5*time.Millisecond)
	got := ok.received()
	assert.Equal(t, models.EventSessionStarted, got[0].Type)
	assert.Equal(t, models.EventSessionEnded, got[1].Type)
	assert.Len(t, failing.received(), 2)

	_, err := ulid.Parse(got[0].ID)
	assert.NoError(t, err)
	assert.NotEqual(t, got[0].ID, got[1].ID)
	assert.False(t, got[0].At.IsZero())
}

func TestDispatcher_KeepsExistingID(t *testing.T) {
	sink := &memorySink{name: "m"}
	d := events.NewDispatcher(1, sink)
	d.Publish(models.LifecycleEvent{ID: "fixed", Type: models.EventRatingRecorded})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	require.Len(t, sink.received(), 1)
	assert.Equal(t, "fixed", sink.received()[0].ID)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	sink := &memorySink{name: "m"}
	d := events.NewDispatcher(2, sink)

	for i := 0; i < 5; i++ {
		d.Publish(models.LifecycleEvent{Type: models.EventSessionStarted})
	}
	assert.Equal(t, 3, d.Dropped())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)
	assert.Len(t, sink.received(), 2)
}

type fakeRedis struct {
	channel string
	message interface{}
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.message = message
	return redis.NewIntResult(1, nil)
}

func TestRedisSink_PublishesJSON(t *testing.T) {
	client := &fakeRedis{}
	sink := events.NewRedisSink(client, "anonpair:events")

	ev := models.LifecycleEvent{ID: "e1", Type: models.EventSessionStarted, RoomID: "r1", Users: []models.UserID{1, 2}}
	require.NoError(t, sink.Deliver(context.Background(), ev))

	assert.Equal(t, "anonpair:events", client.channel)
	var decoded models.LifecycleEvent
	require.NoError(t, json.Unmarshal([]byte(client.message.(string)), &decoded))
	assert.Equal(t, "r1", decoded.RoomID)
	assert.Equal(t, []models.UserID{1, 2}, decoded.Users)
	assert.Equal(t, "redis", sink.Name())
}

type fakeChannel struct {
	key    string
	msg    amqp.Publishing
	closed bool
	err    error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.key = key
	f.msg = msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestRabbitSink_PublishesPersistentMessage(t *testing.T) {
	ch := &fakeChannel{}
	sink := events.NewRabbitSinkWithChannel(ch, "anonpair_events")

	ev := models.LifecycleEvent{ID: "e2", Type: models.EventSessionEnded, Reason: models.EndReasonExit}
	require.NoError(t, sink.Deliver(context.Background(), ev))

	assert.Equal(t, "anonpair_events", ch.key)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, "e2", ch.msg.MessageId)
	assert.Equal(t, "session_ended", ch.msg.Type)
	assert.Contains(t, string(ch.msg.Body), `"reason":"exit"`)

	require.NoError(t, sink.Close())
	assert.True(t, ch.closed)
}

func TestRabbitSink_ReturnsPublishError(t *testing.T) {
	ch := &fakeChannel{err: amqp.ErrClosed}
	sink := events.NewRabbitSinkWithChannel(ch, "q")

	err := sink.Deliver(context.Background(), models.LifecycleEvent{Type: models.EventSessionStarted})
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func TestLogSink(t *testing.T) {
	s := events.LogSink{}
	assert.Equal(t, "log", s.Name())
	assert.NoError(t, s.Deliver(context.Background(), models.LifecycleEvent{Type: models.EventSessionEnded}))
}
