package pubsub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"vetclinic/internal/infrastructure/websocket"
	"vetclinic/pkg/errors"
	"vetclinic/pkg/logger"
)

const DefaultTopic = "vetclinic-realtime"

// Deliverer hands an encoded frame to the subscribers connected to this instance.
type Deliverer interface {
	Deliver(channel, event string, frame []byte)
}

type envelope struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Frame   json.RawMessage `json:"frame"`
}

// RedisBroadcaster fans events out to every instance through a Redis topic.
// Each instance delivers what it receives from the topic to its own hub, so
// the publishing instance sees its own events through the subscription too.
type RedisBroadcaster struct {
	client *redis.Client
	topic  string
	local  Deliverer

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

func NewRedisBroadcaster(client *redis.Client, topic string, local Deliverer) *RedisBroadcaster {
	if topic == "" {
		topic = DefaultTopic
	}
	return &RedisBroadcaster{
		client: client,
		topic:  topic,
		local:  local,
	}
}

// Publish never fails the caller on a Redis fault: the event is delivered to
// local subscribers instead and the fault is logged.
func (b *RedisBroadcaster) Publish(ctx context.Context, channel, event string, payload interface{}) error {
	frame, err := websocket.EncodeFrame(event, payload)
	if err != nil {
		return err
	}

	data, err := json.Marshal(envelope{Channel: channel, Event: event, Frame: frame})
	if err != nil {
		return err
	}

	if err := b.client.Publish(ctx, b.topic, data).Err(); err != nil {
		logger.Warn("RedisBroadcaster: publish %q on %s failed, delivering locally: %v", event, channel, err)
		b.local.Deliver(channel, event, frame)
	}
	return nil
}

// Start subscribes to the topic and forwards received events until ctx ends or Close is called.
func (b *RedisBroadcaster) Start(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return errors.Internal("failed to subscribe to realtime topic", err)
	}

	b.mu.Lock()
	b.pubsub = pubsub
	b.done = make(chan struct{})
	b.mu.Unlock()

	go b.run(ctx, pubsub, b.done)
	logger.Info("RedisBroadcaster: subscribed to %s", b.topic)
	return nil
}

func (b *RedisBroadcaster) run(ctx context.Context, pubsub *redis.PubSub, done chan struct{}) {
	defer close(done)
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logger.Warn("RedisBroadcaster: discarding malformed envelope: %v", err)
				continue
			}
			b.local.Deliver(env.Channel, env.Event, env.Frame)
		}
	}
}

func (b *RedisBroadcaster) Close() error {
	b.mu.Lock()
	pubsub, done := b.pubsub, b.done
	b.pubsub = nil
	b.mu.Unlock()

	if pubsub == nil {
		return nil
	}
	err := pubsub.Close()
	<-done
	return err
}
