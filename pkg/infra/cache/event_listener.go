package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/NeuralTrust/BotGate/pkg/infra/cache/channel"
	"github.com/NeuralTrust/BotGate/pkg/infra/cache/event"
	"github.com/sirupsen/logrus"
)

type EventListener interface {
	Listen(ctx context.Context, channels ...channel.Channel)
	Register(eventType string, handle EventHandler)
}

// EventHandler decodes and applies the payload of one event type.
type EventHandler func(ctx context.Context, payload json.RawMessage) error

type redisEventListener struct {
	logger   *logrus.Logger
	client   Client
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

func NewRedisEventListener(logger *logrus.Logger, client Client) EventListener {
	return &redisEventListener{
		logger:   logger,
		client:   client,
		handlers: make(map[string][]EventHandler),
	}
}

func RegisterEventSubscriber[T event.Event](l EventListener, subscriber EventSubscriber[T]) {
	var zero T
	l.Register(zero.Type(), func(ctx context.Context, payload json.RawMessage) error {
		var evt T
		if err := json.Unmarshal(payload, &evt); err != nil {
			return fmt.Errorf("failed to decode %s: %w", zero.Type(), err)
		}
		return subscriber.OnEvent(ctx, evt)
	})
}

func (r *redisEventListener) Register(eventType string, handle EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[eventType] = append(r.handlers[eventType], handle)
}

func (r *redisEventListener) Listen(ctx context.Context, channels ...channel.Channel) {
	channelNames := make([]string, 0, len(channels))
	for _, ch := range channels {
		channelNames = append(channelNames, string(ch))
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("redis pubsub listener shutting down")
			return
		default:
		}

		r.listenWithReconnect(ctx, channelNames)

		if ctx.Err() != nil {
			return
		}

		r.logger.Warn("redis pubsub disconnected, reconnecting in 1s...")
		time.Sleep(time.Second)
	}
}

func (r *redisEventListener) listenWithReconnect(ctx context.Context, channelNames []string) {
	pubSub := r.client.RedisClient().Subscribe(ctx, channelNames...)
	defer func() { _ = pubSub.Close() }()

	r.logger.WithField("channels", channelNames).Debug("redis pubsub connected")

	go func() {
		<-ctx.Done()
		_ = pubSub.Close()
	}()

	for msg := range pubSub.Channel() {
		if ctx.Err() != nil {
			return
		}
		r.handleMessage(ctx, msg.Payload)
	}
}

func (r *redisEventListener) handleMessage(ctx context.Context, payload string) {
	var envelope RedisMessage
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		r.logger.WithError(err).Error("error decoding redis message")
		return
	}

	r.mu.RLock()
	handlers := r.handlers[envelope.Type]
	r.mu.RUnlock()

	if len(handlers) == 0 {
		r.logger.WithField("type", envelope.Type).Warn("no subscriber for event type")
		return
	}
	for _, handle := range handlers {
		if err := handle(ctx, envelope.Event); err != nil {
			r.logger.WithError(err).WithField("type", envelope.Type).Error("error executing subscriber")
		}
	}
}
