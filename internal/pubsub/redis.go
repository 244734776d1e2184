package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisSubscriber delivers messages published on a Redis channel to a MessageHandler.
// Messages are handled one at a time, in arrival order.
type RedisSubscriber struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisSubscriber создает подписчика на канал, используя существующий клиент.
func NewRedisSubscriber(client redis.UniversalClient, channel string) (*RedisSubscriber, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil for RedisSubscriber")
	}
	if channel == "" {
		return nil, errors.New("redis channel is required")
	}
	return &RedisSubscriber{client: client, channel: channel}, nil
}

// Run subscribes and blocks until ctx is cancelled or Redis closes the channel.
func (s *RedisSubscriber) Run(ctx context.Context, handle MessageHandler) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	// Ждем подтверждения подписки, чтобы не потерять первые сообщения
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to Redis channel %s: %w", s.channel, err)
	}
	log.Printf("RedisSubscriber: subscribed to channel '%s'", s.channel)

	redisCh := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Printf("RedisSubscriber: stopped by context (channel '%s')", s.channel)
			return nil
		case msg, ok := <-redisCh:
			if !ok {
				log.Printf("RedisSubscriber: channel '%s' closed by server", s.channel)
				return nil
			}
			s.dispatch(ctx, []byte(msg.Payload), handle)
		}
	}
}

func (s *RedisSubscriber) dispatch(ctx context.Context, payload []byte, handle MessageHandler) {
	m, err := ParsePayload(payload)
	if err != nil {
		log.Printf("RedisSubscriber: dropping unreadable payload on '%s': %v", s.channel, err)
		return
	}
	if m.MessageID == "" {
		m.MessageID = uuid.NewString()
	}
	if err := handle(ctx, m); err != nil {
		// Redis не поддерживает повторную доставку, поэтому ошибку можно только залогировать
		log.Printf("RedisSubscriber: message %s failed: %v", m.MessageID, err)
	}
}

// RedisPublisher publishes Pub/Sub-shaped messages to a Redis channel.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisPublisher(client redis.UniversalClient, channel string) (*RedisPublisher, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil for RedisPublisher")
	}
	if channel == "" {
		return nil, errors.New("redis channel is required")
	}
	return &RedisPublisher{client: client, channel: channel}, nil
}

// Publish returns the number of subscribers that received the message.
func (p *RedisPublisher) Publish(ctx context.Context, msg *Message) (int64, error) {
	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message: %w", err)
	}
	receivers, err := p.client.Publish(ctx, p.channel, body).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to publish to Redis channel %s: %w", p.channel, err)
	}
	log.Printf("RedisPublisher: published message %s to '%s' (subscribers: %d)", msg.MessageID, p.channel, receivers)
	return receivers, nil
}
