package message_broker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/satriahrh/cocoa-fruit/teacher/domain"
	"github.com/satriahrh/cocoa-fruit/teacher/utils/log"
	"go.uber.org/zap"
)

const subscriberBuffer = 100

var ErrClosed = errors.New("message broker is closed")

// ChannelMessageBroker implements MessageBroker using Go channels. Every
// subscriber of a topic/routingKey pair gets its own buffered channel.
type ChannelMessageBroker struct {
	mu     sync.RWMutex
	topics map[string]map[chan domain.Message]struct{}
	closed bool
}

// NewChannelMessageBroker creates a new channel-based message broker
func NewChannelMessageBroker() *ChannelMessageBroker {
	return &ChannelMessageBroker{
		topics: make(map[string]map[chan domain.Message]struct{}),
	}
}

// makeKey creates a unique key for topic and routingKey
func makeKey(topic, routingKey string) string {
	return topic + ":" + routingKey
}

// Publish delivers message to every current subscriber of topic and routingKey.
// Subscribers whose buffer is full miss the message; the publisher never blocks.
func (b *ChannelMessageBroker) Publish(ctx context.Context, topic string, routingKey string, message []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	msg := domain.Message{
		Topic:      topic,
		RoutingKey: routingKey,
		Payload:    message,
		Timestamp:  time.Now(),
	}

	delivered := 0
	for ch := range b.topics[makeKey(topic, routingKey)] {
		select {
		case ch <- msg:
			delivered++
		default:
			log.WithCtx(ctx).Warn("Subscriber buffer full, dropping message",
				zap.String("topic", topic),
				zap.String("routingKey", routingKey))
		}
	}

	log.WithCtx(ctx).Debug("Message published to topic",
		zap.String("topic", topic),
		zap.String("routingKey", routingKey),
		zap.Int("payload_size", len(message)),
		zap.Int("delivered", delivered))
	return nil
}

// Subscribe listens for messages on a specific topic and routing key until ctx is done.
func (b *ChannelMessageBroker) Subscribe(ctx context.Context, topic string, routingKey string) (<-chan domain.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	key := makeKey(topic, routingKey)
	subs, exists := b.topics[key]
	if !exists {
		subs = make(map[chan domain.Message]struct{})
		b.topics[key] = subs
	}
	channel := make(chan domain.Message, subscriberBuffer)
	subs[channel] = struct{}{}

	go func() {
		<-ctx.Done()
		b.unsubscribe(key, channel)
	}()

	log.WithCtx(ctx).Info("Subscribed to topic", zap.String("topic", topic), zap.String("routingKey", routingKey))
	return channel, nil
}

func (b *ChannelMessageBroker) unsubscribe(key string, channel chan domain.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[key]
	if !ok {
		return
	}
	if _, ok := subs[channel]; !ok {
		return
	}
	delete(subs, channel)
	close(channel)
	if len(subs) == 0 {
		delete(b.topics, key)
	}
}

// Close closes the message broker and all subscriber channels
func (b *ChannelMessageBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true

	for key, subs := range b.topics {
		for channel := range subs {
			close(channel)
		}
		log.With().Debug("Closed topic subscribers", zap.String("key", key))
	}

	b.topics = make(map[string]map[chan domain.Message]struct{})

	log.With().Info("Message broker closed")
	return nil
}

// GetTopicCount returns the number of topics with at least one subscriber
func (b *ChannelMessageBroker) GetTopicCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics)
}

// IsClosed returns whether the broker is closed
func (b *ChannelMessageBroker) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
