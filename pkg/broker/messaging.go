package broker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Common errors
var (
	ErrTopicNotFound = errors.New("topic not found")
	ErrQueueFull     = errors.New("queue is full")
	ErrBrokerClosed  = errors.New("broker is closed")
)

// Message represents a message flowing through the in-memory broker
type Message struct {
	ID           string    `json:"id"`
	Topic        string    `json:"topic"`
	PartitionKey string    `json:"partition_key"`
	Payload      []byte    `json:"payload"`
	PublishedAt  time.Time `json:"published_at"`
}

// MessageHandler is a function that processes messages
type MessageHandler func(context.Context, *Message) error

// InMemoryBroker is a single-partition broker used in tests and local
// development. Delivery is synchronous and in publish order, which mirrors
// the per-partition ordering guarantee of the real Kafka binding: messages
// sharing a topic are observed by each subscriber in emission order.
type InMemoryBroker struct {
	mu        sync.Mutex
	topics    map[string][]*Message
	handlers  map[string][]MessageHandler
	logger    *logrus.Logger
	queueSize int
	closed    bool
}

// NewInMemoryBroker creates a new in-memory message broker
func NewInMemoryBroker(logger *logrus.Logger, queueSize int) *InMemoryBroker {
	if queueSize <= 0 {
		queueSize = 1000
	}
	return &InMemoryBroker{
		topics:    make(map[string][]*Message),
		handlers:  make(map[string][]MessageHandler),
		logger:    logger,
		queueSize: queueSize,
	}
}

// Publish appends the message to the topic log and dispatches it to every
// subscriber before returning. Implements Client.
func (b *InMemoryBroker) Publish(ctx context.Context, topic, partitionKey string, payload []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBrokerClosed
	}

	if len(b.topics[topic]) >= b.queueSize {
		b.mu.Unlock()
		return ErrQueueFull
	}

	msg := &Message{
		ID:           uuid.New().String(),
		Topic:        topic,
		PartitionKey: partitionKey,
		Payload:      payload,
		PublishedAt:  time.Now().UTC(),
	}
	b.topics[topic] = append(b.topics[topic], msg)
	handlers := append([]MessageHandler(nil), b.handlers[topic]...)
	b.mu.Unlock()

	// Synchronous dispatch keeps per-topic ordering observable by handlers.
	for _, handler := range handlers {
		if err := handler(ctx, msg); err != nil {
			b.logger.WithError(err).WithField("message_id", msg.ID).Error("Error processing message")
		}
	}

	return nil
}

// Subscribe registers a handler for a topic
func (b *InMemoryBroker) Subscribe(topic string, handler MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBrokerClosed
	}

	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

// Messages returns the ordered log of messages published to a topic
func (b *InMemoryBroker) Messages(topic string) ([]*Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	msgs, ok := b.topics[topic]
	if !ok {
		return nil, ErrTopicNotFound
	}
	return append([]*Message(nil), msgs...), nil
}

// Close closes the broker
func (b *InMemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.topics = nil
	b.handlers = nil
	return nil
}
