package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

var errPublisherNotReady = errors.New("kafka outbox publisher is not initialized")

// OutboxTopicPublisher кладёт outbox-сообщения в topic в виде Envelope.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
	now      func() time.Time
}

// NewOutboxPublisher создаёт publisher для outbox worker; пустой topic означает TopicOrderEvents.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{producer: producer, topic: topic, now: func() time.Time { return time.Now().UTC() }}
}

// Publish реализует domain.OutboxPublisher.
func (p *OutboxTopicPublisher) Publish(ctx context.Context, msg domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errPublisherNotReady
	}
	return p.producer.PublishJSON(ctx, p.topic, partitionKey(msg), envelopeOf(msg, p.now()),
		Header{Key: HeaderEventID, Value: msg.ID},
		Header{Key: HeaderEventType, Value: msg.EventType},
		Header{Key: HeaderAggregateType, Value: msg.AggregateType},
	)
}

// partitionKey — id агрегата, для сообщений без агрегата id самого сообщения.
func partitionKey(msg domain.OutboxMessage) string {
	if msg.AggregateID != "" {
		return msg.AggregateID
	}
	return msg.ID
}

func envelopeOf(msg domain.OutboxMessage, at time.Time) Envelope {
	return Envelope{
		ID:            msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       json.RawMessage(msg.Payload),
		PublishedAt:   at,
	}
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
