package kafka

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

func statusChanged(id, orderID string) domain.OutboxMessage {
	return domain.OutboxMessage{
		ID:            id,
		AggregateType: domain.AggregateTypeOrder,
		AggregateID:   orderID,
		EventType:     "order.status_changed",
		Payload:       []byte(`{"status":"preparing"}`),
	}
}

func TestOutboxPublisher_Publish(t *testing.T) {
	at := time.Date(2026, 2, 14, 18, 30, 0, 0, time.UTC)
	fake := mocks.NewSyncProducer(t, nil)
	fake.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		env, err := DecodeEnvelope(val)
		if err != nil {
			return err
		}
		if env.ID != "outbox-1" || env.AggregateID != "order-123" || !env.PublishedAt.Equal(at) {
			return fmt.Errorf("unexpected envelope %+v", env)
		}
		return nil
	})

	publisher := NewOutboxPublisher(NewProducerFromSync(fake, nil), "")
	publisher.now = func() time.Time { return at }
	assert.Equal(t, TopicOrderEvents, publisher.topic)

	require.NoError(t, publisher.Publish(context.Background(), statusChanged("outbox-1", "order-123")))
	require.NoError(t, fake.Close())
}

func TestOutboxPublisher_PublishProducerError(t *testing.T) {
	fake := mocks.NewSyncProducer(t, nil)
	fake.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewOutboxPublisher(NewProducerFromSync(fake, nil), "cafe.custom")
	require.ErrorIs(t, publisher.Publish(context.Background(), statusChanged("outbox-2", "order-234")), sarama.ErrOutOfBrokers)
	require.NoError(t, fake.Close())
}

func TestOutboxPublisher_NotReady(t *testing.T) {
	require.ErrorIs(t, NewOutboxPublisher(nil, "").Publish(context.Background(), statusChanged("outbox-3", "")), errPublisherNotReady)

	var nilPublisher *OutboxTopicPublisher
	require.ErrorIs(t, nilPublisher.Publish(context.Background(), domain.OutboxMessage{}), errPublisherNotReady)
}

func TestPartitionKeyAndEnvelope(t *testing.T) {
	assert.Equal(t, "order-1", partitionKey(statusChanged("m-1", "order-1")))
	assert.Equal(t, "m-2", partitionKey(statusChanged("m-2", "")))

	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	env := envelopeOf(statusChanged("m-1", "order-1"), at)
	assert.Equal(t, "order.status_changed", env.EventType)
	assert.JSONEq(t, `{"status":"preparing"}`, string(env.Payload))
	assert.Equal(t, at, env.PublishedAt)
}
