package kafka

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Topics.
const (
	TopicOrderEvents     = "cafe.order-events"
	TopicDeadLetterQueue = "cafe.order-events.dlq"
)

// Заголовки сообщений Kafka.
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
	HeaderEventID       = "x-event-id"
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
)

// Envelope — outbox-сообщение в том виде, в котором оно лежит в topic.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

// DecodeEnvelope разбирает значение сообщения.
func DecodeEnvelope(value []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode kafka envelope: %w", err)
	}
	if EmptyPayload(env.Payload) {
		return Envelope{}, fmt.Errorf("decode kafka envelope: payload is empty")
	}
	return env, nil
}

// EmptyPayload сообщает, что полезной нагрузки нет: поле отсутствует или равно null.
func EmptyPayload(p json.RawMessage) bool {
	trimmed := bytes.TrimSpace(p)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// DeadLetter — содержимое сообщения в DLQ consumer'а.
type DeadLetter struct {
	OriginalTopic     string    `json:"original_topic"`
	OriginalPartition int32     `json:"original_partition"`
	OriginalOffset    int64     `json:"original_offset"`
	OriginalKey       string    `json:"original_key"`
	OriginalValue     string    `json:"original_value"`
	ErrorMessage      string    `json:"error_message"`
	Attempts          int       `json:"attempts"`
	FailedAt          time.Time `json:"failed_at"`
}
