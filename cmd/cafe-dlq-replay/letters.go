package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/messaging/kafka"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/outbox"
)

// errForeignLetter — сообщение в DLQ не похоже ни на один из известных форматов.
var errForeignLetter = errors.New("unrecognized dead letter")

// letter — событие, восстановленное из dead-letter сообщения.
type letter struct {
	topic     string
	key       string
	value     []byte
	eventID   string
	eventType string
	orderID   string
	attempts  int
}

func (l letter) headers() []kafka.Header {
	headers := []kafka.Header{
		{Key: kafka.HeaderRetryCount, Value: "0"},
		{Key: "x-replayed-after", Value: strconv.Itoa(l.attempts)},
	}
	if l.eventID != "" {
		headers = append(headers, kafka.Header{Key: kafka.HeaderEventID, Value: l.eventID})
	}
	if l.eventType != "" {
		headers = append(headers, kafka.Header{Key: kafka.HeaderEventType, Value: l.eventType})
	}
	return headers
}

// decodeLetter понимает письма kafka consumer'а (исходное сообщение целиком)
// и письма outbox worker'а (Envelope с DLQEnvelope внутри).
func decodeLetter(value []byte, target string, now time.Time) (letter, error) {
	var dead kafka.DeadLetter
	if err := json.Unmarshal(value, &dead); err == nil && dead.OriginalValue != "" {
		return fromConsumerLetter(dead, target), nil
	}

	var wrapper kafka.Envelope
	if err := json.Unmarshal(value, &wrapper); err != nil || kafka.EmptyPayload(wrapper.Payload) {
		return letter{}, errForeignLetter
	}
	var failed outbox.DLQEnvelope
	if err := json.Unmarshal(wrapper.Payload, &failed); err != nil {
		return letter{}, fmt.Errorf("decode outbox dead letter: %w", err)
	}
	if kafka.EmptyPayload(failed.Payload) {
		return letter{}, errors.New("outbox dead letter has no original event")
	}

	event := kafka.Envelope{
		ID:            pick(failed.OutboxID, wrapper.ID),
		AggregateType: pick(failed.AggregateType, wrapper.AggregateType),
		AggregateID:   pick(failed.AggregateID, wrapper.AggregateID),
		EventType:     pick(failed.EventType, wrapper.EventType),
		Payload:       failed.Payload,
		PublishedAt:   now,
	}
	encoded, err := json.Marshal(event)
	if err != nil {
		return letter{}, fmt.Errorf("encode replayed event: %w", err)
	}
	return letter{
		topic:     target,
		key:       pick(event.AggregateID, event.ID),
		value:     encoded,
		eventID:   event.ID,
		eventType: event.EventType,
		orderID:   event.AggregateID,
		attempts:  failed.Attempts,
	}, nil
}

func fromConsumerLetter(dead kafka.DeadLetter, target string) letter {
	l := letter{
		topic:    pick(dead.OriginalTopic, target),
		key:      dead.OriginalKey,
		value:    []byte(dead.OriginalValue),
		orderID:  dead.OriginalKey,
		attempts: dead.Attempts,
	}
	if env, err := kafka.DecodeEnvelope(l.value); err == nil {
		l.eventID = env.ID
		l.eventType = env.EventType
		l.orderID = pick(env.AggregateID, l.orderID)
	}
	return l
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
