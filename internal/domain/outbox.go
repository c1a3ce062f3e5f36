package domain

import "time"

// AggregateTypeOrder — тип агрегата для событий заказа в outbox.
const AggregateTypeOrder = "order"

// OutboxStatus — состояние доставки сообщения.
type OutboxStatus string

const (
	// OutboxPending ждёт публикации, в том числе повторной.
	OutboxPending OutboxStatus = "pending"
	// OutboxSent доставлено брокеру.
	OutboxSent OutboxStatus = "sent"
	// OutboxFailed исчерпало попытки и отправлено в DLQ.
	OutboxFailed OutboxStatus = "failed"
)

// OutboxMessage — событие, ожидающее публикации.
// Attempts — число уже неудавшихся попыток.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	Attempts      int
	LastError     string
	CreatedAt     time.Time
}

// OutboxStats описывает текущее состояние backlog.
type OutboxStats struct {
	PendingCount    int
	FailedCount     int
	OldestPendingAt time.Time
}
