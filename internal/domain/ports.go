package domain

import "context"

// Notifier — всплывающие сообщения оператору. Fire-and-forget.
type Notifier interface {
	Notify(kind ToastKind, message string)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(ctx context.Context, event OutboxMessage) error
}
