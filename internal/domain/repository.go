package domain

import (
	"context"
	"time"
)

// MenuRepository — таблица menu_items.
type MenuRepository interface {
	// List возвращает позиции, упорядоченные по категории и имени.
	List(ctx context.Context) ([]MenuItem, error)
	Get(ctx context.Context, id string) (MenuItem, error)
	Create(ctx context.Context, item MenuItem) (MenuItem, error)
	Update(ctx context.Context, item MenuItem) (MenuItem, error)
	Delete(ctx context.Context, id string) error
}

// OrderRepository описывает требования к хранилищу заказов и их позиций.
type OrderRepository interface {
	// GenerateOrderNumber выдаёт уникальный монотонный номер заказа.
	GenerateOrderNumber(ctx context.Context) (string, error)
	// Create сохраняет заголовок заказа без позиций.
	Create(ctx context.Context, order Order) error
	// CreateLines сохраняет позиции уже созданного заказа.
	CreateLines(ctx context.Context, orderID string, lines []OrderLine) error
	// Get возвращает заказ с позициями или ErrOrderNotFound.
	Get(ctx context.Context, id string) (Order, error)
	// List возвращает заказы с позициями по убыванию order_time.
	List(ctx context.Context, filter OrderFilter) ([]Order, error)
	// UpdateStatus меняет только поле status при условии, что текущий статус равен from.
	UpdateStatus(ctx context.Context, id string, from, to OrderStatus) error
	// UpdateHeader меняет customer_name, table_number и total_amount.
	UpdateHeader(ctx context.Context, id string, patch OrderHeaderPatch) error
	// DeleteLines удаляет позиции заказа.
	DeleteLines(ctx context.Context, orderID string) error
	// Delete удаляет заголовок заказа.
	Delete(ctx context.Context, id string) error
}

// AtomicOrderCreator — хранилище, которое сохраняет заголовок и позиции одной операцией.
type AtomicOrderCreator interface {
	CreateWithLines(ctx context.Context, order Order) error
}

// AtomicOrderDeleter — хранилище, которое удаляет позиции и заголовок одной операцией.
type AtomicOrderDeleter interface {
	DeleteWithLines(ctx context.Context, id string) error
}

// StaffRepository — таблица staff.
type StaffRepository interface {
	// List возвращает сотрудников по имени.
	List(ctx context.Context) ([]Staff, error)
	Create(ctx context.Context, s Staff) (Staff, error)
	Update(ctx context.Context, s Staff) (Staff, error)
	Delete(ctx context.Context, id string) error
}

// CustomerRepository — таблица customers.
type CustomerRepository interface {
	// List возвращает клиентов по имени.
	List(ctx context.Context) ([]Customer, error)
	Update(ctx context.Context, c Customer) (Customer, error)
}

// NotificationRepository — таблица notifications.
type NotificationRepository interface {
	// Latest возвращает последние limit уведомлений, новые первыми.
	Latest(ctx context.Context, limit int) ([]Notification, error)
	Create(ctx context.Context, n Notification) (Notification, error)
	MarkAsRead(ctx context.Context, id string) error
}

// OutboxRepository хранит события до подтверждённой публикации.
// Claim выдаёт pending-сообщения, срок повтора которых наступил, и откладывает их
// на lease, чтобы параллельный воркер не взял те же строки.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	Claim(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]OutboxMessage, error)
	Acknowledge(ctx context.Context, id string) error
	// Reschedule увеличивает Attempts и назначает следующую попытку на retryAt.
	Reschedule(ctx context.Context, id string, retryAt time.Time, lastErr string) error
	// Bury переводит сообщение в failed.
	Bury(ctx context.Context, id string, lastErr string) error
	Stats(ctx context.Context) (OutboxStats, error)
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(ctx context.Context, event TimelineEvent) error
	List(ctx context.Context, orderID string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
// Reserve занимает ключ или возвращает живую запись вместе с ErrIdempotencyKeyAlreadyExists
// либо ErrIdempotencyHashMismatch. Просроченная запись занимается заново.
type IdempotencyRepository interface {
	Reserve(ctx context.Context, key IdempotencyKey, requestHash string, expiresAt time.Time) (IdempotencyRecord, error)
	Get(ctx context.Context, key IdempotencyKey) (IdempotencyRecord, error)
	// Resolve сохраняет ответ для записи в статусе processing.
	Resolve(ctx context.Context, key IdempotencyKey, status IdempotencyStatus, responseBody []byte, statusCode int) error
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error)
}
