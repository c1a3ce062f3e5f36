package notifications

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/events"
)

// Creator сохраняет уведомление.
type Creator interface {
	Create(ctx context.Context, n domain.Notification) (domain.Notification, error)
}

// OrderEventProjector превращает события заказа в записи ленты.
type OrderEventProjector struct {
	creator Creator
	logger  *log.Entry
}

// NewOrderEventProjector создаёт проектор.
func NewOrderEventProjector(creator Creator, logger *log.Entry) *OrderEventProjector {
	if logger == nil {
		logger = log.WithField("component", "notification-projector")
	}
	return &OrderEventProjector{creator: creator, logger: logger}
}

// Handle разбирает payload события и добавляет уведомление. Неизвестные события пропускаются.
func (p *OrderEventProjector) Handle(ctx context.Context, payload []byte) error {
	event, err := events.Decode(payload)
	if err != nil {
		return err
	}
	n, ok := Project(event)
	if !ok {
		p.logger.WithField("event_type", event.EventType).Debug("skipping order event without notification")
		return nil
	}
	n.CreatedAt = event.OccurredAt
	if _, err := p.creator.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification for %s: %w", event.OrderNumber, err)
	}
	return nil
}

// Project строит уведомление по событию.
func Project(e events.OrderEvent) (domain.Notification, bool) {
	switch e.EventType {
	case events.OrderCreated:
		msg := fmt.Sprintf("New order %s from %s", e.OrderNumber, e.CustomerName)
		if e.TableNumber != nil {
			msg = fmt.Sprintf("%s (table %d)", msg, *e.TableNumber)
		}
		return domain.Notification{Message: msg, Type: domain.NotificationInfo}, true
	case events.OrderStatusChanged:
		switch e.Status {
		case domain.OrderStatusPreparing:
			return domain.Notification{Message: fmt.Sprintf("Order %s is being prepared", e.OrderNumber), Type: domain.NotificationInfo}, true
		case domain.OrderStatusCompleted:
			return domain.Notification{Message: fmt.Sprintf("Order %s completed for %s", e.OrderNumber, e.CustomerName), Type: domain.NotificationSuccess}, true
		case domain.OrderStatusCancelled:
			return domain.Notification{Message: fmt.Sprintf("Order %s was cancelled", e.OrderNumber), Type: domain.NotificationWarning}, true
		}
	case events.OrderDeleted:
		return domain.Notification{Message: fmt.Sprintf("Order %s was deleted", e.OrderNumber), Type: domain.NotificationWarning}, true
	}
	return domain.Notification{}, false
}
