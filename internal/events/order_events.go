// Package events описывает события заказа, которые уходят через outbox в брокер.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

// Типы событий заказа.
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	OrderUpdated       = "order.updated"
	OrderDeleted       = "order.deleted"
)

// OrderEvent — конверт события заказа.
type OrderEvent struct {
	EventID        string             `json:"event_id"`
	EventType      string             `json:"event_type"`
	OrderID        string             `json:"order_id"`
	OrderNumber    string             `json:"order_number"`
	CustomerName   string             `json:"customer_name"`
	TableNumber    *int               `json:"table_number,omitempty"`
	Status         domain.OrderStatus `json:"status"`
	PreviousStatus domain.OrderStatus `json:"previous_status,omitempty"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// NewOrderEvent собирает событие по состоянию заказа.
func NewOrderEvent(eventType string, order domain.Order, previous domain.OrderStatus, at time.Time) OrderEvent {
	return OrderEvent{
		EventID:        uuid.NewString(),
		EventType:      eventType,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		CustomerName:   order.CustomerName,
		TableNumber:    order.TableNumber,
		Status:         order.Status,
		PreviousStatus: previous,
		TotalAmount:    order.TotalAmount,
		OccurredAt:     at.UTC(),
	}
}

// OutboxMessage сериализует событие для outbox.
func (e OrderEvent) OutboxMessage() (domain.OutboxMessage, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("marshal order event: %w", err)
	}
	return domain.OutboxMessage{
		ID:            e.EventID,
		AggregateType: domain.AggregateTypeOrder,
		AggregateID:   e.OrderID,
		EventType:     e.EventType,
		Payload:       payload,
	}, nil
}

// Decode разбирает payload события заказа.
func Decode(payload []byte) (OrderEvent, error) {
	var e OrderEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return OrderEvent{}, fmt.Errorf("decode order event: %w", err)
	}
	if e.EventType == "" || e.OrderID == "" {
		return OrderEvent{}, fmt.Errorf("decode order event: event_type and order_id are required")
	}
	return e, nil
}
