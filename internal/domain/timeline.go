package domain

import (
	"errors"
	"strings"
	"time"
)

// Типы событий ленты заказа.
const (
	TimelineOrderCreated  = "order_created"
	TimelineStatusChanged = "status_changed"
	TimelineOrderUpdated  = "order_updated"
)

var (
	errTimelineOrderRequired = errors.New("timeline event must reference an order")
	errTimelineUnknownType   = errors.New("unknown timeline event type")
)

// TimelineEvent — запись в ленте заказа. Seq назначает хранилище;
// он упорядочивает события с одинаковым Occurred.
type TimelineEvent struct {
	Seq      int64
	OrderID  string
	Type     string
	From     OrderStatus
	To       OrderStatus
	Reason   string
	Occurred time.Time
}

// Validate проверяет ссылку на заказ, тип и согласованность статусов.
func (e TimelineEvent) Validate() error {
	if strings.TrimSpace(e.OrderID) == "" {
		return NewValidationError("order_id", errTimelineOrderRequired)
	}
	switch e.Type {
	case TimelineOrderCreated, TimelineOrderUpdated:
	case TimelineStatusChanged:
		if e.From == "" || e.To == "" {
			return NewValidationError("status", errors.New("status change needs both from and to"))
		}
	default:
		return NewValidationError("type", errTimelineUnknownType)
	}
	return nil
}

// TimelineBefore задаёт порядок ленты: по времени, затем по Seq.
func TimelineBefore(a, b TimelineEvent) bool {
	if !a.Occurred.Equal(b.Occurred) {
		return a.Occurred.Before(b.Occurred)
	}
	return a.Seq < b.Seq
}
