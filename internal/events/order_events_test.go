package events

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

func TestOrderEventOutboxMessage(t *testing.T) {
	table := 4
	order := domain.Order{
		ID:           "order-1",
		OrderNumber:  "ORD-000001",
		CustomerName: "Asha",
		TableNumber:  &table,
		TotalAmount:  decimal.RequireFromString("409.50"),
		Status:       domain.OrderStatusPreparing,
	}
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	msg, err := NewOrderEvent(OrderStatusChanged, order, domain.OrderStatusPending, at).OutboxMessage()
	require.NoError(t, err)
	require.Equal(t, domain.AggregateTypeOrder, msg.AggregateType)
	require.Equal(t, "order-1", msg.AggregateID)
	require.Equal(t, OrderStatusChanged, msg.EventType)
	require.NotEmpty(t, msg.ID)
	require.Contains(t, string(msg.Payload), `"total_amount":"409.5"`)

	decoded, err := Decode(msg.Payload)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPending, decoded.PreviousStatus)
	require.Equal(t, 4, *decoded.TableNumber)
	require.True(t, decoded.TotalAmount.Equal(order.TotalAmount))
	require.True(t, decoded.OccurredAt.Equal(at))
}

func TestDecodeRejectsIncompleteEvent(t *testing.T) {
	_, err := Decode([]byte(`{"event_type":"order.created"}`))
	require.Error(t, err)

	_, err = Decode([]byte(`not json`))
	require.Error(t, err)
}
