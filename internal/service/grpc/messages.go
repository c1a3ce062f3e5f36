package grpcsvc

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/cart"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

// CartLine — строка корзины в запросе.
type CartLine struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
}

// OrderLine — строка сохранённого заказа.
type OrderLine struct {
	ID         string          `json:"id"`
	MenuItemID string          `json:"menu_item_id"`
	ItemName   string          `json:"item_name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// Order — заказ в ответах OrderService.
type Order struct {
	ID           string          `json:"id"`
	OrderNumber  string          `json:"order_number"`
	CustomerName string          `json:"customer_name"`
	TableNumber  *int            `json:"table_number,omitempty"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       string          `json:"status"`
	OrderTime    time.Time       `json:"order_time"`
	Lines        []OrderLine     `json:"lines"`
}

// TimelineEvent — событие ленты заказа.
type TimelineEvent struct {
	Type     string    `json:"type"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	UnixTime int64     `json:"unix_time,string"`
	Occurred time.Time `json:"occurred"`
}

type CreateOrderRequest struct {
	CustomerName string     `json:"customer_name"`
	TableNumber  *int       `json:"table_number,omitempty"`
	Lines        []CartLine `json:"lines"`
}

type CreateOrderResponse struct {
	Order Order `json:"order"`
}

type GetOrderRequest struct {
	OrderID string `json:"order_id"`
}

type GetOrderResponse struct {
	Order    Order           `json:"order"`
	Timeline []TimelineEvent `json:"timeline"`
}

// ListOrdersRequest — пустой Status означает все заказы.
type ListOrdersRequest struct {
	Status string `json:"status,omitempty"`
}

type ListOrdersResponse struct {
	Orders []Order `json:"orders"`
}

type AdvanceOrderRequest struct {
	OrderID string `json:"order_id"`
}

type AdvanceOrderResponse struct {
	Order Order `json:"order"`
}

type CancelOrderRequest struct {
	OrderID string `json:"order_id"`
}

type CancelOrderResponse struct {
	Order Order `json:"order"`
}

type QuoteCartRequest struct {
	Lines []CartLine `json:"lines"`
}

type QuoteCartResponse struct {
	Lines    []CartLine      `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

func toCartLines(in []CartLine) []cart.Line {
	lines := make([]cart.Line, 0, len(in))
	for _, l := range in {
		lines = append(lines, cart.Line{ItemID: l.MenuItemID, Name: l.Name, UnitPrice: l.UnitPrice, Quantity: l.Quantity})
	}
	return lines
}

func fromCartLines(in []cart.Line) []CartLine {
	lines := make([]CartLine, 0, len(in))
	for _, l := range in {
		lines = append(lines, CartLine{MenuItemID: l.ItemID, Name: l.Name, UnitPrice: l.UnitPrice, Quantity: l.Quantity})
	}
	return lines
}

func toWireOrder(order domain.Order) Order {
	lines := make([]OrderLine, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, OrderLine{
			ID:         l.ID,
			MenuItemID: l.MenuItemID,
			ItemName:   l.ItemName,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
		})
	}
	return Order{
		ID:           order.ID,
		OrderNumber:  order.OrderNumber,
		CustomerName: order.CustomerName,
		TableNumber:  order.TableNumber,
		TotalAmount:  order.TotalAmount,
		Status:       string(order.Status),
		OrderTime:    order.OrderTime,
		Lines:        lines,
	}
}

func toWireTimeline(events []domain.TimelineEvent) []TimelineEvent {
	result := make([]TimelineEvent, 0, len(events))
	for _, event := range events {
		result = append(result, TimelineEvent{
			Type:     event.Type,
			From:     string(event.From),
			To:       string(event.To),
			Reason:   event.Reason,
			UnixTime: event.Occurred.Unix(),
			Occurred: event.Occurred,
		})
	}
	return result
}
