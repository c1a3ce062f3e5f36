package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа в кафе.
type OrderStatus string

const (
	// OrderStatusPending — заказ принят, кухня ещё не начала.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusPreparing — заказ готовится.
	OrderStatusPreparing OrderStatus = "preparing"
	// OrderStatusCompleted — заказ выдан. Терминальный статус.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled — заказ отменён. Терминальный статус.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderLine — позиция заказа. UnitPrice фиксируется в момент оформления и дальше не меняется.
type OrderLine struct {
	ID         string
	OrderID    string
	MenuItemID string
	// ItemName подставляется только для отображения, из каталога.
	ItemName  string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Amount возвращает стоимость позиции.
func (l OrderLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order агрегирует заголовок заказа и его позиции.
type Order struct {
	ID           string
	OrderNumber  string
	CustomerName string
	TableNumber  *int
	TotalAmount  decimal.Decimal
	Status       OrderStatus
	Lines        []OrderLine
	OrderTime    time.Time
	UpdatedAt    time.Time
}

// OrderHeaderPatch — редактируемые поля заголовка заказа.
type OrderHeaderPatch struct {
	CustomerName string
	TableNumber  *int
	TotalAmount  decimal.Decimal
}

// Validate проверяет поля заголовка.
func (p OrderHeaderPatch) Validate() error {
	if strings.TrimSpace(p.CustomerName) == "" {
		return NewValidationError("customer_name", ErrCustomerNameRequired)
	}
	if p.TableNumber != nil && *p.TableNumber < 1 {
		return NewValidationError("table_number", ErrTableNumberInvalid)
	}
	if p.TotalAmount.IsNegative() {
		return NewValidationError("total_amount", ErrAmountNegative)
	}
	return nil
}

// OrderFilter ограничивает выборку заказов.
type OrderFilter struct {
	Status OrderStatus
	// From/To — полуоткрытый интервал [From, To) по order_time; нулевое значение не ограничивает.
	From time.Time
	To   time.Time
}

// Match проверяет заказ на соответствие фильтру.
func (f OrderFilter) Match(o Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && o.OrderTime.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !o.OrderTime.Before(f.To) {
		return false
	}
	return true
}

// Clone возвращает глубокую копию заказа.
func (o Order) Clone() Order {
	cp := o
	if o.TableNumber != nil {
		n := *o.TableNumber
		cp.TableNumber = &n
	}
	cp.Lines = append([]OrderLine(nil), o.Lines...)
	return cp
}
