package domain

// transitions перечисляет допустимые переходы статуса.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusCompleted, OrderStatusCancelled},
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal сообщает, что из статуса переходов нет.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Transition проверяет переход from -> to. Для любой запрещённой пары возвращает ErrInvalidTransition.
func Transition(from, to OrderStatus) error {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return ErrInvalidTransition
}

// Next возвращает следующий статус по основному пути pending -> preparing -> completed.
func Next(from OrderStatus) (OrderStatus, error) {
	switch from {
	case OrderStatusPending:
		return OrderStatusPreparing, nil
	case OrderStatusPreparing:
		return OrderStatusCompleted, nil
	default:
		return from, ErrInvalidTransition
	}
}

// Advance переводит заказ на следующий шаг. На терминальном статусе заказ не меняется.
func (o *Order) Advance() error {
	next, err := Next(o.Status)
	if err != nil {
		return err
	}
	o.Status = next
	return nil
}

// Cancel отменяет заказ, если он ещё не завершён.
func (o *Order) Cancel() error {
	return o.SetStatus(OrderStatusCancelled)
}

// SetStatus применяет явный переход.
func (o *Order) SetStatus(to OrderStatus) error {
	if err := Transition(o.Status, to); err != nil {
		return err
	}
	o.Status = to
	return nil
}
