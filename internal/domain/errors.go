package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation — общий признак ошибки валидации входных данных.
	ErrValidation = errors.New("validation failed")
	// ErrRemote — общий признак ошибки удалённого хранилища/клиента данных.
	ErrRemote = errors.New("remote data client failure")
	// ErrCustomerNameRequired — пустое имя клиента при оформлении заказа.
	ErrCustomerNameRequired = errors.New("customer_name is required")
	// ErrLinesRequired — заказ без позиций.
	ErrLinesRequired = errors.New("order must contain at least one line")
	// ErrLineQtyInvalid — количество в позиции меньше единицы.
	ErrLineQtyInvalid = errors.New("line quantity must be greater than zero")
	// ErrPriceNegative — отрицательная цена позиции или товара.
	ErrPriceNegative = errors.New("price must be non-negative")
	// ErrAmountNegative — отрицательная сумма заказа.
	ErrAmountNegative = errors.New("total_amount must be non-negative")
	// ErrTableNumberInvalid — номер стола указан, но не положительный.
	ErrTableNumberInvalid = errors.New("table_number must be a positive integer")
	// ErrStatusUnknown — статус заказа вне списка поддерживаемых.
	ErrStatusUnknown = errors.New("unknown order status")
	// ErrInvalidTransition — недопустимый переход статуса заказа.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrOrderStatusConflict — статус заказа изменился между чтением и записью.
	ErrOrderStatusConflict = errors.New("order status changed concurrently")
	// ErrOrphanedOrder — заголовок заказа сохранён, а позиции и компенсация нет.
	ErrOrphanedOrder = errors.New("order header persisted without lines")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrMenuItemNotFound возвращается, если позиции меню нет.
	ErrMenuItemNotFound = errors.New("menu item not found")
	// ErrStaffNotFound возвращается, если сотрудника нет.
	ErrStaffNotFound = errors.New("staff member not found")
	// ErrCustomerNotFound возвращается, если клиента нет.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrNotificationNotFound возвращается, если уведомления нет.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrAlreadyExists — запись с таким ключом уже есть (например, order_number).
	ErrAlreadyExists = errors.New("record already exists")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
	// ErrOutboxMessageNotFound — сообщения нет или оно уже не pending.
	ErrOutboxMessageNotFound = errors.New("outbox message not found")
)

// ValidationError описывает отклонённое поле. Возникает до любых обращений к хранилищу.
type ValidationError struct {
	Field  string
	Reason error
}

// NewValidationError создаёт ошибку валидации поля.
func NewValidationError(field string, reason error) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Reason == nil {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Reason)
}

// Unwrap позволяет errors.Is находить и ErrValidation, и конкретную причину.
func (e *ValidationError) Unwrap() []error {
	if e.Reason == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Reason}
}

// RemoteError оборачивает сбой хранилища на границе сервиса.
type RemoteError struct {
	Op  string
	Err error
}

// NewRemoteError оборачивает err в RemoteError. Доменные ответы хранилища
// (not found, конфликт, валидация) возвращаются как есть.
func NewRemoteError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsValidation(err) || IsNotFound(err) || IsConflict(err) {
		return err
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return err
	}
	return &RemoteError{Op: op, Err: err}
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() []error {
	return []error{ErrRemote, e.Err}
}

// IsValidation проверяет, является ли ошибка ошибкой валидации.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound проверяет, относится ли ошибка к отсутствующей записи.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrMenuItemNotFound) ||
		errors.Is(err, ErrStaffNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrNotificationNotFound)
}

// IsConflict проверяет, описывает ли ошибка конфликт состояния.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrOrderStatusConflict) ||
		errors.Is(err, ErrAlreadyExists)
}
