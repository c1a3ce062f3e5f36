package domain

import (
	"errors"
	"strings"
	"time"
)

// NotificationType — визуальный тип уведомления.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// Notification — запись ленты уведомлений.
type Notification struct {
	ID        string
	Message   string
	Type      NotificationType
	IsRead    bool
	CreatedAt time.Time
}

// Validate проверяет запись перед вставкой.
func (n Notification) Validate() error {
	if strings.TrimSpace(n.Message) == "" {
		return NewValidationError("message", errors.New("message is required"))
	}
	switch n.Type {
	case NotificationInfo, NotificationWarning, NotificationSuccess, NotificationError:
		return nil
	default:
		return NewValidationError("type", errors.New("type must be one of info, warning, success, error"))
	}
}

// ToastKind — вид всплывающего сообщения для оператора.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)
