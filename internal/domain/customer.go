package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// CustomerStatus — сегмент лояльности.
type CustomerStatus string

const (
	CustomerStatusRegular CustomerStatus = "regular"
	CustomerStatusVIP     CustomerStatus = "vip"
	CustomerStatusNew     CustomerStatus = "new"
)

// Customer — карточка постоянного гостя.
type Customer struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	TotalOrders   int
	LoyaltyPoints int
	LastVisit     *time.Time
	Status        CustomerStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate проверяет карточку клиента.
func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", errors.New("name is required"))
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return NewValidationError("email", errors.New("email is malformed"))
		}
	}
	if c.TotalOrders < 0 {
		return NewValidationError("total_orders", errors.New("total_orders must be non-negative"))
	}
	if c.LoyaltyPoints < 0 {
		return NewValidationError("loyalty_points", errors.New("loyalty_points must be non-negative"))
	}
	switch c.Status {
	case CustomerStatusRegular, CustomerStatusVIP, CustomerStatusNew:
	default:
		return NewValidationError("status", errors.New("status must be one of regular, vip, new"))
	}
	return nil
}
