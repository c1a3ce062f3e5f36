package domain

import (
	"errors"
	"strings"
	"time"
)

// StaffRole — должность сотрудника.
type StaffRole string

const (
	StaffRoleManager StaffRole = "Manager"
	StaffRoleBarista StaffRole = "Barista"
	StaffRoleServer  StaffRole = "Server"
	StaffRoleChef    StaffRole = "Chef"
)

// StaffStatus — активен ли сотрудник.
type StaffStatus string

const (
	StaffStatusActive   StaffStatus = "active"
	StaffStatusInactive StaffStatus = "inactive"
)

// Valid проверяет должность.
func (r StaffRole) Valid() bool {
	switch r {
	case StaffRoleManager, StaffRoleBarista, StaffRoleServer, StaffRoleChef:
		return true
	default:
		return false
	}
}

// Staff — сотрудник кафе.
type Staff struct {
	ID        string
	Name      string
	Role      StaffRole
	Contact   string
	Shift     string
	Status    StaffStatus
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет карточку сотрудника.
func (s Staff) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return NewValidationError("name", errors.New("name is required"))
	}
	if !s.Role.Valid() {
		return NewValidationError("role", errors.New("role must be one of Manager, Barista, Server, Chef"))
	}
	if strings.TrimSpace(s.Contact) == "" {
		return NewValidationError("contact", errors.New("contact is required"))
	}
	if s.Status != StaffStatusActive && s.Status != StaffStatusInactive {
		return NewValidationError("status", errors.New("status must be active or inactive"))
	}
	return nil
}
