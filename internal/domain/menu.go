package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MenuCategory — раздел меню.
type MenuCategory string

const (
	MenuCategoryBeverage MenuCategory = "Beverage"
	MenuCategoryFood     MenuCategory = "Food"
	MenuCategoryDessert  MenuCategory = "Dessert"
)

var errCategoryUnknown = errors.New("category must be one of Beverage, Food, Dessert")

// Valid проверяет, что категория поддерживается.
func (c MenuCategory) Valid() bool {
	switch c {
	case MenuCategoryBeverage, MenuCategoryFood, MenuCategoryDessert:
		return true
	default:
		return false
	}
}

// MenuItem — позиция каталога.
type MenuItem struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    MenuCategory
	Available   bool
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate проверяет редактируемые поля позиции.
func (m MenuItem) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return NewValidationError("name", errors.New("name is required"))
	}
	if m.Price.IsNegative() {
		return NewValidationError("price", ErrPriceNegative)
	}
	if !m.Category.Valid() {
		return NewValidationError("category", errCategoryUnknown)
	}
	return nil
}
