// Package cart накапливает позиции текущего заказа и считает итоги.
package cart

import (
	"github.com/shopspring/decimal"
)

// TaxRate — фиксированная ставка налога (5%).
var TaxRate = decimal.RequireFromString("0.05")

// moneyPlaces — точность денежных сумм (минимальная единица валюты).
const moneyPlaces = 2

// Item — денормализованная копия позиции меню на момент добавления.
type Item struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
}

// Line — строка корзины. Quantity всегда >= 1.
type Line struct {
	ItemID    string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Amount возвращает стоимость строки.
func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals — производные суммы корзины.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Cart — упорядоченный набор строк, по одной на позицию меню.
// Владелец один, синхронизации нет.
type Cart struct {
	lines []Line
	index map[string]int
}

// New создаёт пустую корзину.
func New() *Cart {
	return &Cart{index: make(map[string]int)}
}

// FromLines собирает корзину из готовых строк; повторы одной позиции складываются,
// строки с Quantity <= 0 отбрасываются.
func FromLines(lines []Line) *Cart {
	c := New()
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if i, ok := c.index[l.ItemID]; ok {
			c.lines[i].Quantity += l.Quantity
			continue
		}
		c.index[l.ItemID] = len(c.lines)
		c.lines = append(c.lines, l)
	}
	return c
}

// AddItem увеличивает количество существующей строки на 1 или добавляет новую.
func (c *Cart) AddItem(item Item) {
	if i, ok := c.index[item.ID]; ok {
		c.lines[i].Quantity++
		return
	}
	c.index[item.ID] = len(c.lines)
	c.lines = append(c.lines, Line{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		Quantity:  1,
	})
}

// SetQuantity задаёт количество. n <= 0 удаляет строку, отсутствующая позиция игнорируется.
func (c *Cart) SetQuantity(itemID string, n int) {
	if n <= 0 {
		c.RemoveItem(itemID)
		return
	}
	if i, ok := c.index[itemID]; ok {
		c.lines[i].Quantity = n
	}
}

// RemoveItem удаляет строку, если она есть.
func (c *Cart) RemoveItem(itemID string) {
	i, ok := c.index[itemID]
	if !ok {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, itemID)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].ItemID] = j
	}
}

// Clear очищает корзину.
func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[string]int)
}

// Len возвращает число строк.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Lines возвращает копию строк в порядке добавления.
func (c *Cart) Lines() []Line {
	return append([]Line(nil), c.lines...)
}

// ComputeTotals пересчитывает итоги по текущему набору строк.
func (c *Cart) ComputeTotals() Totals {
	return ComputeTotals(c.lines)
}

// Checkout возвращает строки с итогами и очищает корзину.
func (c *Cart) Checkout() ([]Line, Totals) {
	lines := c.Lines()
	totals := c.ComputeTotals()
	c.Clear()
	return lines, totals
}

// ComputeTotals считает subtotal, налог и итог для произвольного набора строк.
func ComputeTotals(lines []Line) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Amount())
	}
	tax := subtotal.Mul(TaxRate).Round(moneyPlaces)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}
