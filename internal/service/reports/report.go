// Package reports строит сводные отчёты кафе и выгружает их в CSV и PDF.
package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/shopspring/decimal"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

// Kind — состав отчёта.
type Kind string

const (
	KindAll       Kind = "all"
	KindSales     Kind = "sales"
	KindMenu      Kind = "menu"
	KindStaff     Kind = "staff"
	KindCustomers Kind = "customers"
)

// TopItemsLimit — сколько позиций попадает в список лидеров продаж.
const TopItemsLimit = 3

var (
	daysInMonth = decimal.NewFromInt(30)
	daysInWeek  = decimal.NewFromInt(7)
)

// ParseKind разбирает тип отчёта; пустая строка означает полный отчёт.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case "":
		return KindAll, nil
	case KindAll, KindSales, KindMenu, KindStaff, KindCustomers:
		return k, nil
	default:
		return "", domain.NewValidationError("type", fmt.Errorf("unknown report type %q", raw))
	}
}

func (k Kind) includes(section Kind) bool {
	return k == KindAll || k == "" || k == section
}

// Range — период отчёта по датам, обе границы включительно. Нулевая граница не ограничивает.
type Range struct {
	From time.Time
	To   time.Time
}

// Filter переводит период в полуоткрытый фильтр заказов.
func (r Range) Filter(loc *time.Location) domain.OrderFilter {
	var f domain.OrderFilter
	if !r.From.IsZero() {
		f.From = startOfDay(r.From, loc)
	}
	if !r.To.IsZero() {
		f.To = startOfDay(r.To, loc).AddDate(0, 0, 1)
	}
	return f
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// ItemSales — продажи одной позиции.
type ItemSales struct {
	Name     string `json:"name"`
	Quantity int    `json:"sold"`
}

// SalesMetrics — показатели продаж за период.
type SalesMetrics struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	OrderCount   int             `json:"order_count"`
	DailyAverage decimal.Decimal `json:"daily_average"`
	WeeklyTotal  decimal.Decimal `json:"weekly_total"`
	TopItems     []ItemSales     `json:"top_items"`
}

// ComputeSales считает показатели по заказам. Дневное среднее берётся от 30-дневного месяца.
func ComputeSales(orders []domain.Order) SalesMetrics {
	revenue := decimal.Zero
	sold := make(map[string]*ItemSales)
	for _, o := range orders {
		revenue = revenue.Add(o.TotalAmount)
		for _, line := range o.Lines {
			name := line.ItemName
			if name == "" {
				name = line.MenuItemID
			}
			entry, ok := sold[name]
			if !ok {
				entry = &ItemSales{Name: name}
				sold[name] = entry
			}
			entry.Quantity += line.Quantity
		}
	}

	top := make([]ItemSales, 0, len(sold))
	for _, entry := range sold {
		top = append(top, *entry)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Quantity != top[j].Quantity {
			return top[i].Quantity > top[j].Quantity
		}
		return top[i].Name < top[j].Name
	})
	if len(top) > TopItemsLimit {
		top = top[:TopItemsLimit]
	}

	daily := revenue.Div(daysInMonth)
	return SalesMetrics{
		TotalRevenue: revenue,
		OrderCount:   len(orders),
		DailyAverage: daily.Round(2),
		WeeklyTotal:  daily.Mul(daysInWeek).Round(2),
		TopItems:     top,
	}
}

// Snapshot — согласованный на момент выгрузки срез данных для отчёта.
type Snapshot struct {
	GeneratedAt time.Time
	Range       Range
	Orders      []domain.Order
	Menu        []domain.MenuItem
	Staff       []domain.Staff
	Customers   []domain.Customer
	Sales       SalesMetrics
}

// Builder собирает Snapshot из репозиториев.
type Builder struct {
	orders    domain.OrderRepository
	menu      domain.MenuRepository
	staff     domain.StaffRepository
	customers domain.CustomerRepository
	loc       *time.Location
	now       func() time.Time
	logger    *log.Entry
}

// NewBuilder создаёт Builder. loc задаёт границы суток для периода, nil означает time.Local.
func NewBuilder(orders domain.OrderRepository, menu domain.MenuRepository, staff domain.StaffRepository,
	customers domain.CustomerRepository, loc *time.Location, logger *log.Entry) *Builder {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.WithField("component", "reports")
	}
	return &Builder{
		orders:    orders,
		menu:      menu,
		staff:     staff,
		customers: customers,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// WithNow подменяет часы; используется в тестах и офлайн-выгрузке.
func (b *Builder) WithNow(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Location возвращает часовой пояс отчёта.
func (b *Builder) Location() *time.Location {
	return b.loc
}

// Snapshot читает все четыре ресурса. Ошибка любого чтения прерывает сборку.
func (b *Builder) Snapshot(ctx context.Context, r Range) (Snapshot, error) {
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return Snapshot{}, domain.NewValidationError("to", fmt.Errorf("end date is before start date"))
	}

	orders, err := b.orders.List(ctx, r.Filter(b.loc))
	if err != nil {
		return Snapshot{}, domain.NewRemoteError("reports.orders", err)
	}
	menu, err := b.menu.List(ctx)
	if err != nil {
		return Snapshot{}, domain.NewRemoteError("reports.menu", err)
	}
	staff, err := b.staff.List(ctx)
	if err != nil {
		return Snapshot{}, domain.NewRemoteError("reports.staff", err)
	}
	customers, err := b.customers.List(ctx)
	if err != nil {
		return Snapshot{}, domain.NewRemoteError("reports.customers", err)
	}

	names := make(map[string]string, len(menu))
	for _, item := range menu {
		names[item.ID] = item.Name
	}
	for i := range orders {
		for j := range orders[i].Lines {
			if orders[i].Lines[j].ItemName == "" {
				orders[i].Lines[j].ItemName = names[orders[i].Lines[j].MenuItemID]
			}
		}
	}

	snap := Snapshot{
		GeneratedAt: b.now().In(b.loc),
		Range:       r,
		Orders:      orders,
		Menu:        menu,
		Staff:       staff,
		Customers:   customers,
		Sales:       ComputeSales(orders),
	}
	b.logger.WithFields(log.Fields{
		"orders":    len(orders),
		"menu":      len(menu),
		"staff":     len(staff),
		"customers": len(customers),
	}).Debug("report snapshot built")
	return snap, nil
}

// FileName возвращает имя файла выгрузки вида cafe-report-2026-05-01.csv.
func FileName(at time.Time, ext string) string {
	return fmt.Sprintf("cafe-report-%s.%s", at.Format(time.DateOnly), strings.TrimPrefix(ext, "."))
}
