// Package dashboard считает сводку главного экрана.
package dashboard

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/shopspring/decimal"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/metrics"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/resource"
)

// RecentOrdersLimit — сколько последних заказов попадает в сводку.
const RecentOrdersLimit = 5

// Service собирает DashboardStats из заказов, меню и персонала.
type Service struct {
	orders domain.OrderRepository
	menu   domain.MenuRepository
	staff  domain.StaffRepository
	loc    *time.Location
	now    func() time.Time
	hook   *resource.Hook[domain.DashboardStats]
}

// Option настраивает Service.
type Option func(*Service)

// WithLocation задаёт часовой пояс, в котором считается «сегодня».
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithNow подменяет часы.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService создаёт сервис сводки.
func NewService(orders domain.OrderRepository, menu domain.MenuRepository, staff domain.StaffRepository,
	logger *log.Entry, notifier domain.Notifier, m *metrics.CafeMetrics, opts ...Option) *Service {
	if logger == nil {
		logger = log.WithField("component", "dashboard")
	}
	s := &Service{
		orders: orders,
		menu:   menu,
		staff:  staff,
		loc:    time.Local,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	fetch := func(ctx context.Context) ([]domain.DashboardStats, error) {
		stats, err := s.compute(ctx, s.now())
		if err != nil {
			return nil, err
		}
		return []domain.DashboardStats{stats}, nil
	}
	s.hook = resource.New("dashboard", fetch,
		resource.WithLogger(logger),
		resource.WithNotifier(notifier),
		resource.WithMetrics(m),
		resource.WithLoadErrorMessage("Failed to load dashboard stats"),
	)
	return s
}

// Hook возвращает ресурсный хук сводки.
func (s *Service) Hook() *resource.Hook[domain.DashboardStats] {
	return s.hook
}

// Stats перечитывает сводку на текущий момент.
func (s *Service) Stats(ctx context.Context) (domain.DashboardStats, error) {
	if err := s.hook.Refresh(ctx); err != nil {
		return domain.DashboardStats{}, err
	}
	rows := s.hook.Rows()
	if len(rows) == 0 {
		return domain.DashboardStats{}, nil
	}
	return rows[0], nil
}

// DayWindow возвращает полуоткрытый интервал календарных суток, содержащих now, в поясе loc.
// В дни перевода часов сутки длятся 23 или 25 часов.
func DayWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

func (s *Service) compute(ctx context.Context, now time.Time) (domain.DashboardStats, error) {
	from, to := DayWindow(now, s.loc)
	orders, err := s.orders.List(ctx, domain.OrderFilter{From: from, To: to})
	if err != nil {
		return domain.DashboardStats{}, err
	}
	recent, err := s.orders.List(ctx, domain.OrderFilter{})
	if err != nil {
		return domain.DashboardStats{}, err
	}
	if len(recent) > RecentOrdersLimit {
		recent = recent[:RecentOrdersLimit]
	}
	items, err := s.menu.List(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	members, err := s.staff.List(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	stats := domain.DashboardStats{TodaySales: decimal.Zero, TodayOrders: len(orders), RecentOrders: recent}
	for _, o := range orders {
		stats.TodaySales = stats.TodaySales.Add(o.TotalAmount)
	}
	for _, item := range items {
		if item.Available {
			stats.AvailableItems++
		}
	}
	for _, m := range members {
		if m.Status == domain.StaffStatusActive {
			stats.ActiveStaff++
		}
	}
	return stats, nil
}
