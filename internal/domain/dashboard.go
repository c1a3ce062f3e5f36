package domain

import "github.com/shopspring/decimal"

// DashboardStats — сводка для главного экрана.
type DashboardStats struct {
	TodaySales     decimal.Decimal
	TodayOrders    int
	AvailableItems int
	ActiveStaff    int
	// RecentOrders — последние заказы за всё время, новые первыми.
	RecentOrders []Order
}
