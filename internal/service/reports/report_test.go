package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/storage/memory"
)

func line(menuID string, qty int, price string) domain.OrderLine {
	return domain.OrderLine{MenuItemID: menuID, Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}

func fixture(t *testing.T) *Builder {
	t.Helper()
	orders := memory.NewOrderRepository()
	ctx := context.Background()
	seed := []domain.Order{
		{ID: "o1", OrderNumber: "ORD-000001", CustomerName: "Asha", TotalAmount: decimal.RequireFromString("600"),
			Status: domain.OrderStatusCompleted, OrderTime: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
			Lines: []domain.OrderLine{line("chai", 5, "40"), line("samosa", 2, "30")}},
		{ID: "o2", OrderNumber: "ORD-000002", CustomerName: "Ravi", TotalAmount: decimal.RequireFromString("300"),
			Status: domain.OrderStatusPending, OrderTime: time.Date(2026, 5, 3, 23, 30, 0, 0, time.UTC),
			Lines: []domain.OrderLine{line("samosa", 4, "30"), line("brownie", 1, "90"), line("latte", 1, "90")}},
		{ID: "o3", OrderNumber: "ORD-000003", CustomerName: "Old", TotalAmount: decimal.RequireFromString("1000"),
			Status: domain.OrderStatusCompleted, OrderTime: time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC)},
	}
	for _, o := range seed {
		require.NoError(t, orders.CreateWithLines(ctx, o))
	}

	menu := memory.NewMenuRepository(
		domain.MenuItem{ID: "chai", Name: "Masala Chai", Category: domain.MenuCategoryBeverage, Price: decimal.NewFromInt(40), Available: true},
		domain.MenuItem{ID: "samosa", Name: "Samosa", Category: domain.MenuCategoryFood, Price: decimal.NewFromInt(30), Available: false},
		domain.MenuItem{ID: "brownie", Name: "Brownie", Category: domain.MenuCategoryDessert, Price: decimal.NewFromInt(90), Available: true},
		domain.MenuItem{ID: "latte", Name: "Latte", Category: domain.MenuCategoryBeverage, Price: decimal.NewFromInt(90), Available: true},
	)
	staff := memory.NewStaffRepository(
		domain.Staff{ID: "s1", Name: "Meera", Role: domain.StaffRoleBarista, Status: domain.StaffStatusActive},
	)
	customers := memory.NewCustomerRepository(
		domain.Customer{ID: "c1", Name: "Asha", Email: "asha@example.com", TotalOrders: 12, LoyaltyPoints: 300, Status: domain.CustomerStatusVIP},
	)
	return NewBuilder(orders, menu, staff, customers, time.UTC, nil).
		WithNow(func() time.Time { return time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC) })
}

func TestComputeSales(t *testing.T) {
	m := ComputeSales([]domain.Order{
		{TotalAmount: decimal.RequireFromString("1000"), Lines: []domain.OrderLine{{ItemName: "Latte", Quantity: 2}}},
		{TotalAmount: decimal.RequireFromString("500"), Lines: []domain.OrderLine{{ItemName: "Latte", Quantity: 1}, {ItemName: "Brownie", Quantity: 3}}},
	})

	require.Equal(t, "1500", m.TotalRevenue.String())
	require.Equal(t, 2, m.OrderCount)
	require.Equal(t, "50", m.DailyAverage.String())
	require.Equal(t, "350", m.WeeklyTotal.String())
	require.Equal(t, []ItemSales{{Name: "Brownie", Quantity: 3}, {Name: "Latte", Quantity: 3}}, m.TopItems)
}

func TestComputeSalesEmpty(t *testing.T) {
	m := ComputeSales(nil)
	require.True(t, m.TotalRevenue.IsZero())
	require.True(t, m.DailyAverage.IsZero())
	require.Empty(t, m.TopItems)
}

func TestSnapshotRangeIsInclusiveByDay(t *testing.T) {
	b := fixture(t)
	snap, err := b.Snapshot(context.Background(), Range{
		From: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, snap.Orders, 2)
	require.Equal(t, "900", snap.Sales.TotalRevenue.String())
	require.Equal(t, "30", snap.Sales.DailyAverage.String())
	require.Equal(t, "210", snap.Sales.WeeklyTotal.String())
	require.Equal(t, ItemSales{Name: "Samosa", Quantity: 6}, snap.Sales.TopItems[0])
	require.Len(t, snap.Sales.TopItems, TopItemsLimit)
}

func TestSnapshotRejectsInvertedRange(t *testing.T) {
	_, err := fixture(t).Snapshot(context.Background(), Range{
		From: time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, domain.ErrValidation)
}

type failingStaff struct{ domain.StaffRepository }

func (failingStaff) List(context.Context) ([]domain.Staff, error) {
	return nil, errors.New("timeout")
}

func TestSnapshotPropagatesReadError(t *testing.T) {
	b := NewBuilder(memory.NewOrderRepository(), memory.NewMenuRepository(), failingStaff{}, memory.NewCustomerRepository(), nil, nil)
	_, err := b.Snapshot(context.Background(), Range{})
	require.ErrorIs(t, err, domain.ErrRemote)
}

func TestExportCSV(t *testing.T) {
	snap, err := fixture(t).Snapshot(context.Background(), Range{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, snap, KindAll))

	r := csv.NewReader(bytes.NewReader(buf.Bytes()))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)

	require.Equal(t, []string{"Sales Summary"}, records[0])
	require.Equal(t, []string{"Metric", "Value"}, records[1])
	require.Equal(t, []string{"Daily Average", "₹63.33"}, records[2])
	require.Equal(t, []string{"Weekly Total", "₹443.33"}, records[3])
	require.Equal(t, []string{"Monthly Total", "₹1,900.00"}, records[4])
	require.Equal(t, []string{"Total Orders", "3"}, records[5])

	text := buf.String()
	require.Contains(t, text, "Samosa,Food,₹30.00,No\n")
	require.Contains(t, text, "Meera,Barista,N/A,active\n")
	require.Contains(t, text, "Asha,asha@example.com,N/A,12,300\n")
}

func TestExportCSVSingleSection(t *testing.T) {
	snap, err := fixture(t).Snapshot(context.Background(), Range{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, snap, KindStaff))
	require.Equal(t, "Staff Report\nName,Role,Contact,Status\nMeera,Barista,N/A,active\n\n", buf.String())
}

func TestExportPDF(t *testing.T) {
	snap, err := fixture(t).Snapshot(context.Background(), Range{From: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportPDF(&buf, snap, KindAll))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	require.Greater(t, buf.Len(), 1000)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	require.Equal(t, KindAll, k)

	k, err = ParseKind("Menu")
	require.NoError(t, err)
	require.Equal(t, KindMenu, k)

	_, err = ParseKind("payroll")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	require.Equal(t, "cafe-report-2026-05-04.csv", FileName(at, "csv"))
	require.Equal(t, "cafe-report-2026-05-04.pdf", FileName(at, ".pdf"))
}
