package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

// integrationTables очищаются между тестами; порядок не важен благодаря CASCADE.
var integrationTables = []string{
	"idempotency_keys",
	"outbox_messages",
	"timeline_events",
	"notifications",
	"order_items",
	"orders",
	"menu_items",
	"staff",
	"customers",
}

// openPostgresStoreForIntegrationTest открывает store с применённой схемой и пустыми таблицами.
func openPostgresStoreForIntegrationTest(t *testing.T) *Store {
	t.Helper()

	store := openRawPostgresStoreForIntegrationTest(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, store.MigrateUp(ctx, 0), "migrate up")
	_, err := store.DB().ExecContext(ctx,
		`TRUNCATE TABLE `+strings.Join(integrationTables, ", ")+` RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "truncate integration tables")
	return store
}

// openRawPostgresStoreForIntegrationTest пропускает тест без CAFE_TEST_POSTGRES_DSN.
// Заданный, но недоступный DSN считается ошибкой окружения.
func openRawPostgresStoreForIntegrationTest(t *testing.T) *Store {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("CAFE_TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("CAFE_TEST_POSTGRES_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := Open(ctx, dsn)
	require.NoError(t, err, "open postgres")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func intRef(v int) *int { return &v }

// sampleOrder собирает pending-заказ с total, равным сумме строк.
func sampleOrder(id, number string, at time.Time, lines ...domain.OrderLine) domain.Order {
	order := domain.Order{
		ID:           id,
		OrderNumber:  number,
		CustomerName: "Asha",
		TableNumber:  intRef(4),
		TotalAmount:  decimal.Zero,
		Status:       domain.OrderStatusPending,
		OrderTime:    at,
	}
	for _, line := range lines {
		line.OrderID = id
		order.TotalAmount = order.TotalAmount.Add(line.Amount())
		order.Lines = append(order.Lines, line)
	}
	return order
}

func seedMenuItem(t *testing.T, store *Store, id, name string, price string) domain.MenuItem {
	t.Helper()

	item, err := NewMenuRepository(store).Create(context.Background(), domain.MenuItem{
		ID:        id,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Category:  domain.MenuCategoryFood,
		Available: true,
	})
	require.NoError(t, err, "seed menu item %s", id)
	return item
}
