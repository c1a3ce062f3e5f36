package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

const orderColumns = `id, order_number, customer_name, table_number, total_amount, status, order_time, updated_at`

// execer — общее подмножество *sql.DB и *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// OrderRepository — PostgreSQL-реализация domain.OrderRepository.
type OrderRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewOrderRepository создаёт репозиторий заказов.
func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{db: store.DB(), now: func() time.Time { return time.Now().UTC() }}
}

// GenerateOrderNumber вызывает generate_order_number().
func (r *OrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var number string
	if err := r.db.QueryRowContext(ctx, `SELECT generate_order_number()`).Scan(&number); err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	return number, nil
}

// Create сохраняет заголовок заказа.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return r.insertHeader(ctx, r.db, order)
}

// CreateLines сохраняет позиции заказа одной транзакцией.
func (r *OrderRepository) CreateLines(ctx context.Context, orderID string, lines []domain.OrderLine) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.inTx(ctx, "create order lines", func(tx *sql.Tx) error {
		return r.insertLines(ctx, tx, orderID, lines)
	})
}

// CreateWithLines сохраняет заголовок и позиции в одной транзакции.
func (r *OrderRepository) CreateWithLines(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.inTx(ctx, "create order", func(tx *sql.Tx) error {
		if err := r.insertHeader(ctx, tx, order); err != nil {
			return err
		}
		return r.insertLines(ctx, tx, order.ID, order.Lines)
	})
}

func (r *OrderRepository) insertHeader(ctx context.Context, db execer, order domain.Order) error {
	if order.OrderTime.IsZero() {
		order.OrderTime = r.now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		order.ID, order.OrderNumber, order.CustomerName, nullableInt(order.TableNumber),
		order.TotalAmount, string(order.Status), order.OrderTime.UTC(), order.OrderTime.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) insertLines(ctx context.Context, db execer, orderID string, lines []domain.OrderLine) error {
	now := r.now()
	for _, line := range lines {
		id := line.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := db.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, menu_item_id, quantity, unit_price, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, id, orderID, line.MenuItemID, line.Quantity, line.UnitPrice, now)
		if err != nil {
			switch {
			case isForeignKeyViolation(err):
				return domain.ErrOrderNotFound
			case isUniqueViolation(err):
				return domain.ErrAlreadyExists
			}
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

// Get возвращает заказ с позициями.
func (r *OrderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	order, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	if order.Lines, err = r.loadLines(ctx, order.ID); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// List возвращает заказы по фильтру, новые первыми.
func (r *OrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From.UTC())
		conds = append(conds, fmt.Sprintf("order_time >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To.UTC())
		conds = append(conds, fmt.Sprintf("order_time < $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY order_time DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	rows.Close()

	for i := range orders {
		if orders[i].Lines, err = r.loadLines(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// UpdateStatus меняет статус, только если текущий статус равен from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`, string(to), r.now(), id, string(from))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if err := rowsAffected(res, "update order status", domain.ErrOrderStatusConflict); err != nil {
		if !errors.Is(err, domain.ErrOrderStatusConflict) {
			return err
		}
		exists, existsErr := r.exists(ctx, id)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderStatusConflict
	}
	return nil
}

// UpdateHeader меняет редактируемые поля заголовка.
func (r *OrderRepository) UpdateHeader(ctx context.Context, id string, patch domain.OrderHeaderPatch) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET customer_name = $1, table_number = $2, total_amount = $3, updated_at = $4
		WHERE id = $5
	`, patch.CustomerName, nullableInt(patch.TableNumber), patch.TotalAmount, r.now(), id)
	if err != nil {
		return fmt.Errorf("update order header: %w", err)
	}
	return rowsAffected(res, "update order header", domain.ErrOrderNotFound)
}

// DeleteLines удаляет позиции заказа.
func (r *OrderRepository) DeleteLines(ctx context.Context, orderID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	return nil
}

// Delete удаляет заголовок заказа; позиции к этому моменту должны быть удалены.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return deleteHeader(ctx, r.db, id)
}

// DeleteWithLines удаляет позиции и заголовок в одной транзакции.
func (r *OrderRepository) DeleteWithLines(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.inTx(ctx, "delete order", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		return deleteHeader(ctx, tx, id)
	})
}

func deleteHeader(ctx context.Context, db execer, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("delete order %s: lines still reference it: %w", id, err)
		}
		return fmt.Errorf("delete order: %w", err)
	}
	return rowsAffected(res, "delete order", domain.ErrOrderNotFound)
}

func (r *OrderRepository) loadLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.menu_item_id, COALESCE(m.name, ''), oi.quantity, oi.unit_price
		FROM order_items oi
		LEFT JOIN menu_items m ON m.id = oi.menu_item_id
		WHERE oi.order_id = $1
		ORDER BY oi.created_at ASC, oi.id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.MenuItemID, &line.ItemName, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return lines, nil
}

func (r *OrderRepository) exists(ctx context.Context, id string) (bool, error) {
	var found string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, id).Scan(&found)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

func (r *OrderRepository) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s tx: %w", op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", op, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order  domain.Order
		table  sql.NullInt64
		status string
	)
	if err := row.Scan(
		&order.ID, &order.OrderNumber, &order.CustomerName, &table,
		&order.TotalAmount, &status, &order.OrderTime, &order.UpdatedAt,
	); err != nil {
		return domain.Order{}, err
	}
	order.TableNumber = intPtr(table)
	order.Status = domain.OrderStatus(status)
	order.OrderTime = order.OrderTime.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	return order, nil
}

var (
	_ domain.OrderRepository    = (*OrderRepository)(nil)
	_ domain.AtomicOrderCreator = (*OrderRepository)(nil)
	_ domain.AtomicOrderDeleter = (*OrderRepository)(nil)
)
