package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

const customerColumns = `id, name, email, phone, total_orders, loyalty_points, last_visit, status, created_at, updated_at`

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository создаёт PostgreSQL-реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepository{db: store.DB()}
}

func (r *customerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return result, nil
}

func (r *customerRepository) Update(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	updated, err := scanCustomer(r.db.QueryRowContext(ctx, `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, total_orders = $4, loyalty_points = $5,
		    last_visit = $6, status = $7, updated_at = $8
		WHERE id = $9
		RETURNING `+customerColumns,
		c.Name, c.Email, c.Phone, c.TotalOrders, c.LoyaltyPoints,
		nullableTime(c.LastVisit), string(c.Status), time.Now().UTC(), c.ID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return updated, nil
}

func scanCustomer(row rowScanner) (domain.Customer, error) {
	var (
		c         domain.Customer
		lastVisit sql.NullTime
		status    string
	)
	if err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.TotalOrders, &c.LoyaltyPoints,
		&lastVisit, &status, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return domain.Customer{}, err
	}
	c.LastVisit = timePtr(lastVisit)
	c.Status = domain.CustomerStatus(status)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

var _ domain.CustomerRepository = (*customerRepository)(nil)
