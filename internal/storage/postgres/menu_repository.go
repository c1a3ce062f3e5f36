package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

const menuColumns = `id, name, description, price, category, available, image_url, created_at, updated_at`

type menuRepository struct {
	db *sql.DB
}

// NewMenuRepository создаёт PostgreSQL-реализацию MenuRepository.
func NewMenuRepository(store *Store) domain.MenuRepository {
	return &menuRepository{db: store.DB()}
}

func (r *menuRepository) List(ctx context.Context) ([]domain.MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+menuColumns+` FROM menu_items ORDER BY category, name, id`)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.MenuItem, 0)
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu items: %w", err)
	}
	return items, nil
}

func (r *menuRepository) Get(ctx context.Context, id string) (domain.MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	item, err := scanMenuItem(r.db.QueryRowContext(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.MenuItem{}, domain.ErrMenuItemNotFound
		}
		return domain.MenuItem{}, fmt.Errorf("get menu item: %w", err)
	}
	return item, nil
}

func (r *menuRepository) Create(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO menu_items (`+menuColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		item.ID, item.Name, item.Description, item.Price, string(item.Category),
		item.Available, item.ImageURL, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.MenuItem{}, domain.ErrAlreadyExists
		}
		return domain.MenuItem{}, fmt.Errorf("insert menu item: %w", err)
	}
	return item, nil
}

func (r *menuRepository) Update(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	updated, err := scanMenuItem(r.db.QueryRowContext(ctx, `
		UPDATE menu_items
		SET name = $1, description = $2, price = $3, category = $4,
		    available = $5, image_url = $6, updated_at = $7
		WHERE id = $8
		RETURNING `+menuColumns,
		item.Name, item.Description, item.Price, string(item.Category),
		item.Available, item.ImageURL, time.Now().UTC(), item.ID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.MenuItem{}, domain.ErrMenuItemNotFound
		}
		return domain.MenuItem{}, fmt.Errorf("update menu item: %w", err)
	}
	return updated, nil
}

func (r *menuRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	return rowsAffected(res, "delete menu item", domain.ErrMenuItemNotFound)
}

func scanMenuItem(row rowScanner) (domain.MenuItem, error) {
	var (
		item     domain.MenuItem
		category string
	)
	if err := row.Scan(
		&item.ID, &item.Name, &item.Description, &item.Price, &category,
		&item.Available, &item.ImageURL, &item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return domain.MenuItem{}, err
	}
	item.Category = domain.MenuCategory(category)
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return item, nil
}

var _ domain.MenuRepository = (*menuRepository)(nil)
