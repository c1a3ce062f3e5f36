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

const staffColumns = `id, name, role, contact, shift, status, avatar_url, created_at, updated_at`

type staffRepository struct {
	db *sql.DB
}

// NewStaffRepository создаёт PostgreSQL-реализацию StaffRepository.
func NewStaffRepository(store *Store) domain.StaffRepository {
	return &staffRepository{db: store.DB()}
}

func (r *staffRepository) List(ctx context.Context) ([]domain.Staff, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+staffColumns+` FROM staff ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Staff, 0)
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staff: %w", err)
	}
	return result, nil
}

func (r *staffRepository) Create(ctx context.Context, s domain.Staff) (domain.Staff, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO staff (`+staffColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, s.ID, s.Name, string(s.Role), s.Contact, s.Shift, string(s.Status), s.AvatarURL, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Staff{}, domain.ErrAlreadyExists
		}
		return domain.Staff{}, fmt.Errorf("insert staff: %w", err)
	}
	return s, nil
}

func (r *staffRepository) Update(ctx context.Context, s domain.Staff) (domain.Staff, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	updated, err := scanStaff(r.db.QueryRowContext(ctx, `
		UPDATE staff
		SET name = $1, role = $2, contact = $3, shift = $4, status = $5, avatar_url = $6, updated_at = $7
		WHERE id = $8
		RETURNING `+staffColumns,
		s.Name, string(s.Role), s.Contact, s.Shift, string(s.Status), s.AvatarURL, time.Now().UTC(), s.ID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Staff{}, domain.ErrStaffNotFound
		}
		return domain.Staff{}, fmt.Errorf("update staff: %w", err)
	}
	return updated, nil
}

func (r *staffRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	return rowsAffected(res, "delete staff", domain.ErrStaffNotFound)
}

func scanStaff(row rowScanner) (domain.Staff, error) {
	var (
		s            domain.Staff
		role, status string
	)
	if err := row.Scan(&s.ID, &s.Name, &role, &s.Contact, &s.Shift, &status, &s.AvatarURL, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return domain.Staff{}, err
	}
	s.Role = domain.StaffRole(role)
	s.Status = domain.StaffStatus(status)
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

var _ domain.StaffRepository = (*staffRepository)(nil)
