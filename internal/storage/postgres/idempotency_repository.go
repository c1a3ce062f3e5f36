package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

const idempotencyColumns = `scope, key, request_hash, response_body, status_code, status, expires_at, created_at, updated_at`

// IdempotencyRepository хранит ключи идемпотентности в таблице idempotency_keys.
type IdempotencyRepository struct {
	db *sql.DB
}

// NewIdempotencyRepository создаёт репозиторий поверх store.
func NewIdempotencyRepository(store *Store) *IdempotencyRepository {
	return &IdempotencyRepository{db: store.DB()}
}

// Reserve вставляет запись processing. Конфликт по (scope, key) перезаписывает
// строку только если её срок истёк; иначе возвращается существующая запись.
func (r *IdempotencyRepository) Reserve(ctx context.Context, key domain.IdempotencyKey, requestHash string, expiresAt time.Time) (domain.IdempotencyRecord, error) {
	key = domain.NewIdempotencyKey(key.Scope, key.Value)
	if err := key.Validate(); err != nil {
		return domain.IdempotencyRecord{}, err
	}
	requestHash = strings.TrimSpace(requestHash)
	if requestHash == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyRequestHashRequired
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	record := domain.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Status:      domain.IdempotencyStatusProcessing,
		ExpiresAt:   expiresAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var reservedAt time.Time
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO idempotency_keys (scope, key, request_hash, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (scope, key) DO UPDATE SET
			request_hash  = EXCLUDED.request_hash,
			response_body = NULL,
			status_code   = NULL,
			status        = EXCLUDED.status,
			expires_at    = EXCLUDED.expires_at,
			created_at    = EXCLUDED.created_at,
			updated_at    = EXCLUDED.updated_at
		WHERE idempotency_keys.expires_at <= EXCLUDED.created_at
		RETURNING created_at`,
		key.Scope, key.Value, requestHash, string(record.Status), record.ExpiresAt, now,
	).Scan(&reservedAt)
	switch {
	case err == nil:
		return record, nil
	case !errors.Is(err, sql.ErrNoRows):
		return domain.IdempotencyRecord{}, fmt.Errorf("reserve idempotency key %s: %w", key, err)
	}

	existing, err := r.Get(ctx, key)
	if err != nil {
		return domain.IdempotencyRecord{}, fmt.Errorf("load conflicting idempotency key %s: %w", key, err)
	}
	if existing.RequestHash != requestHash {
		return existing, domain.ErrIdempotencyHashMismatch
	}
	return existing, domain.ErrIdempotencyKeyAlreadyExists
}

// Get читает запись по ключу.
func (r *IdempotencyRepository) Get(ctx context.Context, key domain.IdempotencyKey) (domain.IdempotencyRecord, error) {
	key = domain.NewIdempotencyKey(key.Scope, key.Value)
	if err := key.Validate(); err != nil {
		return domain.IdempotencyRecord{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx,
		`SELECT `+idempotencyColumns+` FROM idempotency_keys WHERE scope = $1 AND key = $2`,
		key.Scope, key.Value)
	record, err := scanIdempotencyRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyNotFound
	}
	if err != nil {
		return domain.IdempotencyRecord{}, fmt.Errorf("get idempotency key %s: %w", key, err)
	}
	return record, nil
}

// Resolve сохраняет ответ. Запись, уже закрытая другим вызовом, не меняется.
func (r *IdempotencyRepository) Resolve(ctx context.Context, key domain.IdempotencyKey, status domain.IdempotencyStatus, responseBody []byte, statusCode int) error {
	key = domain.NewIdempotencyKey(key.Scope, key.Value)
	if err := key.Validate(); err != nil {
		return err
	}
	if !status.Terminal() {
		return domain.ErrIdempotencyUnresolvedStatus
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE idempotency_keys
		SET status = $3, response_body = $4, status_code = $5, updated_at = $6
		WHERE scope = $1 AND key = $2 AND status = 'processing'`,
		key.Scope, key.Value, string(status), responseBody, statusCode, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("resolve idempotency key %s: %w", key, err)
	}
	return rowsAffected(res, "resolve idempotency key", domain.ErrIdempotencyKeyNotFound)
}

// DeleteExpired удаляет до limit просроченных записей, начиная с самых старых.
func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error) {
	if before.IsZero() {
		before = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `DELETE FROM idempotency_keys WHERE expires_at <= $1`
	args := []any{before.UTC()}
	if limit > 0 {
		query = `
			DELETE FROM idempotency_keys
			WHERE (scope, key) IN (
				SELECT scope, key FROM idempotency_keys
				WHERE expires_at <= $1
				ORDER BY expires_at
				LIMIT $2
			)`
		args = append(args, limit)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired idempotency keys: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired idempotency keys: %w", err)
	}
	return int(n), nil
}

func scanIdempotencyRecord(row *sql.Row) (domain.IdempotencyRecord, error) {
	var (
		record     domain.IdempotencyRecord
		status     string
		statusCode sql.NullInt64
	)
	if err := row.Scan(
		&record.Key.Scope, &record.Key.Value, &record.RequestHash, &record.ResponseBody,
		&statusCode, &status, &record.ExpiresAt, &record.CreatedAt, &record.UpdatedAt,
	); err != nil {
		return domain.IdempotencyRecord{}, err
	}

	record.Status = domain.IdempotencyStatus(status)
	if !record.Status.Valid() {
		return domain.IdempotencyRecord{}, fmt.Errorf("unknown idempotency status %q", status)
	}
	if statusCode.Valid {
		record.StatusCode = int(statusCode.Int64)
	}
	record.ExpiresAt = record.ExpiresAt.UTC()
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return record, nil
}

var _ domain.IdempotencyRepository = (*IdempotencyRepository)(nil)
