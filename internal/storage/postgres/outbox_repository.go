package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

// OutboxRepository — таблица outbox_messages.
type OutboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{db: store.DB()}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Attempts, msg.LastError, msg.CreatedAt = 0, "", time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO outbox_messages (id, aggregate_type, aggregate_id, event_type, payload, next_attempt_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $6)`,
		msg.ID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.Payload, msg.CreatedAt,
	)
	switch {
	case isUniqueViolation(err):
		return domain.OutboxMessage{}, domain.ErrAlreadyExists
	case err != nil:
		return domain.OutboxMessage{}, fmt.Errorf("enqueue outbox message: %w", err)
	}
	return msg, nil
}

// Claim сдвигает next_attempt_at выбранных строк на lease. SKIP LOCKED не даёт
// двум экземплярам сервиса забрать одно сообщение.
func (r *OutboxRepository) Claim(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]domain.OutboxMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		WITH due AS (
			SELECT id FROM outbox_messages
			WHERE status = 'pending' AND next_attempt_at <= $1
			ORDER BY created_at, id
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE outbox_messages o
		SET next_attempt_at = $3, updated_at = $1
		FROM due
		WHERE o.id = due.id
		RETURNING o.id, o.aggregate_type, o.aggregate_id, o.event_type, o.payload, o.attempt_count, o.last_error, o.created_at`,
		now.UTC(), orDefault(limit, 100), now.Add(lease).UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("claim outbox messages: %w", err)
	}
	defer rows.Close()

	var claimed []domain.OutboxMessage
	for rows.Next() {
		var msg domain.OutboxMessage
		if err := rows.Scan(&msg.ID, &msg.AggregateType, &msg.AggregateID, &msg.EventType,
			&msg.Payload, &msg.Attempts, &msg.LastError, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox message: %w", err)
		}
		msg.CreatedAt = msg.CreatedAt.UTC()
		claimed = append(claimed, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim outbox messages: %w", err)
	}
	// UPDATE ... RETURNING не сохраняет порядок CTE.
	sortOutbox(claimed)
	return claimed, nil
}

func (r *OutboxRepository) Acknowledge(ctx context.Context, id string) error {
	return r.transition(ctx, "acknowledge", id,
		`UPDATE outbox_messages SET status = 'sent', updated_at = $2 WHERE id = $1 AND status = 'pending'`)
}

func (r *OutboxRepository) Reschedule(ctx context.Context, id string, retryAt time.Time, lastErr string) error {
	return r.transition(ctx, "reschedule", id, `
		UPDATE outbox_messages
		SET attempt_count = attempt_count + 1, last_error = $3, next_attempt_at = $4, updated_at = $2
		WHERE id = $1 AND status = 'pending'`,
		lastErr, retryAt.UTC())
}

func (r *OutboxRepository) Bury(ctx context.Context, id string, lastErr string) error {
	return r.transition(ctx, "bury", id, `
		UPDATE outbox_messages
		SET status = 'failed', attempt_count = attempt_count + 1, last_error = $3, updated_at = $2
		WHERE id = $1 AND status = 'pending'`,
		lastErr)
}

func (r *OutboxRepository) Stats(ctx context.Context) (domain.OutboxStats, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		stats  domain.OutboxStats
		oldest sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			MIN(created_at) FILTER (WHERE status = 'pending')
		FROM outbox_messages
		WHERE status IN ('pending', 'failed')`,
	).Scan(&stats.PendingCount, &stats.FailedCount, &oldest)
	if err != nil {
		return domain.OutboxStats{}, fmt.Errorf("outbox stats: %w", err)
	}
	if oldest.Valid {
		stats.OldestPendingAt = oldest.Time.UTC()
	}
	return stats, nil
}

// transition выполняет UPDATE с аргументами (id, now, extra...).
func (r *OutboxRepository) transition(ctx context.Context, op, id, query string, extra ...any) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	args := append([]any{id, time.Now().UTC()}, extra...)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s outbox message %s: %w", op, id, err)
	}
	return rowsAffected(res, op+" outbox message", domain.ErrOutboxMessageNotFound)
}

func sortOutbox(msgs []domain.OutboxMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}

var _ domain.OutboxRepository = (*OutboxRepository)(nil)
