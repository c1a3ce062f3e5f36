package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

type outboxEntry struct {
	msg       domain.OutboxMessage
	status    domain.OutboxStatus
	nextRetry time.Time
}

// OutboxRepository — in-memory outbox с теми же правилами claim/lease, что и в postgres.
type OutboxRepository struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]*outboxEntry
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{
		now:     func() time.Time { return time.Now().UTC() },
		entries: make(map[string]*outboxEntry),
	}
}

// Enqueue сохраняет сообщение как pending и сразу доступным для Claim.
func (r *OutboxRepository) Enqueue(_ context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if _, exists := r.entries[msg.ID]; exists {
		return domain.OutboxMessage{}, domain.ErrAlreadyExists
	}
	now := r.now()
	msg.Attempts, msg.LastError, msg.CreatedAt = 0, "", now
	r.entries[msg.ID] = &outboxEntry{msg: msg, status: domain.OutboxPending, nextRetry: now}
	return msg, nil
}

func (r *OutboxRepository) Claim(_ context.Context, now time.Time, limit int, lease time.Duration) ([]domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	due := r.pendingLocked(func(e *outboxEntry) bool { return !e.nextRetry.After(now) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	out := make([]domain.OutboxMessage, 0, len(due))
	for _, e := range due {
		e.nextRetry = now.Add(lease)
		out = append(out, e.msg)
	}
	return out, nil
}

func (r *OutboxRepository) Acknowledge(_ context.Context, id string) error {
	return r.update(id, func(e *outboxEntry) { e.status = domain.OutboxSent })
}

func (r *OutboxRepository) Reschedule(_ context.Context, id string, retryAt time.Time, lastErr string) error {
	return r.update(id, func(e *outboxEntry) {
		e.msg.Attempts++
		e.msg.LastError = lastErr
		e.nextRetry = retryAt
	})
}

func (r *OutboxRepository) Bury(_ context.Context, id string, lastErr string) error {
	return r.update(id, func(e *outboxEntry) {
		e.msg.Attempts++
		e.msg.LastError = lastErr
		e.status = domain.OutboxFailed
	})
}

func (r *OutboxRepository) Stats(_ context.Context) (domain.OutboxStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats domain.OutboxStats
	for _, e := range r.entries {
		switch e.status {
		case domain.OutboxPending:
			stats.PendingCount++
			if stats.OldestPendingAt.IsZero() || e.msg.CreatedAt.Before(stats.OldestPendingAt) {
				stats.OldestPendingAt = e.msg.CreatedAt
			}
		case domain.OutboxFailed:
			stats.FailedCount++
		}
	}
	return stats, nil
}

// Pending возвращает все pending-сообщения в порядке создания, без учёта lease.
func (r *OutboxRepository) Pending() []domain.OutboxMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.pendingLocked(nil)
	out := make([]domain.OutboxMessage, len(entries))
	for i, e := range entries {
		out[i] = e.msg
	}
	return out
}

func (r *OutboxRepository) update(id string, fn func(*outboxEntry)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.status != domain.OutboxPending {
		return domain.ErrOutboxMessageNotFound
	}
	fn(e)
	return nil
}

func (r *OutboxRepository) pendingLocked(keep func(*outboxEntry) bool) []*outboxEntry {
	out := make([]*outboxEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.status == domain.OutboxPending && (keep == nil || keep(e)) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].msg.CreatedAt.Equal(out[j].msg.CreatedAt) {
			return out[i].msg.ID < out[j].msg.ID
		}
		return out[i].msg.CreatedAt.Before(out[j].msg.CreatedAt)
	})
	return out
}

var _ domain.OutboxRepository = (*OutboxRepository)(nil)
