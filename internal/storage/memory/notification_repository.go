package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

// NotificationRepository — in-memory лента уведомлений.
type NotificationRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Notification
	now   func() time.Time
}

// NewNotificationRepository создаёт пустую ленту.
func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		items: make(map[string]domain.Notification),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Latest возвращает последние limit уведомлений.
func (r *NotificationRepository) Latest(_ context.Context, limit int) ([]domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Notification, 0, len(r.items))
	for _, n := range r.items {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Create добавляет уведомление.
func (r *NotificationRepository) Create(_ context.Context, n domain.Notification) (domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now()
	}
	r.items[n.ID] = n
	return n, nil
}

// MarkAsRead помечает уведомление прочитанным.
func (r *NotificationRepository) MarkAsRead(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.items[id]
	if !ok {
		return domain.ErrNotificationNotFound
	}
	n.IsRead = true
	r.items[id] = n
	return nil
}

var _ domain.NotificationRepository = (*NotificationRepository)(nil)
