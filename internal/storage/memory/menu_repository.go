package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

// MenuRepository — in-memory каталог.
type MenuRepository struct {
	mu    sync.RWMutex
	items map[string]domain.MenuItem
}

// NewMenuRepository создаёт каталог с начальными позициями.
func NewMenuRepository(seed ...domain.MenuItem) *MenuRepository {
	r := &MenuRepository{items: make(map[string]domain.MenuItem)}
	for _, item := range seed {
		_, _ = r.Create(context.Background(), item)
	}
	return r
}

// List возвращает позиции по категории и имени.
func (r *MenuRepository) List(_ context.Context) ([]domain.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.MenuItem, 0, len(r.items))
	for _, item := range r.items {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Category != result[j].Category {
			return result[i].Category < result[j].Category
		}
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Get возвращает позицию или ErrMenuItemNotFound.
func (r *MenuRepository) Get(_ context.Context, id string) (domain.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return domain.MenuItem{}, domain.ErrMenuItemNotFound
	}
	return item, nil
}

// Create добавляет позицию, генерируя ID при необходимости.
func (r *MenuRepository) Create(_ context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if _, exists := r.items[item.ID]; exists {
		return domain.MenuItem{}, domain.ErrAlreadyExists
	}
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	r.items[item.ID] = item
	return item, nil
}

// Update перезаписывает редактируемые поля позиции.
func (r *MenuRepository) Update(_ context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[item.ID]
	if !ok {
		return domain.MenuItem{}, domain.ErrMenuItemNotFound
	}
	item.CreatedAt = current.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	r.items[item.ID] = item
	return item, nil
}

// Delete удаляет позицию.
func (r *MenuRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrMenuItemNotFound
	}
	delete(r.items, id)
	return nil
}

var _ domain.MenuRepository = (*MenuRepository)(nil)
