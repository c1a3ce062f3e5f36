package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

// StaffRepository — in-memory список сотрудников.
type StaffRepository struct {
	mu    sync.RWMutex
	staff map[string]domain.Staff
}

// NewStaffRepository создаёт репозиторий с начальными сотрудниками.
func NewStaffRepository(seed ...domain.Staff) *StaffRepository {
	r := &StaffRepository{staff: make(map[string]domain.Staff)}
	for _, s := range seed {
		_, _ = r.Create(context.Background(), s)
	}
	return r
}

// List возвращает сотрудников по имени.
func (r *StaffRepository) List(_ context.Context) ([]domain.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Staff, 0, len(r.staff))
	for _, s := range r.staff {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Create добавляет сотрудника.
func (r *StaffRepository) Create(_ context.Context, s domain.Staff) (domain.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if _, exists := r.staff[s.ID]; exists {
		return domain.Staff{}, domain.ErrAlreadyExists
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	r.staff[s.ID] = s
	return s, nil
}

// Update перезаписывает карточку сотрудника.
func (r *StaffRepository) Update(_ context.Context, s domain.Staff) (domain.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.staff[s.ID]
	if !ok {
		return domain.Staff{}, domain.ErrStaffNotFound
	}
	s.CreatedAt = current.CreatedAt
	s.UpdatedAt = time.Now().UTC()
	r.staff[s.ID] = s
	return s, nil
}

// Delete удаляет сотрудника.
func (r *StaffRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.staff[id]; !ok {
		return domain.ErrStaffNotFound
	}
	delete(r.staff, id)
	return nil
}

var _ domain.StaffRepository = (*StaffRepository)(nil)
