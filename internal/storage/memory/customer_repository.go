package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

// CustomerRepository — in-memory клиенты. Новые клиенты попадают сюда только через seed.
type CustomerRepository struct {
	mu        sync.RWMutex
	customers map[string]domain.Customer
}

// NewCustomerRepository создаёт репозиторий с начальными клиентами.
func NewCustomerRepository(seed ...domain.Customer) *CustomerRepository {
	r := &CustomerRepository{customers: make(map[string]domain.Customer)}
	now := time.Now().UTC()
	for _, c := range seed {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.CreatedAt, c.UpdatedAt = now, now
		r.customers[c.ID] = c
	}
	return r
}

// List возвращает клиентов по имени.
func (r *CustomerRepository) List(_ context.Context) ([]domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Update перезаписывает карточку клиента.
func (r *CustomerRepository) Update(_ context.Context, c domain.Customer) (domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.customers[c.ID]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	c.CreatedAt = current.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	r.customers[c.ID] = c
	return c, nil
}

var _ domain.CustomerRepository = (*CustomerRepository)(nil)
