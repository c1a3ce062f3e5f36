package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

// OrderNumberFormat — формат номера заказа, общий для всех хранилищ.
const OrderNumberFormat = "ORD-%06d"

// OrderRepository — in-memory реализация заказов. Заголовки и позиции лежат
// в разных таблицах, как в реляционном хранилище.
type OrderRepository struct {
	mu      sync.RWMutex
	seq     int64
	headers map[string]domain.Order
	lines   map[string][]domain.OrderLine
	numbers map[string]string
	now     func() time.Time
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		headers: make(map[string]domain.Order),
		lines:   make(map[string][]domain.OrderLine),
		numbers: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GenerateOrderNumber выдаёт следующий номер из последовательности.
func (r *OrderRepository) GenerateOrderNumber(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	return fmt.Sprintf(OrderNumberFormat, r.seq), nil
}

// Create сохраняет заголовок заказа, если ID и номер ещё не заняты.
func (r *OrderRepository) Create(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertHeaderLocked(order)
}

// CreateLines сохраняет позиции заказа.
func (r *OrderRepository) CreateLines(_ context.Context, orderID string, lines []domain.OrderLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.headers[orderID]; !ok {
		return domain.ErrOrderNotFound
	}
	r.lines[orderID] = append(r.lines[orderID], prepareLines(orderID, lines)...)
	return nil
}

// CreateWithLines сохраняет заголовок и позиции под одной блокировкой.
func (r *OrderRepository) CreateWithLines(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.insertHeaderLocked(order); err != nil {
		return err
	}
	r.lines[order.ID] = prepareLines(order.ID, order.Lines)
	return nil
}

func (r *OrderRepository) insertHeaderLocked(order domain.Order) error {
	if _, exists := r.headers[order.ID]; exists {
		return domain.ErrAlreadyExists
	}
	if _, exists := r.numbers[order.OrderNumber]; exists {
		return domain.ErrAlreadyExists
	}

	header := order.Clone()
	header.Lines = nil
	if header.OrderTime.IsZero() {
		header.OrderTime = r.now()
	}
	header.UpdatedAt = header.OrderTime
	r.headers[order.ID] = header
	r.numbers[order.OrderNumber] = order.ID
	return nil
}

// Get возвращает заказ с позициями или ErrOrderNotFound.
func (r *OrderRepository) Get(_ context.Context, id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	header, ok := r.headers[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return r.assembleLocked(header), nil
}

// List возвращает заказы по убыванию order_time.
func (r *OrderRepository) List(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.headers))
	for _, header := range r.headers {
		if !filter.Match(header) {
			continue
		}
		result = append(result, r.assembleLocked(header))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].OrderTime.Equal(result[j].OrderTime) {
			return result[i].OrderTime.After(result[j].OrderTime)
		}
		return result[i].OrderNumber > result[j].OrderNumber
	})
	return result, nil
}

// UpdateStatus выполняет compare-and-set по полю status.
func (r *OrderRepository) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	header, ok := r.headers[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if header.Status != from {
		return domain.ErrOrderStatusConflict
	}
	header.Status = to
	header.UpdatedAt = r.now()
	r.headers[id] = header
	return nil
}

// UpdateHeader меняет имя клиента, стол и сумму.
func (r *OrderRepository) UpdateHeader(_ context.Context, id string, patch domain.OrderHeaderPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	header, ok := r.headers[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	header.CustomerName = patch.CustomerName
	header.TableNumber = nil
	if patch.TableNumber != nil {
		n := *patch.TableNumber
		header.TableNumber = &n
	}
	header.TotalAmount = patch.TotalAmount
	header.UpdatedAt = r.now()
	r.headers[id] = header
	return nil
}

// DeleteLines удаляет позиции заказа.
func (r *OrderRepository) DeleteLines(_ context.Context, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.lines, orderID)
	return nil
}

// Delete удаляет заголовок заказа.
func (r *OrderRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.deleteHeaderLocked(id)
}

// DeleteWithLines удаляет позиции и заголовок под одной блокировкой.
func (r *OrderRepository) DeleteWithLines(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.headers[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.lines, id)
	return r.deleteHeaderLocked(id)
}

func (r *OrderRepository) deleteHeaderLocked(id string) error {
	header, ok := r.headers[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.numbers, header.OrderNumber)
	delete(r.headers, id)
	return nil
}

func (r *OrderRepository) assembleLocked(header domain.Order) domain.Order {
	order := header.Clone()
	order.Lines = append([]domain.OrderLine(nil), r.lines[header.ID]...)
	return order
}

func prepareLines(orderID string, lines []domain.OrderLine) []domain.OrderLine {
	out := make([]domain.OrderLine, 0, len(lines))
	for _, l := range lines {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		l.OrderID = orderID
		out = append(out, l)
	}
	return out
}

var (
	_ domain.OrderRepository    = (*OrderRepository)(nil)
	_ domain.AtomicOrderCreator = (*OrderRepository)(nil)
	_ domain.AtomicOrderDeleter = (*OrderRepository)(nil)
)
