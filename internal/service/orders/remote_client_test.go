package orders

import (
	"context"
	"sync"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/storage/memory"
)

// remoteClient — пошаговое хранилище без атомарных операций: считает вызовы
// и умеет ронять отдельные шаги.
type remoteClient struct {
	inner *memory.OrderRepository

	mu           sync.Mutex
	calls        map[string]int
	order        []string
	failNumber   error
	failHeader   error
	failLines    error
	failDelete   error
	failList     error
	failUpdateSt error
}

func newRemoteClient() *remoteClient {
	return &remoteClient{inner: memory.NewOrderRepository(), calls: make(map[string]int)}
}

func (r *remoteClient) hit(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[op]++
	r.order = append(r.order, op)
}

func (r *remoteClient) sequence() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func (r *remoteClient) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func (r *remoteClient) count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *remoteClient) GenerateOrderNumber(ctx context.Context) (string, error) {
	r.hit("generate_order_number")
	if r.failNumber != nil {
		return "", r.failNumber
	}
	return r.inner.GenerateOrderNumber(ctx)
}

func (r *remoteClient) Create(ctx context.Context, order domain.Order) error {
	r.hit("insert_order")
	if r.failHeader != nil {
		return r.failHeader
	}
	return r.inner.Create(ctx, order)
}

func (r *remoteClient) CreateLines(ctx context.Context, orderID string, lines []domain.OrderLine) error {
	r.hit("insert_order_items")
	if r.failLines != nil {
		return r.failLines
	}
	return r.inner.CreateLines(ctx, orderID, lines)
}

func (r *remoteClient) Get(ctx context.Context, id string) (domain.Order, error) {
	r.hit("select_order")
	return r.inner.Get(ctx, id)
}

func (r *remoteClient) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	r.hit("select_orders")
	if r.failList != nil {
		return nil, r.failList
	}
	return r.inner.List(ctx, filter)
}

func (r *remoteClient) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	r.hit("update_order_status")
	if r.failUpdateSt != nil {
		return r.failUpdateSt
	}
	return r.inner.UpdateStatus(ctx, id, from, to)
}

func (r *remoteClient) UpdateHeader(ctx context.Context, id string, patch domain.OrderHeaderPatch) error {
	r.hit("update_order")
	return r.inner.UpdateHeader(ctx, id, patch)
}

func (r *remoteClient) DeleteLines(ctx context.Context, orderID string) error {
	r.hit("delete_order_items")
	return r.inner.DeleteLines(ctx, orderID)
}

func (r *remoteClient) Delete(ctx context.Context, id string) error {
	r.hit("delete_order")
	if r.failDelete != nil {
		return r.failDelete
	}
	return r.inner.Delete(ctx, id)
}

var _ domain.OrderRepository = (*remoteClient)(nil)
