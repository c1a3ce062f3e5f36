package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

// TimelineRepository — лента заказов в памяти.
type TimelineRepository struct {
	mu      sync.Mutex
	seq     int64
	byOrder map[string][]domain.TimelineEvent
}

func NewTimelineRepository() *TimelineRepository {
	return &TimelineRepository{byOrder: make(map[string][]domain.TimelineEvent)}
}

func (r *TimelineRepository) Append(_ context.Context, event domain.TimelineEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	event.Seq = r.seq
	events := append(r.byOrder[event.OrderID], event)
	sort.SliceStable(events, func(i, j int) bool { return domain.TimelineBefore(events[i], events[j]) })
	r.byOrder[event.OrderID] = events
	return nil
}

func (r *TimelineRepository) List(_ context.Context, orderID string) ([]domain.TimelineEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]domain.TimelineEvent(nil), r.byOrder[orderID]...), nil
}

var _ domain.TimelineRepository = (*TimelineRepository)(nil)
