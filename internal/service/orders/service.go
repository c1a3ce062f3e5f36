// Package orders — оформление заказов и их жизненный цикл.
package orders

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/cart"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/events"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/metrics"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/resource"
)

// Сообщения оператору.
const (
	MsgLoadFailed          = "Failed to load orders"
	MsgCreated             = "Order created successfully"
	MsgCreateFailed        = "Failed to create order"
	MsgStatusUpdated       = "Order status updated successfully"
	MsgStatusUpdateFailed  = "Failed to update order status"
	MsgUpdated             = "Order updated successfully"
	MsgUpdateFailed        = "Failed to update order"
	MsgDeleted             = "Order deleted successfully"
	MsgDeleteFailed        = "Failed to delete order"
	MsgValidationAttention = "Please check the order details"
)

// Details — заказ вместе с лентой событий.
type Details struct {
	Order    domain.Order
	Timeline []domain.TimelineEvent
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) { s.logger = logger }
}

// WithNotifier задаёт получателя сообщений оператору.
func WithNotifier(n domain.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics задаёт метрики.
func WithMetrics(m *metrics.CafeMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTimeline включает запись событий в ленту заказа.
func WithTimeline(repo domain.TimelineRepository) Option {
	return func(s *Service) { s.timeline = repo }
}

// WithOutbox включает публикацию событий заказа через outbox.
func WithOutbox(repo domain.OutboxRepository) Option {
	return func(s *Service) { s.outbox = repo }
}

// WithMenu включает подстановку названий позиций из каталога.
func WithMenu(repo domain.MenuRepository) Option {
	return func(s *Service) { s.menu = repo }
}

// WithSequencerOptions передаёт опции в Sequencer.
func WithSequencerOptions(opts ...SequencerOption) Option {
	return func(s *Service) { s.seqOpts = append(s.seqOpts, opts...) }
}

// WithNow подменяет источник времени для событий.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service — ресурс заказов: список, оформление, смена статуса, правка, удаление.
type Service struct {
	repo      domain.OrderRepository
	menu      domain.MenuRepository
	timeline  domain.TimelineRepository
	outbox    domain.OutboxRepository
	notifier  domain.Notifier
	metrics   *metrics.CafeMetrics
	logger    *log.Entry
	seqOpts   []SequencerOption
	now       func() time.Time
	sequencer *Sequencer
	hook      *resource.Hook[domain.Order]
}

// NewService собирает сервис заказов.
func NewService(repo domain.OrderRepository, options ...Option) *Service {
	s := &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "orders")
	}

	seqOpts := append([]SequencerOption{
		WithSequencerLogger(s.logger),
		WithSequencerMetrics(s.metrics),
		WithClock(s.now),
	}, s.seqOpts...)
	s.sequencer = NewSequencer(repo, seqOpts...)

	s.hook = resource.New("orders", s.fetch,
		resource.WithLogger(s.logger),
		resource.WithNotifier(s.notifier),
		resource.WithMetrics(s.metrics),
		resource.WithLoadErrorMessage(MsgLoadFailed),
	)
	return s
}

// Hook возвращает ресурсный хук заказов.
func (s *Service) Hook() *resource.Hook[domain.Order] {
	return s.hook
}

// List перечитывает заказы и возвращает их с фильтром по статусу.
func (s *Service) List(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	if status != "" && !status.Valid() {
		return nil, domain.NewValidationError("status", domain.ErrStatusUnknown)
	}
	if err := s.hook.Refresh(ctx); err != nil {
		return nil, err
	}
	return FilterByStatus(s.hook.Rows(), status), nil
}

// Get возвращает заказ с лентой событий.
func (s *Service) Get(ctx context.Context, id string) (Details, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return Details{}, domain.NewRemoteError("get order", err)
	}
	s.decorate(ctx, []domain.Order{order})

	details := Details{Order: order}
	if s.timeline != nil {
		timeline, err := s.timeline.List(ctx, id)
		if err != nil {
			s.logger.WithError(err).WithField("order_id", id).Warn("failed to load order timeline")
		}
		details.Timeline = timeline
	}
	return details, nil
}

// CreateOrder оформляет заказ. Ошибка валидации возвращается без обращения к хранилищу.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (domain.Order, error) {
	if err := in.Validate(); err != nil {
		s.notify(domain.ToastError, MsgValidationAttention)
		return domain.Order{}, err
	}

	var created domain.Order
	err := s.hook.Mutate(ctx, MsgCreated, MsgCreateFailed, func(ctx context.Context) error {
		order, err := s.sequencer.Create(ctx, in)
		if err != nil {
			return err
		}
		created = order
		s.record(ctx, domain.TimelineEvent{OrderID: order.ID, Type: domain.TimelineOrderCreated, To: order.Status})
		s.publish(ctx, events.OrderCreated, order, "")
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return created, nil
}

// Checkout оформляет корзину: итоги считаются корзиной, после успеха корзина очищается.
func (s *Service) Checkout(ctx context.Context, c *cart.Cart, customerName string, tableNumber *int) (domain.Order, error) {
	totals := c.ComputeTotals()
	order, err := s.CreateOrder(ctx, CreateOrderInput{
		CustomerName: customerName,
		TableNumber:  tableNumber,
		Lines:        c.Lines(),
		Total:        totals.Total,
	})
	if err != nil {
		return domain.Order{}, err
	}
	c.Clear()
	return order, nil
}

// Advance переводит заказ на следующий статус.
func (s *Service) Advance(ctx context.Context, id string) (domain.Order, error) {
	return s.transition(ctx, id, domain.Next)
}

// Cancel отменяет заказ.
func (s *Service) Cancel(ctx context.Context, id string) (domain.Order, error) {
	return s.UpdateStatus(ctx, id, domain.OrderStatusCancelled)
}

// UpdateStatus применяет явный переход в target.
func (s *Service) UpdateStatus(ctx context.Context, id string, target domain.OrderStatus) (domain.Order, error) {
	if !target.Valid() {
		return domain.Order{}, domain.NewValidationError("status", domain.ErrStatusUnknown)
	}
	return s.transition(ctx, id, func(from domain.OrderStatus) (domain.OrderStatus, error) {
		return target, domain.Transition(from, target)
	})
}

func (s *Service) transition(ctx context.Context, id string, next func(domain.OrderStatus) (domain.OrderStatus, error)) (domain.Order, error) {
	var updated domain.Order
	err := s.hook.Mutate(ctx, MsgStatusUpdated, MsgStatusUpdateFailed, func(ctx context.Context) error {
		order, err := s.repo.Get(ctx, id)
		if err != nil {
			return domain.NewRemoteError("get order", err)
		}
		from := order.Status
		to, err := next(from)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateStatus(ctx, id, from, to); err != nil {
			return domain.NewRemoteError("update order status", err)
		}

		order.Status = to
		updated = order
		s.metrics.RecordStatusTransition(string(to))
		s.logger.WithFields(log.Fields{
			"order_id":     id,
			"order_number": order.OrderNumber,
			"from":         from,
			"to":           to,
		}).Info("order status changed")
		s.record(ctx, domain.TimelineEvent{OrderID: id, Type: domain.TimelineStatusChanged, From: from, To: to})
		s.publish(ctx, events.OrderStatusChanged, order, from)
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return updated, nil
}

// UpdateOrder меняет имя клиента, стол и сумму. Позиции и их цены не трогаются.
func (s *Service) UpdateOrder(ctx context.Context, id string, patch domain.OrderHeaderPatch) (domain.Order, error) {
	if err := patch.Validate(); err != nil {
		s.notify(domain.ToastError, MsgValidationAttention)
		return domain.Order{}, err
	}

	var updated domain.Order
	err := s.hook.Mutate(ctx, MsgUpdated, MsgUpdateFailed, func(ctx context.Context) error {
		if err := s.repo.UpdateHeader(ctx, id, patch); err != nil {
			return domain.NewRemoteError("update order", err)
		}
		order, err := s.repo.Get(ctx, id)
		if err != nil {
			return domain.NewRemoteError("get order", err)
		}
		updated = order
		s.record(ctx, domain.TimelineEvent{OrderID: id, Type: domain.TimelineOrderUpdated, To: order.Status})
		s.publish(ctx, events.OrderUpdated, order, "")
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return updated, nil
}

// DeleteOrder удаляет позиции, затем заголовок.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	return s.hook.Mutate(ctx, MsgDeleted, MsgDeleteFailed, func(ctx context.Context) error {
		order, err := s.repo.Get(ctx, id)
		if err != nil {
			return domain.NewRemoteError("get order", err)
		}
		if atomic, ok := s.repo.(domain.AtomicOrderDeleter); ok {
			if err := atomic.DeleteWithLines(ctx, id); err != nil {
				return domain.NewRemoteError("delete order", err)
			}
		} else {
			if err := s.repo.DeleteLines(ctx, id); err != nil {
				return domain.NewRemoteError("delete order lines", err)
			}
			if err := s.repo.Delete(ctx, id); err != nil {
				return domain.NewRemoteError("delete order", err)
			}
		}
		s.publish(ctx, events.OrderDeleted, order, "")
		return nil
	})
}

func (s *Service) fetch(ctx context.Context) ([]domain.Order, error) {
	list, err := s.repo.List(ctx, domain.OrderFilter{})
	if err != nil {
		return nil, err
	}
	s.decorate(ctx, list)
	return list, nil
}

// decorate подставляет названия позиций из каталога только для отображения.
func (s *Service) decorate(ctx context.Context, list []domain.Order) {
	if s.menu == nil {
		return
	}
	items, err := s.menu.List(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to load menu for order line names")
		return
	}
	names := make(map[string]string, len(items))
	for _, item := range items {
		names[item.ID] = item.Name
	}
	for i := range list {
		for j := range list[i].Lines {
			if name, ok := names[list[i].Lines[j].MenuItemID]; ok {
				list[i].Lines[j].ItemName = name
			}
		}
	}
}

func (s *Service) record(ctx context.Context, event domain.TimelineEvent) {
	if s.timeline == nil {
		return
	}
	event.Occurred = s.now()
	if err := s.timeline.Append(ctx, event); err != nil {
		s.logger.WithError(err).WithField("order_id", event.OrderID).Warn("failed to append timeline event")
		return
	}
	s.metrics.RecordTimelineEvent()
}

func (s *Service) publish(ctx context.Context, eventType string, order domain.Order, previous domain.OrderStatus) {
	if s.outbox == nil {
		return
	}
	msg, err := events.NewOrderEvent(eventType, order, previous, s.now()).OutboxMessage()
	if err == nil {
		_, err = s.outbox.Enqueue(ctx, msg)
	}
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id":   order.ID,
			"event_type": eventType,
		}).Warn("failed to enqueue order event")
		return
	}
	s.metrics.RecordOutboxEvent()
}

func (s *Service) notify(kind domain.ToastKind, msg string) {
	if s.notifier != nil {
		s.notifier.Notify(kind, msg)
	}
}

// FilterByStatus оставляет заказы с указанным статусом; пустой статус не фильтрует.
func FilterByStatus(list []domain.Order, status domain.OrderStatus) []domain.Order {
	if status == "" {
		return list
	}
	out := make([]domain.Order, 0, len(list))
	for _, o := range list {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}
