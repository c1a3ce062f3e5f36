package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/cart"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/metrics"
)

// CreateOrderInput — данные оформления. Total вычисляется корзиной заранее и не пересчитывается.
type CreateOrderInput struct {
	CustomerName string
	TableNumber  *int
	Lines        []cart.Line
	Total        decimal.Decimal
}

// Validate проверяет вход до любых обращений к хранилищу.
func (in CreateOrderInput) Validate() error {
	if strings.TrimSpace(in.CustomerName) == "" {
		return domain.NewValidationError("customer_name", domain.ErrCustomerNameRequired)
	}
	if in.TableNumber != nil && *in.TableNumber < 1 {
		return domain.NewValidationError("table_number", domain.ErrTableNumberInvalid)
	}
	if len(in.Lines) == 0 {
		return domain.NewValidationError("lines", domain.ErrLinesRequired)
	}
	for i, line := range in.Lines {
		if strings.TrimSpace(line.ItemID) == "" {
			return domain.NewValidationError(fmt.Sprintf("lines[%d].menu_item_id", i), errors.New("menu_item_id is required"))
		}
		if line.Quantity < 1 {
			return domain.NewValidationError(fmt.Sprintf("lines[%d].quantity", i), domain.ErrLineQtyInvalid)
		}
		if line.UnitPrice.IsNegative() {
			return domain.NewValidationError(fmt.Sprintf("lines[%d].unit_price", i), domain.ErrPriceNegative)
		}
	}
	if in.Total.IsNegative() {
		return domain.NewValidationError("total_amount", domain.ErrAmountNegative)
	}
	return nil
}

// SequencerOption настраивает Sequencer.
type SequencerOption func(*Sequencer)

// WithSequencerLogger задаёт logger.
func WithSequencerLogger(logger *log.Entry) SequencerOption {
	return func(s *Sequencer) { s.logger = logger }
}

// WithSequencerMetrics задаёт метрики.
func WithSequencerMetrics(m *metrics.CafeMetrics) SequencerOption {
	return func(s *Sequencer) { s.metrics = m }
}

// WithoutCompensation отключает удаление заголовка при сбое вставки позиций:
// заголовок остаётся в хранилище без позиций.
func WithoutCompensation() SequencerOption {
	return func(s *Sequencer) { s.compensate = false }
}

// WithStepwise запрещает атомарный путь, даже если хранилище его поддерживает.
func WithStepwise() SequencerOption {
	return func(s *Sequencer) { s.stepwise = true }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) SequencerOption {
	return func(s *Sequencer) { s.now = now }
}

// Sequencer оформляет заказ: номер, заголовок со статусом pending, позиции.
type Sequencer struct {
	repo       domain.OrderRepository
	logger     *log.Entry
	metrics    *metrics.CafeMetrics
	compensate bool
	stepwise   bool
	now        func() time.Time
}

// NewSequencer создаёт Sequencer поверх хранилища заказов.
func NewSequencer(repo domain.OrderRepository, options ...SequencerOption) *Sequencer {
	s := &Sequencer{
		repo:       repo,
		compensate: true,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "order-sequencer")
	}
	return s
}

// Create проверяет вход и сохраняет заказ. Цена каждой позиции фиксируется из корзины.
func (s *Sequencer) Create(ctx context.Context, in CreateOrderInput) (domain.Order, error) {
	if err := in.Validate(); err != nil {
		s.metrics.RecordOrderCreateFailure(metrics.StepValidation)
		return domain.Order{}, err
	}
	started := time.Now()

	number, err := s.repo.GenerateOrderNumber(ctx)
	if err != nil {
		s.metrics.RecordOrderCreateFailure(metrics.StepOrderNumber)
		return domain.Order{}, domain.NewRemoteError("generate order number", err)
	}

	order := s.draft(number, in)
	logger := s.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})

	if atomic, ok := s.repo.(domain.AtomicOrderCreator); ok && !s.stepwise {
		if err := atomic.CreateWithLines(ctx, order); err != nil {
			s.metrics.RecordOrderCreateFailure(metrics.StepAtomic)
			return domain.Order{}, domain.NewRemoteError("create order", err)
		}
	} else if err := s.createStepwise(ctx, logger, order); err != nil {
		return domain.Order{}, err
	}

	s.metrics.RecordOrderCreated(order.TotalAmount, time.Since(started))
	logger.WithField("total_amount", order.TotalAmount.StringFixed(2)).Info("order created")
	return order, nil
}

func (s *Sequencer) createStepwise(ctx context.Context, logger *log.Entry, order domain.Order) error {
	header := order
	header.Lines = nil
	if err := s.repo.Create(ctx, header); err != nil {
		s.metrics.RecordOrderCreateFailure(metrics.StepHeader)
		return domain.NewRemoteError("insert order header", err)
	}

	linesErr := s.repo.CreateLines(ctx, order.ID, order.Lines)
	if linesErr == nil {
		return nil
	}
	s.metrics.RecordOrderCreateFailure(metrics.StepLines)

	if !s.compensate {
		s.metrics.RecordOrphanedOrder()
		logger.WithError(linesErr).Error("order lines insert failed, header left without lines")
		return domain.NewRemoteError("insert order lines", errors.Join(linesErr, domain.ErrOrphanedOrder))
	}

	// Заголовок уже сохранён: компенсируем удалением.
	if err := s.repo.Delete(ctx, order.ID); err != nil {
		s.metrics.RecordOrderCreateFailure(metrics.StepCompensation)
		s.metrics.RecordOrphanedOrder()
		logger.WithError(err).Error("compensating delete of order header failed")
		return domain.NewRemoteError("insert order lines", errors.Join(linesErr, err, domain.ErrOrphanedOrder))
	}
	s.metrics.RecordCompensation()
	logger.WithError(linesErr).Warn("order lines insert failed, header removed")
	return domain.NewRemoteError("insert order lines", linesErr)
}

func (s *Sequencer) draft(number string, in CreateOrderInput) domain.Order {
	now := s.now()
	order := domain.Order{
		ID:           uuid.NewString(),
		OrderNumber:  number,
		CustomerName: strings.TrimSpace(in.CustomerName),
		TotalAmount:  in.Total,
		Status:       domain.OrderStatusPending,
		OrderTime:    now,
		UpdatedAt:    now,
		Lines:        make([]domain.OrderLine, 0, len(in.Lines)),
	}
	if in.TableNumber != nil {
		n := *in.TableNumber
		order.TableNumber = &n
	}
	for _, l := range in.Lines {
		order.Lines = append(order.Lines, domain.OrderLine{
			ID:         uuid.NewString(),
			OrderID:    order.ID,
			MenuItemID: l.ItemID,
			ItemName:   l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
		})
	}
	return order
}
