package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Шаги оформления заказа для метки step.
const (
	StepValidation   = "validation"
	StepOrderNumber  = "order_number"
	StepHeader       = "header"
	StepLines        = "lines"
	StepAtomic       = "atomic"
	StepCompensation = "compensation"
)

// CafeMetrics содержит метрики заказов и ресурсных хуков. Методы безопасны на nil.
type CafeMetrics struct {
	ordersCreated       prometheus.Counter
	orderCreateFailures *prometheus.CounterVec
	compensations       prometheus.Counter
	orphanedOrders      prometheus.Counter
	statusTransitions   *prometheus.CounterVec
	orderAmount         prometheus.Histogram
	createDuration      prometheus.Histogram
	toasts              *prometheus.CounterVec
	refreshes           *prometheus.CounterVec
	timelineEvents      prometheus.Counter
	outboxEvents        prometheus.Counter
}

// NewCafeMetrics регистрирует метрики в DefaultRegisterer.
func NewCafeMetrics() *CafeMetrics {
	return NewCafeMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCafeMetricsWithRegisterer регистрирует метрики в указанном registerer.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewCafeMetricsWithRegisterer(registerer prometheus.Registerer) *CafeMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CafeMetrics{
		ordersCreated: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cafe_orders_created_total",
			Help: "Total number of orders persisted with all lines",
		})),
		orderCreateFailures: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cafe_order_create_failures_total",
			Help: "Order creation failures grouped by the step that failed",
		}, []string{"step"})),
		compensations: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cafe_order_compensations_total",
			Help: "Order headers deleted after a failed line insert",
		})),
		orphanedOrders: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cafe_orphaned_orders_total",
			Help: "Order headers left without lines",
		})),
		statusTransitions: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cafe_order_status_transitions_total",
			Help: "Applied order status transitions grouped by target status",
		}, []string{"to"})),
		orderAmount: register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cafe_order_total_amount",
			Help:    "Total amount of created orders",
			Buckets: []float64{50, 100, 200, 500, 1000, 2000, 5000, 10000},
		})),
		createDuration: register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cafe_order_create_duration_seconds",
			Help:    "Duration of the order creation sequence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		})),
		toasts: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cafe_toasts_total",
			Help: "Operator toasts grouped by kind",
		}, []string{"kind"})),
		refreshes: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cafe_resource_refreshes_total",
			Help: "Resource hook refreshes grouped by resource and result",
		}, []string{"resource", "result"})),
		timelineEvents: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cafe_timeline_events_total",
			Help: "Total number of order timeline events recorded",
		})),
		outboxEvents: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cafe_outbox_events_total",
			Help: "Total number of order events enqueued to outbox",
		})),
	}
}

func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) T {
	if err := registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			existing, ok := already.ExistingCollector.(T)
			if !ok {
				panic(fmt.Sprintf("collector already registered with unexpected type %T", already.ExistingCollector))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector: %v", err))
	}
	return collector
}

// RecordOrderCreated учитывает успешно созданный заказ.
func (m *CafeMetrics) RecordOrderCreated(total decimal.Decimal, duration time.Duration) {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
	m.orderAmount.Observe(total.InexactFloat64())
	m.createDuration.Observe(duration.Seconds())
}

// RecordOrderCreateFailure учитывает сбой на шаге оформления.
func (m *CafeMetrics) RecordOrderCreateFailure(step string) {
	if m == nil {
		return
	}
	m.orderCreateFailures.WithLabelValues(step).Inc()
}

// RecordCompensation учитывает удаление заголовка после сбоя вставки позиций.
func (m *CafeMetrics) RecordCompensation() {
	if m == nil {
		return
	}
	m.compensations.Inc()
}

// RecordOrphanedOrder учитывает заголовок, оставшийся без позиций.
func (m *CafeMetrics) RecordOrphanedOrder() {
	if m == nil {
		return
	}
	m.orphanedOrders.Inc()
}

// RecordStatusTransition учитывает применённый переход статуса.
func (m *CafeMetrics) RecordStatusTransition(to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(to).Inc()
}

// RecordToast учитывает всплывающее сообщение.
func (m *CafeMetrics) RecordToast(kind string) {
	if m == nil {
		return
	}
	m.toasts.WithLabelValues(kind).Inc()
}

// RecordRefresh учитывает обновление ресурса; ok=false для неудачной выборки.
func (m *CafeMetrics) RecordRefresh(resource string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.refreshes.WithLabelValues(resource, result).Inc()
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *CafeMetrics) RecordTimelineEvent() {
	if m == nil {
		return
	}
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *CafeMetrics) RecordOutboxEvent() {
	if m == nil {
		return
	}
	m.outboxEvents.Inc()
}
