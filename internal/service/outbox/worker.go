// Package outbox доставляет сохранённые события заказа в брокер.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

const (
	defaultPollInterval   = time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
	defaultMaxRetryDelay  = 5 * time.Minute
	defaultLease          = 30 * time.Second
)

var (
	deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafe_outbox_deliveries_total",
		Help: "Outbox delivery outcomes: sent, retry, dead_letter, dlq_error.",
	}, []string{"result"})
	backlog = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cafe_outbox_backlog",
		Help: "Outbox messages by status.",
	}, []string{"status"})
	oldestPendingAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cafe_outbox_oldest_pending_age_seconds",
		Help: "Age of the oldest pending outbox message.",
	})
)

// Option настраивает Worker.
type Option func(*Worker)

func WithLogger(logger *log.Entry) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDLQPublisher задаёт получателя сообщений, исчерпавших попытки.
// Без него такие сообщения просто переводятся в failed.
func WithDLQPublisher(publisher domain.OutboxPublisher) Option {
	return func(w *Worker) { w.dlq = publisher }
}

func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

func WithBatchSize(batchSize int) Option {
	return func(w *Worker) {
		if batchSize > 0 {
			w.batchSize = batchSize
		}
	}
}

// WithMaxAttempts задаёт число попыток публикации до DLQ.
func WithMaxAttempts(maxAttempts int) Option {
	return func(w *Worker) {
		if maxAttempts > 0 {
			w.maxAttempts = maxAttempts
		}
	}
}

// WithRetryBaseDelay задаёт задержку после первой неудачи; дальше она удваивается.
// 0 делает сообщение доступным уже на следующем опросе.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(w *Worker) {
		if delay >= 0 {
			w.retryBaseDelay = delay
		}
	}
}

// WithLease задаёт, на сколько Claim прячет выбранные сообщения от других воркеров.
func WithLease(lease time.Duration) Option {
	return func(w *Worker) {
		if lease > 0 {
			w.lease = lease
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

// Batch — итог одного прохода ProcessOnce.
type Batch struct {
	Claimed      int
	Sent         int
	Retried      int
	DeadLettered int
}

// Worker забирает due-сообщения, публикует их и сохраняет решение о повторе в репозитории.
type Worker struct {
	repo           domain.OutboxRepository
	publisher      domain.OutboxPublisher
	dlq            domain.OutboxPublisher
	logger         *log.Entry
	pollInterval   time.Duration
	batchSize      int
	maxAttempts    int
	retryBaseDelay time.Duration
	lease          time.Duration
	now            func() time.Time
}

func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	w := &Worker{
		repo:           repo,
		publisher:      publisher,
		logger:         log.WithField("component", "outbox-worker"),
		pollInterval:   defaultPollInterval,
		batchSize:      defaultBatchSize,
		maxAttempts:    defaultMaxAttempts,
		retryBaseDelay: defaultRetryBaseDelay,
		lease:          defaultLease,
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// Run опрашивает outbox до отмены ctx. Полная выборка запускает следующий проход без паузы.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.logger.Warn("outbox worker is disabled: repo or publisher is nil")
		return
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		batch := w.ProcessOnce(ctx)
		if batch.Claimed >= w.batchSize {
			timer.Reset(0)
			continue
		}
		timer.Reset(w.pollInterval)
	}
}

// ProcessOnce публикует одну выборку. Каждое сообщение получает ровно одну попытку.
func (w *Worker) ProcessOnce(ctx context.Context) Batch {
	var batch Batch
	if ctx.Err() != nil {
		return batch
	}

	messages, err := w.repo.Claim(ctx, w.now(), w.batchSize, w.lease)
	if err != nil {
		w.logger.WithError(err).Warn("failed to claim outbox messages")
		return batch
	}
	batch.Claimed = len(messages)

	for _, msg := range messages {
		if ctx.Err() != nil {
			break
		}
		switch w.deliver(ctx, msg) {
		case domain.OutboxSent:
			batch.Sent++
		case domain.OutboxFailed:
			batch.DeadLettered++
		default:
			batch.Retried++
		}
	}

	w.refreshBacklog(ctx)
	return batch
}

func (w *Worker) deliver(ctx context.Context, msg domain.OutboxMessage) domain.OutboxStatus {
	logger := w.logger.WithFields(log.Fields{"outbox_id": msg.ID, "event_type": msg.EventType, "attempt": msg.Attempts + 1})

	publishErr := w.publisher.Publish(ctx, msg)
	if publishErr == nil {
		deliveries.WithLabelValues("sent").Inc()
		if err := w.repo.Acknowledge(ctx, msg.ID); err != nil {
			logger.WithError(err).Warn("published but failed to acknowledge outbox message")
		}
		return domain.OutboxSent
	}

	attempt := msg.Attempts + 1
	if attempt < w.maxAttempts {
		retryAt := w.now().Add(w.retryBackoff(attempt))
		deliveries.WithLabelValues("retry").Inc()
		logger.WithError(publishErr).WithField("retry_at", retryAt).Warn("outbox publish failed, rescheduled")
		if err := w.repo.Reschedule(ctx, msg.ID, retryAt, publishErr.Error()); err != nil {
			logger.WithError(err).Warn("failed to reschedule outbox message")
		}
		return domain.OutboxPending
	}

	failure := fmt.Errorf("%w after %d attempts: %w", domain.ErrOutboxPublish, attempt, publishErr)
	if err := w.publishToDLQ(ctx, msg, failure); err != nil {
		// Без копии в DLQ сообщение остаётся pending и ждёт следующего окна.
		deliveries.WithLabelValues("dlq_error").Inc()
		logger.WithError(err).Error("failed to dead-letter outbox message")
		if err := w.repo.Reschedule(ctx, msg.ID, w.now().Add(w.retryBackoff(attempt)), failure.Error()); err != nil {
			logger.WithError(err).Warn("failed to reschedule outbox message")
		}
		return domain.OutboxPending
	}

	deliveries.WithLabelValues("dead_letter").Inc()
	logger.WithError(failure).Error("outbox message moved to dead letter")
	if err := w.repo.Bury(ctx, msg.ID, failure.Error()); err != nil {
		logger.WithError(err).Warn("failed to mark outbox message as failed")
	}
	return domain.OutboxFailed
}

func (w *Worker) refreshBacklog(ctx context.Context) {
	stats, err := w.repo.Stats(ctx)
	if err != nil {
		w.logger.WithError(err).Debug("failed to read outbox stats")
		return
	}
	backlog.WithLabelValues(string(domain.OutboxPending)).Set(float64(stats.PendingCount))
	backlog.WithLabelValues(string(domain.OutboxFailed)).Set(float64(stats.FailedCount))
	if stats.OldestPendingAt.IsZero() {
		oldestPendingAge.Set(0)
		return
	}
	oldestPendingAge.Set(max(w.now().Sub(stats.OldestPendingAt).Seconds(), 0))
}

// retryBackoff возвращает base * 2^(attempt-1), не больше defaultMaxRetryDelay.
func (w *Worker) retryBackoff(attempt int) time.Duration {
	delay := w.retryBaseDelay
	for i := 1; i < attempt && delay < defaultMaxRetryDelay; i++ {
		delay *= 2
	}
	return min(delay, defaultMaxRetryDelay)
}

// DLQEnvelope — содержимое сообщения в dead-letter очереди.
type DLQEnvelope struct {
	OutboxID       string          `json:"outbox_id"`
	AggregateType  string          `json:"aggregate_type"`
	AggregateID    string          `json:"aggregate_id"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	Attempts       int             `json:"attempts"`
	PublishError   string          `json:"publish_error"`
	DLQPublishedAt time.Time       `json:"dlq_published_at"`
}

func (w *Worker) publishToDLQ(ctx context.Context, msg domain.OutboxMessage, failure error) error {
	if w.dlq == nil {
		return nil
	}

	payload, err := json.Marshal(DLQEnvelope{
		OutboxID:       msg.ID,
		AggregateType:  msg.AggregateType,
		AggregateID:    msg.AggregateID,
		EventType:      msg.EventType,
		Payload:        json.RawMessage(msg.Payload),
		Attempts:       msg.Attempts + 1,
		PublishError:   failure.Error(),
		DLQPublishedAt: w.now(),
	})
	if err != nil {
		return fmt.Errorf("marshal dlq payload: %w", err)
	}

	dead := msg
	dead.Payload = payload
	if err := w.dlq.Publish(ctx, dead); err != nil {
		return fmt.Errorf("publish to dlq: %w", err)
	}
	return nil
}
