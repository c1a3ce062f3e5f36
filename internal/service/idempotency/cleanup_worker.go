package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

const (
	defaultCleanupInterval  = 10 * time.Minute
	defaultCleanupBatchSize = 500
	// defaultMaxBatches ограничивает одну чистку, остаток уходит в следующий тик.
	defaultMaxBatches = 20
)

var (
	sweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafe_idempotency_sweeps_total",
		Help: "Idempotency key sweeps by result.",
	}, []string{"result"})
	sweptKeysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cafe_idempotency_swept_keys_total",
		Help: "Expired idempotency keys removed by sweeps.",
	})
	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cafe_idempotency_sweep_duration_seconds",
		Help:    "Duration of one idempotency key sweep.",
		Buckets: prometheus.ExponentialBuckets(0.005, 4, 6),
	})
)

// ExpiredKeyDeleter — часть IdempotencyRepository, нужная для чистки.
type ExpiredKeyDeleter interface {
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error)
}

// SweepResult — итог одной чистки.
type SweepResult struct {
	Deleted int
	Batches int
	// Truncated — чистка упёрлась в лимит порций и просроченные ключи могли остаться.
	Truncated bool
}

// CleanupOption настраивает CleanupWorker.
type CleanupOption func(*CleanupWorker)

func WithLogger(logger *log.Entry) CleanupOption {
	return func(w *CleanupWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) CleanupOption {
	return func(w *CleanupWorker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

func WithBatchSize(batchSize int) CleanupOption {
	return func(w *CleanupWorker) {
		if batchSize > 0 {
			w.batchSize = batchSize
		}
	}
}

// WithMaxBatches задаёт число порций DeleteExpired за одну чистку.
func WithMaxBatches(n int) CleanupOption {
	return func(w *CleanupWorker) {
		if n > 0 {
			w.maxBatches = n
		}
	}
}

func WithCleanupClock(now func() time.Time) CleanupOption {
	return func(w *CleanupWorker) { w.now = now }
}

// CleanupWorker периодически удаляет ключи идемпотентности с истёкшим сроком.
type CleanupWorker struct {
	repo       ExpiredKeyDeleter
	logger     *log.Entry
	interval   time.Duration
	batchSize  int
	maxBatches int
	now        func() time.Time
}

func NewCleanupWorker(repo ExpiredKeyDeleter, options ...CleanupOption) *CleanupWorker {
	w := &CleanupWorker{
		repo:       repo,
		logger:     log.WithField("component", "idempotency-cleanup"),
		interval:   defaultCleanupInterval,
		batchSize:  defaultCleanupBatchSize,
		maxBatches: defaultMaxBatches,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// Run выполняет чистку при старте и затем раз в interval, пока ctx не отменён.
// Если прошлая чистка упёрлась в лимит порций, следующая начинается без ожидания.
func (w *CleanupWorker) Run(ctx context.Context) {
	if w.repo == nil {
		w.logger.Warn("idempotency cleanup is disabled: repo is nil")
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

		res, err := w.Sweep(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			w.logger.WithError(err).WithField("deleted", res.Deleted).Warn("idempotency sweep failed")
		case res.Deleted > 0:
			w.logger.WithFields(log.Fields{"deleted": res.Deleted, "batches": res.Batches}).Info("expired idempotency keys removed")
		}

		next := w.interval
		if err == nil && res.Truncated {
			next = 0
		}
		timer.Reset(next)
	}
}

// Sweep удаляет ключи, истёкшие к текущему моменту, порциями batchSize.
func (w *CleanupWorker) Sweep(ctx context.Context) (SweepResult, error) {
	started := time.Now()
	cutoff := w.now()

	var res SweepResult
	err := func() error {
		for res.Batches < w.maxBatches {
			if err := ctx.Err(); err != nil {
				return err
			}
			deleted, err := w.repo.DeleteExpired(ctx, cutoff, w.batchSize)
			if err != nil {
				return err
			}
			res.Batches++
			res.Deleted += deleted
			if deleted < w.batchSize {
				return nil
			}
		}
		res.Truncated = true
		return nil
	}()

	sweepDuration.Observe(time.Since(started).Seconds())
	sweptKeysTotal.Add(float64(res.Deleted))
	switch {
	case err == nil:
		sweepsTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, context.Canceled):
		sweepsTotal.WithLabelValues("canceled").Inc()
	default:
		sweepsTotal.WithLabelValues("error").Inc()
	}
	return res, err
}
