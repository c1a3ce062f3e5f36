package app

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/idempotency"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/outbox"
)

// startWorkers запускает outbox relay, очистку ключей идемпотентности и kafka consumer.
// Возвращаемый канал закрывается, когда все воркеры завершились.
func startWorkers(ctx context.Context, cfg Config, store *Storage, bus *eventBus, base *log.Logger) <-chan struct{} {
	var wg sync.WaitGroup

	options := []outbox.Option{
		outbox.WithLogger(base.WithField("component", "outbox-worker")),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		outbox.WithLease(cfg.OutboxLease),
	}
	if bus.dlq != nil {
		options = append(options, outbox.WithDLQPublisher(bus.dlq))
	}
	relay := outbox.NewWorker(store.Outbox, bus.publisher, options...)

	cleanup := idempotency.NewCleanupWorker(store.Idempotency,
		idempotency.WithLogger(base.WithField("component", "idempotency-cleanup")),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		relay.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanup.Run(ctx)
	}()

	if bus.consumer != nil {
		if err := bus.consumer.Start(ctx); err != nil {
			base.WithError(err).Error("failed to start kafka consumer")
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

// shutdownWorkers отменяет контекст воркеров и ждёт их завершения не дольше shutdownTimeout.
func shutdownWorkers(cancel context.CancelFunc, done <-chan struct{}, logger *log.Entry) {
	if cancel != nil {
		cancel()
	}
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		logger.Warn("background workers did not stop in time")
	}
}
