// Package idempotency повторяет сохранённый ответ для запросов с тем же
// idempotency-key и чистит просроченные ключи.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

const (
	// DefaultTTL — срок жизни ключа.
	DefaultTTL = 24 * time.Hour
	// MaxKeyLength ограничивает длину ключа.
	MaxKeyLength = 128
)

// Response — ответ транспорта, который сохраняется для повтора.
type Response struct {
	Body       []byte
	StatusCode int
}

// Outcome — результат Execute.
type Outcome struct {
	Response
	// Replayed — ответ взят из хранилища, run не вызывался.
	Replayed bool
	// Failed — повторён сохранённый ответ об ошибке.
	Failed bool
}

// ExecutorOption настраивает Executor.
type ExecutorOption func(*Executor)

// WithExecutorLogger задаёт logger.
func WithExecutorLogger(logger *log.Entry) ExecutorOption {
	return func(e *Executor) { e.logger = logger }
}

// WithTTL задаёт срок жизни ключа.
func WithTTL(ttl time.Duration) ExecutorOption {
	return func(e *Executor) {
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

// WithClock подменяет часы.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) { e.now = now }
}

// Executor выполняет запрос не более одного раза на ключ.
type Executor struct {
	repo   domain.IdempotencyRepository
	ttl    time.Duration
	now    func() time.Time
	logger *log.Entry
}

// NewExecutor создаёт Executor. При repo == nil запросы выполняются без кэширования.
func NewExecutor(repo domain.IdempotencyRepository, opts ...ExecutorOption) *Executor {
	e := &Executor{
		repo:   repo,
		ttl:    DefaultTTL,
		now:    func() time.Time { return time.Now().UTC() },
		logger: log.WithField("component", "idempotency"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RequestHash считает sha256 от тела запроса.
func RequestHash(request []byte) string {
	sum := sha256.Sum256(request)
	return hex.EncodeToString(sum[:])
}

// Execute выполняет run под ключом rawKey в пространстве scope. Пустой ключ отключает идемпотентность.
// Ошибка run сохраняется через encodeErr и возвращается вызывающему как есть;
// последующие запросы с тем же ключом получают сохранённый ответ с Failed=true.
func (e *Executor) Execute(
	ctx context.Context,
	scope, rawKey string,
	request []byte,
	run func(ctx context.Context) (Response, error),
	encodeErr func(error) Response,
) (Outcome, error) {
	key := domain.NewIdempotencyKey(scope, rawKey)
	if key.Value == "" || e.repo == nil {
		resp, err := run(ctx)
		return Outcome{Response: resp}, err
	}
	if len(key.Value) > MaxKeyLength {
		return Outcome{}, domain.NewValidationError("idempotency_key", fmt.Errorf("key must be at most %d characters", MaxKeyLength))
	}

	logger := e.logger.WithFields(log.Fields{"scope": key.Scope, "idempotency_key": key.Value})
	record, err := e.repo.Reserve(ctx, key, RequestHash(request), e.now().Add(e.ttl))
	if err != nil {
		return e.replay(logger, record, err)
	}

	resp, runErr := run(ctx)
	if runErr != nil {
		failure := encodeErr(runErr)
		e.resolve(ctx, logger, key, domain.IdempotencyStatusFailed, failure)
		return Outcome{}, runErr
	}
	e.resolve(ctx, logger, key, domain.IdempotencyStatusDone, resp)
	return Outcome{Response: resp}, nil
}

// resolve сохраняет ответ; ошибка хранилища не меняет результат запроса.
func (e *Executor) resolve(ctx context.Context, logger *log.Entry, key domain.IdempotencyKey, status domain.IdempotencyStatus, resp Response) {
	if err := e.repo.Resolve(ctx, key, status, resp.Body, resp.StatusCode); err != nil {
		logger.WithError(err).WithField("status", status).Warn("failed to store idempotent response")
	}
}

func (e *Executor) replay(logger *log.Entry, record domain.IdempotencyRecord, reserveErr error) (Outcome, error) {
	switch {
	case errors.Is(reserveErr, domain.ErrIdempotencyHashMismatch):
		return Outcome{}, domain.ErrIdempotencyHashMismatch
	case errors.Is(reserveErr, domain.ErrIdempotencyKeyAlreadyExists):
	default:
		logger.WithError(reserveErr).Warn("failed to reserve idempotency key")
		return Outcome{}, domain.NewRemoteError("idempotency.reserve", reserveErr)
	}

	stored := Response{Body: append([]byte(nil), record.ResponseBody...), StatusCode: record.StatusCode}
	switch record.Status {
	case domain.IdempotencyStatusDone:
		logger.Debug("replaying stored response")
		return Outcome{Response: stored, Replayed: true}, nil
	case domain.IdempotencyStatusFailed:
		logger.Debug("replaying stored failure")
		return Outcome{Response: stored, Replayed: true, Failed: true}, nil
	case domain.IdempotencyStatusProcessing:
		return Outcome{}, domain.ErrIdempotencyKeyInProgress
	default:
		return Outcome{}, fmt.Errorf("unknown idempotency record status %q", record.Status)
	}
}
