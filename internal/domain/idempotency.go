package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrIdempotencyKeyRequired — пустой ключ идемпотентности.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyScopeRequired — ключ без операции, к которой он относится.
	ErrIdempotencyScopeRequired = errors.New("idempotency scope is required")
	// ErrIdempotencyRequestHashRequired — пустой хеш запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyNotFound — ключа нет в хранилище или он уже закрыт.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	// ErrIdempotencyKeyAlreadyExists — ключ уже занят другим запросом.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyKeyInProgress — запрос с этим ключом ещё обрабатывается.
	ErrIdempotencyKeyInProgress = errors.New("idempotency key is in progress")
	// ErrIdempotencyHashMismatch — ключ переиспользован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
	// ErrIdempotencyUnresolvedStatus — Resolve вызван со статусом processing.
	ErrIdempotencyUnresolvedStatus = errors.New("idempotency record can only be resolved as done or failed")
)

// IdempotencyStatus описывает жизненный цикл ключа идемпотентности.
type IdempotencyStatus string

const (
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	IdempotencyStatusDone       IdempotencyStatus = "done"
	IdempotencyStatusFailed     IdempotencyStatus = "failed"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s IdempotencyStatus) Valid() bool {
	switch s {
	case IdempotencyStatusProcessing, IdempotencyStatusDone, IdempotencyStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal сообщает, что ответ по ключу уже сохранён.
func (s IdempotencyStatus) Terminal() bool {
	return s == IdempotencyStatusDone || s == IdempotencyStatusFailed
}

// IdempotencyKey — клиентский ключ в пространстве имён операции.
// Один и тот же Value в разных Scope обозначает разные запросы.
type IdempotencyKey struct {
	Scope string
	Value string
}

// NewIdempotencyKey обрезает пробелы в обеих частях ключа.
func NewIdempotencyKey(scope, value string) IdempotencyKey {
	return IdempotencyKey{Scope: strings.TrimSpace(scope), Value: strings.TrimSpace(value)}
}

// Validate проверяет, что обе части ключа заданы.
func (k IdempotencyKey) Validate() error {
	if k.Scope == "" {
		return ErrIdempotencyScopeRequired
	}
	if k.Value == "" {
		return ErrIdempotencyKeyRequired
	}
	return nil
}

func (k IdempotencyKey) String() string {
	return k.Scope + "#" + k.Value
}

// IdempotencyRecord хранит состояние обработки запроса с idempotency-key.
// StatusCode — код ответа транспорта (HTTP status или gRPC code).
type IdempotencyRecord struct {
	Key          IdempotencyKey
	RequestHash  string
	ResponseBody []byte
	StatusCode   int
	Status       IdempotencyStatus
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expired сообщает, что запись можно занять заново или удалить.
func (r IdempotencyRecord) Expired(at time.Time) bool {
	return !r.ExpiresAt.After(at)
}
