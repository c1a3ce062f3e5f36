// Package resource реализует общий цикл ресурса: выборка, мутация, обязательное
// обновление после мутации и сообщения оператору.
package resource

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/metrics"
)

// FetchFunc читает актуальный набор строк ресурса.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Options задаёт зависимости Hook.
type Options struct {
	Logger   *log.Entry
	Notifier domain.Notifier
	Metrics  *metrics.CafeMetrics
	// LoadErrorMessage показывается оператору при неудачной выборке.
	LoadErrorMessage string
}

// Option настраивает Hook.
type Option func(*Options)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithNotifier задаёт получателя сообщений оператору.
func WithNotifier(n domain.Notifier) Option {
	return func(o *Options) { o.Notifier = n }
}

// WithMetrics задаёт метрики.
func WithMetrics(m *metrics.CafeMetrics) Option {
	return func(o *Options) { o.Metrics = m }
}

// WithLoadErrorMessage задаёт текст сообщения о неудачной выборке.
func WithLoadErrorMessage(msg string) Option {
	return func(o *Options) { o.LoadErrorMessage = msg }
}

// Hook хранит последний полученный набор строк ресурса.
// Результаты выборок применяются не более одного раза и по порядку запуска:
// ответ более старой выборки, пришедший позже новой, отбрасывается.
type Hook[T any] struct {
	name     string
	fetch    FetchFunc[T]
	logger   *log.Entry
	notifier domain.Notifier
	metrics  *metrics.CafeMetrics
	loadMsg  string

	mu      sync.RWMutex
	rows    []T
	loaded  bool
	seq     uint64
	applied uint64
	closed  bool
	lastErr error
}

// New создаёт хук ресурса name.
func New[T any](name string, fetch FetchFunc[T], options ...Option) *Hook[T] {
	opts := Options{LoadErrorMessage: "Failed to load " + name}
	for _, option := range options {
		option(&opts)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "resource")
	}

	return &Hook[T]{
		name:     name,
		fetch:    fetch,
		logger:   logger.WithField("resource", name),
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		loadMsg:  opts.LoadErrorMessage,
	}
}

// Name возвращает имя ресурса.
func (h *Hook[T]) Name() string {
	return h.name
}

// Refresh перечитывает ресурс. При ошибке прежние строки остаются видимыми.
func (h *Hook[T]) Refresh(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.seq++
	seq := h.seq
	h.mu.Unlock()

	rows, err := h.fetch(ctx)
	h.metrics.RecordRefresh(h.name, err == nil)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || seq <= h.applied {
		h.logger.WithField("seq", seq).Debug("discarding stale refresh result")
		return domain.NewRemoteError(h.name+".refresh", err)
	}
	h.applied = seq
	h.lastErr = err

	if err != nil {
		h.logger.WithError(err).Warn("refresh failed")
		h.notify(domain.ToastError, h.loadMsg)
		return domain.NewRemoteError(h.name+".refresh", err)
	}

	h.rows = append([]T(nil), rows...)
	h.loaded = true
	return nil
}

// Mutate выполняет мутацию, сообщает оператору результат и в любом случае
// перечитывает ресурс. Возвращает ошибку мутации. Валидация входа выполняется
// вызывающим до Mutate, чтобы отклонённый запрос не доходил до хранилища.
func (h *Hook[T]) Mutate(ctx context.Context, successMsg, errorMsg string, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err != nil {
		h.logger.WithError(err).Warn(errorMsg)
		h.notify(domain.ToastError, errorMsg)
	} else {
		h.notify(domain.ToastSuccess, successMsg)
	}

	if refreshErr := h.Refresh(ctx); refreshErr != nil && err == nil {
		h.logger.WithError(refreshErr).Warn("refresh after mutation failed")
	}
	return err
}

// Rows возвращает копию последних применённых строк.
func (h *Hook[T]) Rows() []T {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]T(nil), h.rows...)
}

// Loaded сообщает, была ли хотя бы одна успешная выборка.
func (h *Hook[T]) Loaded() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loaded
}

// LastError возвращает ошибку последней применённой выборки.
func (h *Hook[T]) LastError() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastErr
}

// Close отключает хук: результаты выборок в полёте и последующих вызовов отбрасываются.
func (h *Hook[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}

func (h *Hook[T]) notify(kind domain.ToastKind, message string) {
	if h.notifier == nil || message == "" {
		return
	}
	h.notifier.Notify(kind, message)
}
