// Package health отдаёт /healthz, /readyz и /livez для сервиса кафе.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

// Status — состояние компонента.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// DefaultCheckTimeout ограничивает одну проверку.
const DefaultCheckTimeout = 2 * time.Second

// Check — результат проверки компонента.
type Check struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	Optional   bool   `json:"optional,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Response — тело ответа /healthz.
type Response struct {
	Status        Status           `json:"status"`
	Timestamp     time.Time        `json:"timestamp"`
	Checks        map[string]Check `json:"checks,omitempty"`
	Version       string           `json:"version,omitempty"`
	UptimeSeconds int64            `json:"uptime_seconds"`
}

// Checker проверяет один компонент.
type Checker interface {
	Check(ctx context.Context) Check
}

type funcChecker struct {
	name string
	fn   func(ctx context.Context) error
}

func (c funcChecker) Check(ctx context.Context) Check {
	start := time.Now()
	err := c.fn(ctx)
	check := Check{Name: c.name, Status: StatusHealthy, DurationMs: time.Since(start).Milliseconds()}
	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	}
	return check
}

// CheckFunc превращает функцию в Checker: ошибка означает unhealthy.
func CheckFunc(name string, fn func(ctx context.Context) error) Checker {
	return funcChecker{name: name, fn: fn}
}

type registration struct {
	checker  Checker
	optional bool
}

// Handler собирает зарегистрированные проверки и выполняет их параллельно.
type Handler struct {
	mu      sync.RWMutex
	checks  map[string]registration
	version string
	started time.Time
	timeout time.Duration
	now     func() time.Time
}

func NewHandler(version string) *Handler {
	return &Handler{
		checks:  make(map[string]registration),
		version: version,
		started: time.Now(),
		timeout: DefaultCheckTimeout,
		now:     time.Now,
	}
}

// RegisterChecker регистрирует обязательную проверку: её unhealthy делает сервис неготовым.
func (h *Handler) RegisterChecker(name string, checker Checker) {
	h.register(name, registration{checker: checker})
}

// RegisterOptional регистрирует проверку, отказ которой только понижает статус до degraded.
func (h *Handler) RegisterOptional(name string, checker Checker) {
	h.register(name, registration{checker: checker, optional: true})
}

func (h *Handler) register(name string, r registration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = r
}

// Run выполняет все проверки, каждую со своим таймаутом.
func (h *Handler) Run(ctx context.Context) Response {
	h.mu.RLock()
	regs := make(map[string]registration, len(h.checks))
	for name, r := range h.checks {
		regs[name] = r
	}
	h.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]Check, len(regs))
	)
	for name, r := range regs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()
			check := r.checker.Check(checkCtx)
			check.Optional = r.optional
			mu.Lock()
			results[name] = check
			mu.Unlock()
		}()
	}
	wg.Wait()

	return Response{
		Status:        overall(results),
		Timestamp:     h.now(),
		Checks:        results,
		Version:       h.version,
		UptimeSeconds: int64(h.now().Sub(h.started).Seconds()),
	}
}

// overall: обязательный unhealthy даёт unhealthy, любой другой отказ даёт degraded.
func overall(checks map[string]Check) Status {
	status := StatusHealthy
	for _, c := range checks {
		switch {
		case c.Status == StatusUnhealthy && !c.Optional:
			return StatusUnhealthy
		case c.Status != StatusHealthy:
			status = StatusDegraded
		}
	}
	return status
}

// ServeHTTP отвечает полным отчётом; unhealthy даёт 503.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := h.Run(r.Context())

	code := http.StatusOK
	if response.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response)
}

// LivenessHandler всегда отвечает 200.
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ReadinessHandler отвечает 503, пока хотя бы одна обязательная проверка unhealthy.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	if h.Run(r.Context()).Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// OutboxStatsSource отдаёт статистику outbox.
type OutboxStatsSource interface {
	Stats(ctx context.Context) (domain.OutboxStats, error)
}

// OutboxChecker переходит в degraded при большом или старом backlog
// и при наличии сообщений, ушедших в dead letter.
type OutboxChecker struct {
	repo       OutboxStatsSource
	maxPending int
	maxAge     time.Duration
	now        func() time.Time
}

// NewOutboxChecker создаёт проверку; maxPending <= 0 и maxAge <= 0 отключают свой порог.
func NewOutboxChecker(repo OutboxStatsSource, maxPending int, maxAge time.Duration) *OutboxChecker {
	return &OutboxChecker{repo: repo, maxPending: maxPending, maxAge: maxAge, now: time.Now}
}

func (c *OutboxChecker) Check(ctx context.Context) Check {
	start := time.Now()
	stats, err := c.repo.Stats(ctx)
	check := Check{Name: "outbox", Status: StatusHealthy, DurationMs: time.Since(start).Milliseconds()}
	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
		return check
	}

	var age time.Duration
	if !stats.OldestPendingAt.IsZero() {
		age = c.now().Sub(stats.OldestPendingAt)
	}
	switch {
	case c.maxPending > 0 && stats.PendingCount > c.maxPending:
		check.Message = fmt.Sprintf("%d pending events", stats.PendingCount)
	case c.maxAge > 0 && age > c.maxAge:
		check.Message = fmt.Sprintf("oldest pending event is %s old", age.Truncate(time.Second))
	case stats.FailedCount > 0:
		check.Message = fmt.Sprintf("%d events moved to dead letter", stats.FailedCount)
	default:
		return check
	}
	check.Status = StatusDegraded
	return check
}
