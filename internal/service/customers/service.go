// Package customers — ресурс клиентов и программы лояльности.
package customers

import (
	"context"
	"math"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/metrics"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/resource"
)

// Summary — сводка по клиентам.
type Summary struct {
	Total              int
	VIP                int
	New                int
	AvgLoyaltyPoints   int
	TotalLoyaltyPoints int
}

// Service — клиенты поверх CustomerRepository.
type Service struct {
	repo     domain.CustomerRepository
	hook     *resource.Hook[domain.Customer]
	notifier domain.Notifier
}

// NewService создаёт сервис клиентов.
func NewService(repo domain.CustomerRepository, logger *log.Entry, notifier domain.Notifier, m *metrics.CafeMetrics) *Service {
	if logger == nil {
		logger = log.WithField("component", "customers")
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		hook: resource.New("customers", repo.List,
			resource.WithLogger(logger),
			resource.WithNotifier(notifier),
			resource.WithMetrics(m),
			resource.WithLoadErrorMessage("Failed to load customers"),
		),
	}
}

// Hook возвращает ресурсный хук клиентов.
func (s *Service) Hook() *resource.Hook[domain.Customer] {
	return s.hook
}

// List перечитывает клиентов и ищет по имени, email или телефону.
func (s *Service) List(ctx context.Context, search string) ([]domain.Customer, error) {
	if err := s.hook.Refresh(ctx); err != nil {
		return nil, err
	}
	return Search(s.hook.Rows(), search), nil
}

// Update меняет карточку клиента.
func (s *Service) Update(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	if err := c.Validate(); err != nil {
		if s.notifier != nil {
			s.notifier.Notify(domain.ToastError, err.Error())
		}
		return domain.Customer{}, err
	}
	var updated domain.Customer
	err := s.hook.Mutate(ctx, "Customer updated successfully", "Failed to update customer", func(ctx context.Context) error {
		var err error
		updated, err = s.repo.Update(ctx, c)
		return domain.NewRemoteError("update customer", err)
	})
	return updated, err
}

// Summary перечитывает клиентов и считает сводку.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	if err := s.hook.Refresh(ctx); err != nil {
		return Summary{}, err
	}
	return Summarize(s.hook.Rows()), nil
}

// Summarize считает VIP, новых и средние баллы (округление до целого).
func Summarize(list []domain.Customer) Summary {
	sum := Summary{Total: len(list)}
	for _, c := range list {
		switch c.Status {
		case domain.CustomerStatusVIP:
			sum.VIP++
		case domain.CustomerStatusNew:
			sum.New++
		}
		sum.TotalLoyaltyPoints += c.LoyaltyPoints
	}
	if sum.Total > 0 {
		sum.AvgLoyaltyPoints = int(math.Round(float64(sum.TotalLoyaltyPoints) / float64(sum.Total)))
	}
	return sum
}

// Search отбирает клиентов по подстроке в имени, email или телефоне.
func Search(list []domain.Customer, query string) []domain.Customer {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list
	}
	out := make([]domain.Customer, 0, len(list))
	for _, c := range list {
		if strings.Contains(strings.ToLower(c.Name), query) ||
			strings.Contains(strings.ToLower(c.Email), query) ||
			strings.Contains(c.Phone, query) {
			out = append(out, c)
		}
	}
	return out
}
