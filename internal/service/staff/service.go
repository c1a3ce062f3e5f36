// Package staff — ресурс сотрудников кафе.
package staff

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/metrics"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/resource"
)

// Summary — сводка по сотрудникам.
type Summary struct {
	Total    int
	Active   int
	Inactive int
	Baristas int
}

// Service — сотрудники поверх StaffRepository.
type Service struct {
	repo     domain.StaffRepository
	hook     *resource.Hook[domain.Staff]
	notifier domain.Notifier
}

// NewService создаёт сервис сотрудников.
func NewService(repo domain.StaffRepository, logger *log.Entry, notifier domain.Notifier, m *metrics.CafeMetrics) *Service {
	if logger == nil {
		logger = log.WithField("component", "staff")
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		hook: resource.New("staff", repo.List,
			resource.WithLogger(logger),
			resource.WithNotifier(notifier),
			resource.WithMetrics(m),
			resource.WithLoadErrorMessage("Failed to load staff"),
		),
	}
}

// Hook возвращает ресурсный хук сотрудников.
func (s *Service) Hook() *resource.Hook[domain.Staff] {
	return s.hook
}

// List перечитывает сотрудников и фильтрует по имени или должности.
func (s *Service) List(ctx context.Context, search string) ([]domain.Staff, error) {
	if err := s.hook.Refresh(ctx); err != nil {
		return nil, err
	}
	return Search(s.hook.Rows(), search), nil
}

// Create добавляет сотрудника.
func (s *Service) Create(ctx context.Context, member domain.Staff) (domain.Staff, error) {
	if member.Status == "" {
		member.Status = domain.StaffStatusActive
	}
	if err := s.validate(member); err != nil {
		return domain.Staff{}, err
	}
	var created domain.Staff
	err := s.hook.Mutate(ctx, "Staff member added successfully", "Failed to add staff member", func(ctx context.Context) error {
		var err error
		created, err = s.repo.Create(ctx, member)
		return domain.NewRemoteError("create staff", err)
	})
	return created, err
}

// Update меняет карточку сотрудника.
func (s *Service) Update(ctx context.Context, member domain.Staff) (domain.Staff, error) {
	if err := s.validate(member); err != nil {
		return domain.Staff{}, err
	}
	var updated domain.Staff
	err := s.hook.Mutate(ctx, "Staff member updated successfully", "Failed to update staff member", func(ctx context.Context) error {
		var err error
		updated, err = s.repo.Update(ctx, member)
		return domain.NewRemoteError("update staff", err)
	})
	return updated, err
}

// Delete удаляет сотрудника.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.hook.Mutate(ctx, "Staff member removed successfully", "Failed to remove staff member", func(ctx context.Context) error {
		return domain.NewRemoteError("delete staff", s.repo.Delete(ctx, id))
	})
}

// Summary перечитывает сотрудников и считает сводку.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	if err := s.hook.Refresh(ctx); err != nil {
		return Summary{}, err
	}
	return Summarize(s.hook.Rows()), nil
}

func (s *Service) validate(member domain.Staff) error {
	if err := member.Validate(); err != nil {
		if s.notifier != nil {
			s.notifier.Notify(domain.ToastError, err.Error())
		}
		return err
	}
	return nil
}

// Summarize считает активных, неактивных и бариста.
func Summarize(list []domain.Staff) Summary {
	sum := Summary{Total: len(list)}
	for _, m := range list {
		switch m.Status {
		case domain.StaffStatusActive:
			sum.Active++
		case domain.StaffStatusInactive:
			sum.Inactive++
		}
		if m.Role == domain.StaffRoleBarista {
			sum.Baristas++
		}
	}
	return sum
}

// Search отбирает сотрудников по подстроке в имени или должности.
func Search(list []domain.Staff, query string) []domain.Staff {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list
	}
	out := make([]domain.Staff, 0, len(list))
	for _, m := range list {
		if strings.Contains(strings.ToLower(m.Name), query) || strings.Contains(strings.ToLower(string(m.Role)), query) {
			out = append(out, m)
		}
	}
	return out
}
