// Package notifications — лента уведомлений и её наполнение из событий заказа.
package notifications

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/metrics"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/resource"
)

// LatestLimit — размер ленты.
const LatestLimit = 10

// Service — лента уведомлений поверх NotificationRepository.
type Service struct {
	repo domain.NotificationRepository
	hook *resource.Hook[domain.Notification]
}

// NewService создаёт сервис уведомлений.
func NewService(repo domain.NotificationRepository, logger *log.Entry, notifier domain.Notifier, m *metrics.CafeMetrics) *Service {
	if logger == nil {
		logger = log.WithField("component", "notifications")
	}
	fetch := func(ctx context.Context) ([]domain.Notification, error) {
		return repo.Latest(ctx, LatestLimit)
	}
	return &Service{
		repo: repo,
		hook: resource.New("notifications", fetch,
			resource.WithLogger(logger),
			resource.WithNotifier(notifier),
			resource.WithMetrics(m),
			resource.WithLoadErrorMessage("Failed to load notifications"),
		),
	}
}

// Hook возвращает ресурсный хук уведомлений.
func (s *Service) Hook() *resource.Hook[domain.Notification] {
	return s.hook
}

// Latest перечитывает ленту.
func (s *Service) Latest(ctx context.Context) ([]domain.Notification, error) {
	if err := s.hook.Refresh(ctx); err != nil {
		return nil, err
	}
	return s.hook.Rows(), nil
}

// MarkAsRead помечает уведомление прочитанным. Отдельного сообщения об успехе нет.
func (s *Service) MarkAsRead(ctx context.Context, id string) error {
	return s.hook.Mutate(ctx, "", "Failed to mark notification as read", func(ctx context.Context) error {
		return domain.NewRemoteError("mark notification as read", s.repo.MarkAsRead(ctx, id))
	})
}

// Create добавляет уведомление в ленту.
func (s *Service) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	if err := n.Validate(); err != nil {
		return domain.Notification{}, err
	}
	created, err := s.repo.Create(ctx, n)
	if err != nil {
		return domain.Notification{}, domain.NewRemoteError("create notification", err)
	}
	return created, nil
}

// UnreadCount считает непрочитанные в последней загруженной ленте.
func (s *Service) UnreadCount() int {
	n := 0
	for _, item := range s.hook.Rows() {
		if !item.IsRead {
			n++
		}
	}
	return n
}
