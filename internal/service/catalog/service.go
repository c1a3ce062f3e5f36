// Package catalog — ресурс позиций меню.
package catalog

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/metrics"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/resource"
)

// CategoryAll отключает фильтр по категории.
const CategoryAll = "all"

const (
	msgLoadFailed   = "Failed to load menu items"
	msgCreated      = "Menu item created successfully"
	msgCreateFailed = "Failed to create menu item"
	msgUpdated      = "Menu item updated successfully"
	msgUpdateFailed = "Failed to update menu item"
	msgDeleted      = "Menu item deleted successfully"
	msgDeleteFailed = "Failed to delete menu item"
)

// Service — каталог меню поверх MenuRepository.
type Service struct {
	repo     domain.MenuRepository
	hook     *resource.Hook[domain.MenuItem]
	notifier domain.Notifier
	logger   *log.Entry
}

// NewService создаёт сервис каталога.
func NewService(repo domain.MenuRepository, logger *log.Entry, notifier domain.Notifier, m *metrics.CafeMetrics) *Service {
	if logger == nil {
		logger = log.WithField("component", "catalog")
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		hook: resource.New("menu_items", repo.List,
			resource.WithLogger(logger),
			resource.WithNotifier(notifier),
			resource.WithMetrics(m),
			resource.WithLoadErrorMessage(msgLoadFailed),
		),
	}
}

// Hook возвращает ресурсный хук меню.
func (s *Service) Hook() *resource.Hook[domain.MenuItem] {
	return s.hook
}

// List перечитывает меню и применяет фильтр.
func (s *Service) List(ctx context.Context, search, category string) ([]domain.MenuItem, error) {
	if err := s.hook.Refresh(ctx); err != nil {
		return nil, err
	}
	return Filter(s.hook.Rows(), search, category), nil
}

// Create добавляет позицию меню.
func (s *Service) Create(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if err := s.validate(item); err != nil {
		return domain.MenuItem{}, err
	}
	var created domain.MenuItem
	err := s.hook.Mutate(ctx, msgCreated, msgCreateFailed, func(ctx context.Context) error {
		var err error
		created, err = s.repo.Create(ctx, item)
		return domain.NewRemoteError("create menu item", err)
	})
	return created, err
}

// Update меняет позицию меню.
func (s *Service) Update(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if err := s.validate(item); err != nil {
		return domain.MenuItem{}, err
	}
	var updated domain.MenuItem
	err := s.hook.Mutate(ctx, msgUpdated, msgUpdateFailed, func(ctx context.Context) error {
		var err error
		updated, err = s.repo.Update(ctx, item)
		return domain.NewRemoteError("update menu item", err)
	})
	return updated, err
}

// Delete удаляет позицию меню. Прошлые заказы хранят свою цену и не затрагиваются.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.hook.Mutate(ctx, msgDeleted, msgDeleteFailed, func(ctx context.Context) error {
		return domain.NewRemoteError("delete menu item", s.repo.Delete(ctx, id))
	})
}

// CountAvailable возвращает число доступных позиций.
func (s *Service) CountAvailable(ctx context.Context) (int, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return 0, domain.NewRemoteError("list menu items", err)
	}
	return CountAvailable(items), nil
}

func (s *Service) validate(item domain.MenuItem) error {
	if err := item.Validate(); err != nil {
		if s.notifier != nil {
			s.notifier.Notify(domain.ToastError, err.Error())
		}
		return err
	}
	return nil
}

// Filter отбирает позиции по подстроке в имени/описании и по категории.
func Filter(items []domain.MenuItem, search, category string) []domain.MenuItem {
	search = strings.ToLower(strings.TrimSpace(search))
	category = strings.TrimSpace(category)
	out := make([]domain.MenuItem, 0, len(items))
	for _, item := range items {
		if category != "" && !strings.EqualFold(category, CategoryAll) && !strings.EqualFold(category, string(item.Category)) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Name), search) &&
			!strings.Contains(strings.ToLower(item.Description), search) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// CountAvailable считает доступные позиции.
func CountAvailable(items []domain.MenuItem) int {
	n := 0
	for _, item := range items {
		if item.Available {
			n++
		}
	}
	return n
}
