package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	healthcheck "github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/health"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/storage/memory"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/storage/postgres"
)

// Storage — набор репозиториев выбранного хранилища.
type Storage struct {
	Orders        domain.OrderRepository
	Menu          domain.MenuRepository
	Staff         domain.StaffRepository
	Customers     domain.CustomerRepository
	Notifications domain.NotificationRepository
	Outbox        domain.OutboxRepository
	Timeline      domain.TimelineRepository
	Idempotency   domain.IdempotencyRepository

	// Checker проверяет доступность хранилища для /readyz.
	Checker healthcheck.Checker

	closeFn func() error
}

// Close освобождает соединения хранилища.
func (s *Storage) Close() error {
	if s == nil || s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// OpenStorage открывает хранилище по cfg.StorageDriver.
func OpenStorage(ctx context.Context, cfg Config, logger *log.Entry) (*Storage, error) {
	switch cfg.StorageDriver {
	case "", StorageDriverMemory:
		return openMemoryStorage(cfg, logger), nil
	case StorageDriverPostgres:
		return openPostgresStorage(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func openMemoryStorage(cfg Config, logger *log.Entry) *Storage {
	var (
		menu      []domain.MenuItem
		staff     []domain.Staff
		customers []domain.Customer
	)
	if cfg.SeedDemoData {
		menu, staff, customers = demoMenu(), demoStaff(), demoCustomers()
		logger.WithFields(log.Fields{
			"menu_items": len(menu),
			"staff":      len(staff),
			"customers":  len(customers),
		}).Info("seeded in-memory store with demo data")
	}

	return &Storage{
		Orders:        memory.NewOrderRepository(),
		Menu:          memory.NewMenuRepository(menu...),
		Staff:         memory.NewStaffRepository(staff...),
		Customers:     memory.NewCustomerRepository(customers...),
		Notifications: memory.NewNotificationRepository(),
		Outbox:        memory.NewOutboxRepository(),
		Timeline:      memory.NewTimelineRepository(),
		Idempotency:   memory.NewIdempotencyRepository(),
		Checker: healthcheck.CheckFunc("storage", func(context.Context) error {
			return nil
		}),
	}
}

func openPostgresStorage(ctx context.Context, cfg Config, logger *log.Entry) (*Storage, error) {
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("postgres_dsn is required for postgres storage")
	}
	store, err := postgres.Open(ctx, cfg.PostgresDSN,
		postgres.WithMaxConns(cfg.PostgresMaxConns),
		postgres.WithConnMaxLifetime(cfg.PostgresConnMaxLifetime),
	)
	if err != nil {
		return nil, err
	}
	if cfg.PostgresAutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply postgres migrations: %w", err)
		}
		version, applied, err := store.MigrationStatus(ctx)
		if err == nil {
			logger.WithFields(log.Fields{"version": version, "applied": applied}).Info("postgres schema is up to date")
		}
	}

	return &Storage{
		Orders:        postgres.NewOrderRepository(store),
		Menu:          postgres.NewMenuRepository(store),
		Staff:         postgres.NewStaffRepository(store),
		Customers:     postgres.NewCustomerRepository(store),
		Notifications: postgres.NewNotificationRepository(store),
		Outbox:        postgres.NewOutboxRepository(store),
		Timeline:      postgres.NewTimelineRepository(store),
		Idempotency:   postgres.NewIdempotencyRepository(store),
		Checker:       healthcheck.CheckFunc("storage", store.Ping),
		closeFn:       store.Close,
	}, nil
}
