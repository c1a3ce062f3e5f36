package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/app"
)

// runner позволяет подменить app.Run в тестах.
type runner func(ctx context.Context, cfg app.Config) error

// start читает настройки, печатает предупреждения и запускает приложение.
func start(ctx context.Context, lookup app.EnvLookup, run runner, logger *log.Entry) error {
	cfg, warnings, err := app.LoadConfig(lookup)
	if err != nil {
		return err
	}
	for _, warning := range warnings {
		logger.Warn(warning)
	}

	logger.WithFields(log.Fields{
		"http_addr":    cfg.HTTPAddr,
		"grpc_addr":    cfg.GRPCAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
		"publisher":    cfg.OutboxPublisher,
	}).Info("запускаем cafe back-office")

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("cafe back-office остановлен")
	return nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := start(ctx, os.LookupEnv, app.Run, log.WithField("component", "main")); err != nil {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}
}
