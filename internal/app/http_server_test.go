package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	healthcheck "github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/health"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/storage/memory"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/version"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestStartMetricsServer_Endpoints(t *testing.T) {
	port := findFreePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outboxRepo := memory.NewOutboxRepository()
	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", healthcheck.CheckFunc("storage", func(context.Context) error { return nil }))
	healthHandler.RegisterOptional("outbox", healthcheck.NewOutboxChecker(outboxRepo, 10, time.Minute))
	srv := startMetricsServer(ctx, fmt.Sprintf("127.0.0.1:%d", port), log.WithField("test", "metrics"), healthHandler)
	require.NotNil(t, srv)

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/livez")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)

	code, body := get(t, base+"/metrics")
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, body)

	code, body = get(t, base+"/healthz")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, string(healthcheck.StatusHealthy))

	code, body = get(t, base+"/livez")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", body)

	code, body = get(t, base+"/readyz")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ready", body)

	msg, err := outboxRepo.Enqueue(ctx, domain.OutboxMessage{ID: "evt-1", AggregateType: domain.AggregateTypeOrder, AggregateID: "o-1", EventType: "order.created", Payload: []byte(`{}`)})
	require.NoError(t, err)
	require.NoError(t, outboxRepo.Bury(ctx, msg.ID, "broker rejected"))

	code, body = get(t, base+"/healthz")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, string(healthcheck.StatusDegraded))
	require.Contains(t, body, "dead letter")

	code, _ = get(t, base+"/readyz")
	require.Equal(t, http.StatusOK, code, "a dead-lettered event does not make the service unready")
}

func TestStartMetricsServer_NotReadyWhenStorageDown(t *testing.T) {
	port := findFreePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", healthcheck.CheckFunc("storage", func(context.Context) error {
		return errors.New("connection refused")
	}))
	startMetricsServer(ctx, fmt.Sprintf("127.0.0.1:%d", port), log.WithField("test", "metrics-down"), healthHandler)

	url := fmt.Sprintf("http://127.0.0.1:%d/readyz", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusServiceUnavailable
	}, 2*time.Second, 20*time.Millisecond)
}

func TestStartMetricsServer_StopsOnContextCancel(t *testing.T) {
	port := findFreePort(t)
	ctx, cancel := context.WithCancel(context.Background())

	startMetricsServer(ctx, fmt.Sprintf("127.0.0.1:%d", port), log.WithField("test", "metrics-stop"), healthcheck.NewHandler("test"))
	url := fmt.Sprintf("http://127.0.0.1:%d/livez", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool {
		_, err := http.Get(url)
		return err != nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestShutdownHTTP(t *testing.T) {
	logger := log.WithField("test", "shutdown-http")
	shutdownHTTP(nil, logger)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}
	served := make(chan error, 1)
	go func() { served <- srv.Serve(lis) }()

	shutdownHTTP(srv, logger)
	require.ErrorIs(t, <-served, http.ErrServerClosed)
}

func findFreePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}
