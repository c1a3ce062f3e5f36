package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

type manualClock struct{ at time.Time }

func (c *manualClock) now() time.Time { return c.at }

func (c *manualClock) advance(d time.Duration) { c.at = c.at.Add(d) }

func newOutboxWithClock() (*OutboxRepository, *manualClock) {
	clock := &manualClock{at: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	repo := NewOutboxRepository()
	repo.now = clock.now
	return repo, clock
}

func orderEvent(aggregateID string) domain.OutboxMessage {
	return domain.OutboxMessage{
		AggregateType: domain.AggregateTypeOrder,
		AggregateID:   aggregateID,
		EventType:     "order.created",
		Payload:       []byte(`{"status":"pending"}`),
	}
}

func TestOutboxRepository_ClaimOrdersAndLeases(t *testing.T) {
	ctx := context.Background()
	repo, clock := newOutboxWithClock()

	first, err := repo.Enqueue(ctx, orderEvent("order-1"))
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	clock.advance(time.Millisecond)
	second, err := repo.Enqueue(ctx, orderEvent("order-2"))
	require.NoError(t, err)

	claimed, err := repo.Claim(ctx, clock.now(), 1, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.Equal(t, first.ID, claimed[0].ID)

	claimed, err = repo.Claim(ctx, clock.now(), 10, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, claimed, 1, "leased message is hidden")
	require.Equal(t, second.ID, claimed[0].ID)

	clock.advance(31 * time.Second)
	claimed, err = repo.Claim(ctx, clock.now(), 10, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, claimed, 2, "expired leases are claimable again")

	_, err = repo.Enqueue(ctx, domain.OutboxMessage{ID: first.ID})
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestOutboxRepository_RescheduleAndBury(t *testing.T) {
	ctx := context.Background()
	repo, clock := newOutboxWithClock()

	msg, err := repo.Enqueue(ctx, orderEvent("order-1"))
	require.NoError(t, err)

	require.NoError(t, repo.Reschedule(ctx, msg.ID, clock.now().Add(time.Minute), "broker unavailable"))
	claimed, err := repo.Claim(ctx, clock.now(), 10, time.Second)
	require.NoError(t, err)
	require.Empty(t, claimed)

	clock.advance(time.Minute)
	claimed, err = repo.Claim(ctx, clock.now(), 10, time.Second)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.Equal(t, 1, claimed[0].Attempts)
	require.Equal(t, "broker unavailable", claimed[0].LastError)

	require.NoError(t, repo.Bury(ctx, msg.ID, "still down"))
	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.OutboxStats{FailedCount: 1}, stats)

	require.ErrorIs(t, repo.Acknowledge(ctx, msg.ID), domain.ErrOutboxMessageNotFound, "failed message is final")
	require.ErrorIs(t, repo.Reschedule(ctx, "missing", clock.now(), ""), domain.ErrOutboxMessageNotFound)
}

func TestOutboxRepository_StatsAndPending(t *testing.T) {
	ctx := context.Background()
	repo, clock := newOutboxWithClock()

	created := clock.now()
	sent, err := repo.Enqueue(ctx, orderEvent("order-1"))
	require.NoError(t, err)
	clock.advance(time.Second)
	kept, err := repo.Enqueue(ctx, orderEvent("order-2"))
	require.NoError(t, err)

	require.NoError(t, repo.Acknowledge(ctx, sent.ID))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.PendingCount)
	require.True(t, stats.OldestPendingAt.Equal(created.Add(time.Second)))

	pending := repo.Pending()
	require.Len(t, pending, 1)
	require.Equal(t, kept.ID, pending[0].ID)
}
