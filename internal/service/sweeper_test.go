package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	pkgLog "github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

func newSweeperFixture(t *testing.T, holdTTL time.Duration) (*bookingFixture, HoldSweeper) {
	t.Helper()

	cfg := defaultBookingConfig()
	cfg.HoldTTL = holdTTL

	fx := newBookingFixture(t, cfg)
	sweeper := NewHoldSweeper(fx.bkRepo, fx.bkSvc, pkgLog.InitializeTestZapLogger(), cfg)

	return fx, sweeper
}

func TestSweepOnceExpiresOverdueHolds(t *testing.T) {
	fx, sweeper := newSweeperFixture(t, -1*time.Minute)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		b, err := fx.bkSvc.Create(ctx, CreateBookingInput{UserID: "user-1", EventID: "evt-1", Quantity: 1})
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	expired, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, expired)

	for _, id := range ids {
		b, err := fx.bkSvc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusExpired, b.Status)
	}

	snap, err := fx.invSvc.Snapshot(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Held)
	assert.Equal(t, int64(10), snap.Available)

	status := sweeper.GetStatus()
	assert.Equal(t, int64(3), status.TotalExpired)
}

func TestSweepOnceLeavesLiveHoldsAlone(t *testing.T) {
	fx, sweeper := newSweeperFixture(t, 10*time.Minute)
	ctx := context.Background()

	b, err := fx.bkSvc.Create(ctx, CreateBookingInput{UserID: "user-1", EventID: "evt-1", Quantity: 2})
	require.NoError(t, err)

	expired, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	cur, err := fx.bkSvc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, cur.Status)

	snap, err := fx.invSvc.Snapshot(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Held)
}

func TestSweepOnceFinishesSettlementForConfirmedBooking(t *testing.T) {
	fx, sweeper := newSweeperFixture(t, -1*time.Minute)
	ctx := context.Background()

	b, err := fx.bkSvc.Create(ctx, CreateBookingInput{UserID: "user-1", EventID: "evt-1", Quantity: 2})
	require.NoError(t, err)

	// Flip the status through the raw repository, mimicking a confirmation
	// that crashed between its CAS win and the hold commit. The booking is
	// CONFIRMED but still on the pending index with its tickets merely held.
	won, err := fx.bkRepo.CompareAndSetStatus(ctx, b.ID, models.BookingStatusPending, models.BookingStatusConfirmed)
	require.NoError(t, err)
	require.True(t, won)

	expired, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired, "the leftover counts as handled")

	cur, err := fx.bkSvc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, cur.Status, "sweeper must not undo a confirmation")

	// The sweeper finished the interrupted settlement on the winner's side.
	snap, err := fx.invSvc.Snapshot(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Sold)
	assert.Equal(t, int64(0), snap.Held)

	due, err := fx.bkRepo.DuePending(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, due, "a settled booking leaves the pending index")
}

func TestSweepRetriesFailedReleaseOnNextCycle(t *testing.T) {
	fx, _ := newSweeperFixture(t, -1*time.Minute)
	ctx := context.Background()

	// Bypass NewHoldSweeper to keep retry pauses out of the test.
	sweeper := &holdSweeper{
		bkRepo: fx.bkRepo,
		bkSvc:  fx.bkSvc,
		l:      pkgLog.InitializeTestZapLogger(),
		config: SweeperConfig{
			BatchSize:     10,
			RetryAttempts: 2,
			RetryDelay:    time.Millisecond,
			SweepTimeout:  time.Second,
		},
		stopCh: make(chan struct{}),
	}

	b, err := fx.bkSvc.Create(ctx, CreateBookingInput{UserID: "user-1", EventID: "evt-1", Quantity: 2})
	require.NoError(t, err)

	fx.invRepo.mu.Lock()
	fx.invRepo.failRelease = errors.New("redis down")
	fx.invRepo.mu.Unlock()

	expired, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err, "one stuck booking must not abort the sweep")
	assert.Equal(t, 0, expired)

	cur, err := fx.bkSvc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusExpired, cur.Status, "the status flip sticks even when the release fails")

	snap, err := fx.invSvc.Snapshot(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Held, "tickets are still held until the release lands")

	// The storage comes back; the next cycle picks the booking up again and
	// finishes the release.
	fx.invRepo.mu.Lock()
	fx.invRepo.failRelease = nil
	fx.invRepo.mu.Unlock()

	expired, err = sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	snap, err = fx.invSvc.Snapshot(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Held)
	assert.Equal(t, int64(10), snap.Available)

	due, err := fx.bkRepo.DuePending(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestSweeperStartStop(t *testing.T) {
	_, sweeper := newSweeperFixture(t, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, sweeper.Start(ctx))
	assert.Error(t, sweeper.Start(ctx), "double start must be rejected")

	status := sweeper.GetStatus()
	assert.True(t, status.IsRunning)

	require.NoError(t, sweeper.Stop())
	assert.Error(t, sweeper.Stop(), "double stop must be rejected")

	status = sweeper.GetStatus()
	assert.False(t, status.IsRunning)
}
