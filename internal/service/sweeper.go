package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/internal/monitoring"
	repository "github.com/vogiaan1904/ticketbottle-booking/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

// HoldSweeper expires PENDING bookings whose hold lapsed. It is safe to run
// one per instance: expiry goes through the same compare-and-set as every
// other transition, so concurrent sweepers do no harm beyond wasted reads.
type HoldSweeper interface {
	Start(ctx context.Context) error
	Stop() error
	SweepOnce(ctx context.Context) (int, error)
	GetStatus() SweeperStatus
}

type SweeperConfig struct {
	Interval        time.Duration
	BatchSize       int
	RetryAttempts   int
	RetryDelay      time.Duration
	SweepTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type holdSweeper struct {
	bkRepo repository.BookingRepository
	bkSvc  BookingService
	l      logger.Logger

	config SweeperConfig

	mu        sync.RWMutex
	isRunning bool
	startedAt time.Time
	stopCh    chan struct{}
	ticker    *time.Ticker
	wg        sync.WaitGroup

	lastSweep    time.Time
	totalExpired int64
	errorCount   int64
}

func NewHoldSweeper(
	bkRepo repository.BookingRepository,
	bkSvc BookingService,
	l logger.Logger,
	cfg config.BookingConfig,
) HoldSweeper {
	return &holdSweeper{
		bkRepo: bkRepo,
		bkSvc:  bkSvc,
		l:      l,
		config: SweeperConfig{
			Interval:        cfg.SweepInterval,
			BatchSize:       cfg.SweepBatchSize,
			RetryAttempts:   3,
			RetryDelay:      time.Second,
			SweepTimeout:    10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		stopCh: make(chan struct{}),
	}
}

func (hs *holdSweeper) Start(ctx context.Context) error {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.isRunning {
		return errors.New("hold sweeper is already running")
	}

	hs.l.Info(ctx, "Starting hold sweeper",
		"interval", hs.config.Interval,
		"batch_size", hs.config.BatchSize,
	)

	hs.isRunning = true
	hs.startedAt = time.Now()
	hs.ticker = time.NewTicker(hs.config.Interval)

	hs.wg.Add(1)
	go hs.sweepLoop(ctx)

	return nil
}

func (hs *holdSweeper) Stop() error {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if !hs.isRunning {
		return errors.New("hold sweeper is not running")
	}

	hs.l.Info(context.Background(), "Stopping hold sweeper...")

	close(hs.stopCh)
	if hs.ticker != nil {
		hs.ticker.Stop()
	}

	done := make(chan struct{})
	go func() {
		hs.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		hs.l.Info(context.Background(), "Hold sweeper stopped gracefully")
	case <-time.After(hs.config.ShutdownTimeout):
		hs.l.Warn(context.Background(), "Hold sweeper shutdown timeout exceeded")
	}

	hs.isRunning = false
	return nil
}

func (hs *holdSweeper) sweepLoop(ctx context.Context) {
	defer hs.wg.Done()

	for {
		select {
		case <-ctx.Done():
			hs.l.Info(ctx, "Hold sweeper stopped due to context cancellation")
			return
		case <-hs.stopCh:
			return
		case <-hs.ticker.C:
			if _, err := hs.SweepOnce(ctx); err != nil {
				hs.incrementErrorCount()
				hs.l.Error(ctx, "Sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce expires one batch of overdue bookings and returns how many it
// expired. A failure on one booking never aborts the batch.
func (hs *holdSweeper) SweepOnce(ctx context.Context) (int, error) {
	sweepCtx, cancel := context.WithTimeout(ctx, hs.config.SweepTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		hs.mu.Lock()
		hs.lastSweep = time.Now()
		hs.mu.Unlock()

		monitoring.ObserveSweepDuration(time.Since(start).Seconds())
	}()

	due, err := hs.bkRepo.DuePending(sweepCtx, time.Now(), hs.config.BatchSize)
	if err != nil {
		return 0, err
	}

	if len(due) == 0 {
		return 0, nil
	}

	hs.l.Debug(sweepCtx, "Expiring overdue holds", "count", len(due))

	expired := 0
	for _, bookingID := range due {
		if err := hs.expireWithRetry(sweepCtx, bookingID); err != nil {
			hs.incrementErrorCount()
			hs.l.Error(sweepCtx, "Failed to expire booking",
				"booking_id", bookingID,
				"error", err,
			)
			continue
		}
		expired++
	}

	if expired > 0 {
		hs.mu.Lock()
		hs.totalExpired += int64(expired)
		hs.mu.Unlock()

		monitoring.RecordSweepExpired(expired)
	}

	return expired, nil
}

func (hs *holdSweeper) expireWithRetry(ctx context.Context, bookingID string) error {
	var lastErr error
	for attempt := 0; attempt < hs.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(hs.config.RetryDelay):
			}
		}

		if lastErr = hs.bkSvc.Expire(ctx, bookingID); lastErr == nil {
			return nil
		}
	}

	return lastErr
}

func (hs *holdSweeper) GetStatus() SweeperStatus {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	return SweeperStatus{
		IsRunning:    hs.isRunning,
		StartedAt:    hs.startedAt,
		LastSweep:    hs.lastSweep,
		TotalExpired: hs.totalExpired,
		ErrorCount:   hs.errorCount,
	}
}

func (hs *holdSweeper) incrementErrorCount() {
	hs.mu.Lock()
	hs.errorCount++
	hs.mu.Unlock()
}
