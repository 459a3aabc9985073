package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/internal/monitoring"
	repository "github.com/vogiaan1904/ticketbottle-booking/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type BookingService interface {
	// Create reserves inventory and writes a PENDING booking with a hold
	// that expires after the configured TTL.
	Create(ctx context.Context, input CreateBookingInput) (*models.Booking, error)
	Get(ctx context.Context, bookingID string) (*models.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)
	// Confirm moves the booking to CONFIRMED and commits its hold. Called by
	// the payment flow once a payment settles successfully. Re-confirming
	// with the same payment id is a no-op.
	Confirm(ctx context.Context, input ConfirmBookingInput) (*models.Booking, error)
	// Cancel releases the hold at the user's request.
	Cancel(ctx context.Context, bookingID, userID string) (*models.Booking, error)
	// Expire is the sweeper's entry point; it never treats a lost race as an
	// error.
	Expire(ctx context.Context, bookingID string) error
}

type bookingService struct {
	repo   repository.BookingRepository
	invSvc InventoryService
	prod   producer.Producer
	l      logger.Logger
	cfg    config.BookingConfig
}

func NewBookingService(
	repo repository.BookingRepository,
	invSvc InventoryService,
	prod producer.Producer,
	l logger.Logger,
	cfg config.BookingConfig,
) BookingService {
	return &bookingService{
		repo:   repo,
		invSvc: invSvc,
		prod:   prod,
		l:      l,
		cfg:    cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	if input.Quantity < 1 || input.Quantity > s.cfg.MaxQuantity {
		return nil, ErrInvalidQuantity
	}

	token := uuid.NewString()
	if err := s.invSvc.Reserve(ctx, input.EventID, token, int64(input.Quantity)); err != nil {
		return nil, err
	}

	now := time.Now()
	b := &models.Booking{
		ID:         uuid.NewString(),
		UserID:     input.UserID,
		EventID:    input.EventID,
		TicketType: input.TicketType,
		Quantity:   input.Quantity,
		Status:     models.BookingStatusPending,
		HoldToken:  token,
		HoldExpiry: now.Add(s.cfg.HoldTTL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, b); err != nil {
		// The hold is orphaned if we can't record the booking; give the
		// tickets back before surfacing the error.
		if relErr := s.invSvc.Release(ctx, token); relErr != nil {
			s.l.Errorf(ctx, "bookingService.Create: release after failed write: %v", relErr)
		}
		return nil, err
	}

	monitoring.RecordBookingCreated(b.EventID)

	if err := s.prod.PublishBookingCreated(ctx, kafka.BookingCreatedEvent{
		BookingID:  b.ID,
		UserID:     b.UserID,
		EventID:    b.EventID,
		TicketType: b.TicketType,
		Quantity:   b.Quantity,
		HoldExpiry: b.HoldExpiry,
	}); err != nil {
		s.l.Errorf(ctx, "bookingService.Create: publish: %v", err)
	}

	s.l.Infof(ctx, "Booking created",
		"booking_id", b.ID,
		"event_id", b.EventID,
		"quantity", b.Quantity,
		"hold_expiry", b.HoldExpiry,
	)

	return b, nil
}

func (s *bookingService) Get(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	return b, nil
}

func (s *bookingService) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *bookingService) Confirm(ctx context.Context, input ConfirmBookingInput) (*models.Booking, error) {
	b, err := s.Get(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}

	// A confirmation that arrives after the hold lapsed loses to the
	// sweeper even if the sweeper hasn't visited the booking yet.
	if b.Status == models.BookingStatusPending && b.HoldExpired(time.Now()) {
		if err := s.Expire(ctx, b.ID); err != nil {
			s.l.Errorf(ctx, "bookingService.Confirm: expire overdue: %v", err)
		}
		return nil, ErrInvalidTransition
	}

	won, err := s.repo.CompareAndSetStatus(ctx, b.ID, models.BookingStatusPending, models.BookingStatusConfirmed)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if !won {
		// Re-read to distinguish an idempotent repeat from a genuine
		// conflict with cancel/expire.
		cur, err := s.Get(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		if cur.Status == models.BookingStatusConfirmed && cur.PaymentID == input.PaymentID {
			return cur, nil
		}
		return nil, ErrInvalidTransition
	}

	// Winning the CAS guarantees the hold is still held: every settling path
	// runs behind its own CAS win. The booking stays on the pending index
	// until the commit lands, so a failure here is retried by the sweeper.
	if err := s.invSvc.Commit(ctx, b.HoldToken); err != nil {
		s.l.Errorf(ctx, "bookingService.Confirm: commit hold: %v", err)
		return nil, err
	}

	if err := s.repo.RemovePending(ctx, b.ID); err != nil {
		s.l.Errorf(ctx, "bookingService.Confirm: remove pending: %v", err)
	}

	if err := s.repo.SetPayment(ctx, b.ID, input.PaymentID, models.PaymentStatusSuccess); err != nil {
		s.l.Errorf(ctx, "bookingService.Confirm: set payment: %v", err)
	}

	monitoring.RecordBookingClosed(string(models.BookingStatusConfirmed))

	if err := s.prod.PublishBookingConfirmed(ctx, kafka.BookingConfirmedEvent{
		BookingID: b.ID,
		UserID:    b.UserID,
		EventID:   b.EventID,
		PaymentID: input.PaymentID,
		Quantity:  b.Quantity,
	}); err != nil {
		s.l.Errorf(ctx, "bookingService.Confirm: publish: %v", err)
	}

	s.l.Infof(ctx, "Booking confirmed",
		"booking_id", b.ID,
		"payment_id", input.PaymentID,
	)

	return s.Get(ctx, b.ID)
}

func (s *bookingService) Cancel(ctx context.Context, bookingID, userID string) (*models.Booking, error) {
	b, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrBookingNotFound
	}

	won, err := s.repo.CompareAndSetStatus(ctx, b.ID, models.BookingStatusPending, models.BookingStatusCancelled)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if !won {
		cur, err := s.Get(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		if cur.Status == models.BookingStatusCancelled {
			return cur, nil
		}
		return nil, ErrInvalidTransition
	}

	if err := s.invSvc.Release(ctx, b.HoldToken); err != nil {
		// Leave the booking on the pending index; the sweeper re-drives the
		// release on its next pass.
		s.l.Errorf(ctx, "bookingService.Cancel: release hold: %v", err)
	} else if err := s.repo.RemovePending(ctx, b.ID); err != nil {
		s.l.Errorf(ctx, "bookingService.Cancel: remove pending: %v", err)
	}

	monitoring.RecordBookingClosed(string(models.BookingStatusCancelled))

	if err := s.prod.PublishBookingCancelled(ctx, kafka.BookingClosedEvent{
		BookingID: b.ID,
		UserID:    b.UserID,
		EventID:   b.EventID,
		Quantity:  b.Quantity,
		Reason:    "user_cancelled",
	}); err != nil {
		s.l.Errorf(ctx, "bookingService.Cancel: publish: %v", err)
	}

	s.l.Infof(ctx, "Booking cancelled", "booking_id", b.ID)

	return s.Get(ctx, b.ID)
}

func (s *bookingService) Expire(ctx context.Context, bookingID string) error {
	b, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil
		}
		return err
	}

	won, err := s.repo.CompareAndSetStatus(ctx, bookingID, models.BookingStatusPending, models.BookingStatusExpired)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil
		}
		return err
	}

	if !won {
		// Another transition got there first. The booking may still be on the
		// pending index if that transition crashed between the status write
		// and its hold settlement; finish the settlement for it.
		return s.settleLeftover(ctx, bookingID)
	}

	if err := s.invSvc.Release(ctx, b.HoldToken); err != nil {
		// The booking is EXPIRED but the tickets are still held. It stays on
		// the pending index, so the next sweep retries the release.
		s.l.Errorf(ctx, "bookingService.Expire: release hold: %v", err)
		return err
	}

	if err := s.repo.RemovePending(ctx, b.ID); err != nil {
		s.l.Errorf(ctx, "bookingService.Expire: remove pending: %v", err)
	}

	monitoring.RecordBookingClosed(string(models.BookingStatusExpired))

	if err := s.prod.PublishBookingExpired(ctx, kafka.BookingClosedEvent{
		BookingID: b.ID,
		UserID:    b.UserID,
		EventID:   b.EventID,
		Quantity:  b.Quantity,
		Reason:    "hold_expired",
	}); err != nil {
		s.l.Errorf(ctx, "bookingService.Expire: publish: %v", err)
	}

	s.l.Infof(ctx, "Booking expired", "booking_id", b.ID)

	return nil
}

// settleLeftover finishes the hold settlement for a booking that already left
// PENDING but is still on the pending index. Commit and Release are idempotent,
// so re-driving a settlement that actually went through is harmless.
func (s *bookingService) settleLeftover(ctx context.Context, bookingID string) error {
	cur, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil
		}
		return err
	}

	switch cur.Status {
	case models.BookingStatusExpired, models.BookingStatusCancelled:
		if err := s.invSvc.Release(ctx, cur.HoldToken); err != nil {
			return err
		}
	case models.BookingStatusConfirmed:
		if err := s.invSvc.Commit(ctx, cur.HoldToken); err != nil {
			return err
		}
	default:
		return nil
	}

	return s.repo.RemovePending(ctx, cur.ID)
}
