package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/internal/catalog"
	"github.com/vogiaan1904/ticketbottle-booking/internal/coupon"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/internal/monitoring"
	"github.com/vogiaan1904/ticketbottle-booking/internal/provider"
	repository "github.com/vogiaan1904/ticketbottle-booking/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type PaymentService interface {
	// Initiate prices the booking, applies any coupon and hands the charge
	// to the provider. A full coupon waiver settles immediately and confirms
	// the booking without a provider round trip.
	Initiate(ctx context.Context, input InitiatePaymentInput) (*InitiatePaymentOutput, error)
	// HandleProviderResult applies the provider's terminal verdict. Duplicate
	// and out-of-order results are no-ops.
	HandleProviderResult(ctx context.Context, input ProviderResultInput) error
	Get(ctx context.Context, paymentID string) (*models.Payment, error)
	GetByBooking(ctx context.Context, bookingID string) (*models.Payment, error)
}

type paymentService struct {
	repo    repository.PaymentRepository
	bkSvc   BookingService
	ctlg    catalog.Catalog
	prov    provider.Provider
	prod    producer.Producer
	coupons coupon.Table
	l       logger.Logger
	cfg     config.PaymentConfig
}

func NewPaymentService(
	repo repository.PaymentRepository,
	bkSvc BookingService,
	ctlg catalog.Catalog,
	prov provider.Provider,
	prod producer.Producer,
	coupons coupon.Table,
	l logger.Logger,
	cfg config.PaymentConfig,
) PaymentService {
	return &paymentService{
		repo:    repo,
		bkSvc:   bkSvc,
		ctlg:    ctlg,
		prov:    prov,
		prod:    prod,
		coupons: coupons,
		l:       l,
		cfg:     cfg,
	}
}

func (s *paymentService) Initiate(ctx context.Context, input InitiatePaymentInput) (*InitiatePaymentOutput, error) {
	b, err := s.bkSvc.Get(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != input.UserID {
		return nil, ErrBookingNotFound
	}

	if !b.Payable(time.Now()) {
		return nil, ErrBookingNotPayable
	}

	// One live attempt per booking; a FAILED attempt may be retried.
	prior, err := s.repo.GetByBooking(ctx, b.ID)
	if err != nil && !errors.Is(err, repository.ErrPaymentNotFound) {
		return nil, err
	}
	if prior != nil {
		switch prior.Status {
		case models.PaymentStatusPending:
			return nil, ErrPaymentInFlight
		case models.PaymentStatusSuccess:
			return nil, ErrBookingNotPayable
		}
	}

	amount, err := s.price(ctx, b, input.CouponCode)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	p := &models.Payment{
		ID:         uuid.NewString(),
		BookingID:  b.ID,
		UserID:     b.UserID,
		Amount:     amount,
		Currency:   s.cfg.Currency,
		Status:     models.PaymentStatusPending,
		UpiID:      input.UpiID,
		CouponCode: input.CouponCode,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrPaymentActive) {
			// Lost the claim to a concurrent initiate; the earlier read saw no
			// prior payment but the repository is the authority.
			return nil, ErrPaymentInFlight
		}
		return nil, err
	}

	if amount.IsZero() {
		// Coupon covered the full price; settle without the provider.
		return s.settleWaived(ctx, p, input.CouponCode)
	}

	provCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	resp, err := s.prov.Initiate(provCtx, provider.InitiateRequest{
		PaymentID: p.ID,
		BookingID: p.BookingID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		UpiID:     p.UpiID,
	})
	if err != nil || !resp.Accepted {
		if err != nil {
			s.l.Errorf(ctx, "paymentService.Initiate: provider: %v", err)
		}
		if _, casErr := s.repo.CompareAndSetStatus(ctx, p.ID, models.PaymentStatusPending, models.PaymentStatusFailed, ""); casErr != nil {
			s.l.Errorf(ctx, "paymentService.Initiate: mark failed: %v", casErr)
		}
		return nil, ErrProviderUnavailable
	}

	s.l.Infof(ctx, "Payment initiated",
		"payment_id", p.ID,
		"booking_id", p.BookingID,
		"amount", p.Amount.String(),
		"provider_id", resp.ProviderID,
	)

	return &InitiatePaymentOutput{Payment: p, ChargedAmount: amount}, nil
}

func (s *paymentService) HandleProviderResult(ctx context.Context, input ProviderResultInput) error {
	p, err := s.repo.Get(ctx, input.PaymentID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			s.l.Warn(ctx, "Provider result for unknown payment", "payment_id", input.PaymentID)
			return ErrPaymentNotFound
		}
		return err
	}

	to := models.PaymentStatus(input.Status)
	if !to.IsTerminal() {
		return fmt.Errorf("unexpected provider status: %s", input.Status)
	}

	won, err := s.repo.CompareAndSetStatus(ctx, p.ID, models.PaymentStatusPending, to, input.ProviderPaymentID)
	if err != nil {
		return err
	}
	if !won {
		// Duplicate delivery or a result that lost the race to an earlier
		// one. Both are expected with at-least-once transports.
		s.l.Info(ctx, "Ignoring stale provider result",
			"payment_id", p.ID,
			"status", input.Status,
		)
		return nil
	}

	monitoring.RecordPaymentSettled(string(to))

	if to == models.PaymentStatusFailed {
		s.l.Infof(ctx, "Payment failed", "payment_id", p.ID, "booking_id", p.BookingID)

		if err := s.prod.PublishPaymentFailed(ctx, s.settledEvent(p, to, input.ProviderPaymentID)); err != nil {
			s.l.Errorf(ctx, "paymentService.HandleProviderResult: publish: %v", err)
		}
		// The booking stays PENDING so the user can retry until the hold
		// expires.
		return nil
	}

	if _, err := s.bkSvc.Confirm(ctx, ConfirmBookingInput{BookingID: p.BookingID, PaymentID: p.ID}); err != nil {
		// Money moved but the hold is gone. Surface loudly; refunding is an
		// operator action.
		s.l.Errorf(ctx, "paymentService.HandleProviderResult: confirm booking %s: %v", p.BookingID, err)
	}

	if err := s.prod.PublishPaymentSucceeded(ctx, s.settledEvent(p, to, input.ProviderPaymentID)); err != nil {
		s.l.Errorf(ctx, "paymentService.HandleProviderResult: publish: %v", err)
	}

	s.l.Infof(ctx, "Payment succeeded", "payment_id", p.ID, "booking_id", p.BookingID)

	return nil
}

func (s *paymentService) Get(ctx context.Context, paymentID string) (*models.Payment, error) {
	p, err := s.repo.Get(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	return p, nil
}

func (s *paymentService) GetByBooking(ctx context.Context, bookingID string) (*models.Payment, error) {
	p, err := s.repo.GetByBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	return p, nil
}

func (s *paymentService) price(ctx context.Context, b *models.Booking, couponCode string) (decimal.Decimal, error) {
	ev, err := s.ctlg.GetEvent(ctx, b.EventID)
	if err != nil {
		if errors.Is(err, catalog.ErrEventNotFound) {
			return decimal.Zero, ErrEventNotFound
		}
		return decimal.Zero, err
	}

	base := ev.UnitPrice.Mul(decimal.NewFromInt(int64(b.Quantity)))
	return s.coupons.Evaluate(couponCode, base), nil
}

func (s *paymentService) settleWaived(ctx context.Context, p *models.Payment, couponCode string) (*InitiatePaymentOutput, error) {
	providerID := "COUPON-" + couponCode

	won, err := s.repo.CompareAndSetStatus(ctx, p.ID, models.PaymentStatusPending, models.PaymentStatusSuccess, providerID)
	if err != nil {
		return nil, err
	}
	if won {
		monitoring.RecordPaymentSettled(string(models.PaymentStatusSuccess))

		if _, err := s.bkSvc.Confirm(ctx, ConfirmBookingInput{BookingID: p.BookingID, PaymentID: p.ID}); err != nil {
			s.l.Errorf(ctx, "paymentService.settleWaived: confirm booking: %v", err)
		}

		if err := s.prod.PublishPaymentSucceeded(ctx, s.settledEvent(p, models.PaymentStatusSuccess, providerID)); err != nil {
			s.l.Errorf(ctx, "paymentService.settleWaived: publish: %v", err)
		}
	}

	s.l.Infof(ctx, "Payment waived by coupon",
		"payment_id", p.ID,
		"booking_id", p.BookingID,
		"coupon", couponCode,
	)

	settled, err := s.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	return &InitiatePaymentOutput{Payment: settled, ChargedAmount: decimal.Zero}, nil
}

func (s *paymentService) settledEvent(p *models.Payment, status models.PaymentStatus, providerID string) kafka.PaymentSettledEvent {
	return kafka.PaymentSettledEvent{
		PaymentID:         p.ID,
		BookingID:         p.BookingID,
		UserID:            p.UserID,
		Amount:            p.Amount.String(),
		Currency:          p.Currency,
		Status:            string(status),
		ProviderPaymentID: providerID,
	}
}
