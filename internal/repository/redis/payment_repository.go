package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/util"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPaymentActive   = errors.New("an active payment already exists for the booking")
)

type PaymentRepository interface {
	// Create claims the booking's active-payment slot and writes the payment.
	// Fails with ErrPaymentActive when a PENDING or SUCCESS payment already
	// exists for the booking, so concurrent initiations cannot both dispatch.
	Create(ctx context.Context, p *models.Payment) error
	Get(ctx context.Context, paymentID string) (*models.Payment, error)
	// GetByBooking returns the most recent payment attempt for the booking.
	GetByBooking(ctx context.Context, bookingID string) (*models.Payment, error)
	// CompareAndSetStatus atomically moves a PENDING payment to a terminal
	// status, recording the provider's reference. Returns false when the
	// payment is already terminal.
	CompareAndSetStatus(ctx context.Context, paymentID string, from, to models.PaymentStatus, providerPaymentID string) (bool, error)
}

type redisPaymentRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisPaymentRepository(cli *redis.Client, l logger.Logger) PaymentRepository {
	return &redisPaymentRepository{
		cli: cli,
		l:   l,
	}
}

// claimBookingScript is the storage-level guard for "one active payment per
// booking": it inspects the payment the index currently points at and only
// moves the index when that payment is FAILED or absent. Two racing creators
// cannot both pass the status check.
var claimBookingScript = redis.NewScript(`
	local idx = KEYS[1]
	local new_id = ARGV[1]
	local key_prefix = ARGV[2]

	local cur = redis.call('GET', idx)
	if cur then
		local status = redis.call('HGET', key_prefix .. cur, 'status')
		if status == 'PENDING' or status == 'SUCCESS' then
			return -1
		end
	end

	redis.call('SET', idx, new_id)

	return 1
`)

// casPaymentScript guards against duplicate and out-of-order provider
// callbacks: only the first terminal result for a payment is applied.
var casPaymentScript = redis.NewScript(`
	local pm = KEYS[1]
	local from = ARGV[1]
	local to = ARGV[2]
	local provider_id = ARGV[3]
	local now = ARGV[4]

	local cur = redis.call('HGET', pm, 'status')
	if not cur then
		return -2
	end
	if cur ~= from then
		return 0
	end

	redis.call('HSET', pm, 'status', to, 'updated_at', now)
	if provider_id ~= '' then
		redis.call('HSET', pm, 'provider_payment_id', provider_id)
	end

	return 1
`)

func (r *redisPaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	res, err := claimBookingScript.Run(ctx, r.cli,
		[]string{r.bookingIndexKey(p.BookingID)},
		p.ID, paymentKeyPrefix,
	).Int64()
	if err != nil {
		r.l.Errorf(ctx, "redisPaymentRepository.Create: %v", err)
		return err
	}
	if res == -1 {
		return ErrPaymentActive
	}

	if err := r.cli.HSet(ctx, r.paymentKey(p.ID), paymentToHash(p)).Err(); err != nil {
		r.l.Errorf(ctx, "redisPaymentRepository.Create: %v", err)
		return err
	}

	r.l.Debugf(ctx, "Payment created",
		"payment_id", p.ID,
		"booking_id", p.BookingID,
		"amount", p.Amount.String(),
	)

	return nil
}

func (r *redisPaymentRepository) Get(ctx context.Context, paymentID string) (*models.Payment, error) {
	vals, err := r.cli.HGetAll(ctx, r.paymentKey(paymentID)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisPaymentRepository.Get: %v", err)
		return nil, err
	}

	if len(vals) == 0 {
		return nil, ErrPaymentNotFound
	}

	return paymentFromHash(vals)
}

func (r *redisPaymentRepository) GetByBooking(ctx context.Context, bookingID string) (*models.Payment, error) {
	paymentID, err := r.cli.Get(ctx, r.bookingIndexKey(bookingID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrPaymentNotFound
		}
		r.l.Errorf(ctx, "redisPaymentRepository.GetByBooking: %v", err)
		return nil, err
	}

	return r.Get(ctx, paymentID)
}

func (r *redisPaymentRepository) CompareAndSetStatus(ctx context.Context, paymentID string, from, to models.PaymentStatus, providerPaymentID string) (bool, error) {
	res, err := casPaymentScript.Run(ctx, r.cli,
		[]string{r.paymentKey(paymentID)},
		string(from), string(to), providerPaymentID, util.TimeToISO8601Str(time.Now()),
	).Int64()
	if err != nil {
		r.l.Errorf(ctx, "redisPaymentRepository.CompareAndSetStatus: %v", err)
		return false, err
	}

	switch res {
	case 1:
		r.l.Debugf(ctx, "Payment status transitioned",
			"payment_id", paymentID,
			"from", from,
			"to", to,
		)
		return true, nil
	case 0:
		return false, nil
	case -2:
		return false, ErrPaymentNotFound
	default:
		return false, fmt.Errorf("unexpected CAS result: %d", res)
	}
}

func paymentToHash(p *models.Payment) map[string]any {
	return map[string]any{
		"id":                  p.ID,
		"booking_id":          p.BookingID,
		"user_id":             p.UserID,
		"amount":              p.Amount.String(),
		"currency":            p.Currency,
		"status":              string(p.Status),
		"upi_id":              p.UpiID,
		"coupon_code":         p.CouponCode,
		"provider_payment_id": p.ProviderPaymentID,
		"created_at":          util.TimeToISO8601Str(p.CreatedAt),
		"updated_at":          util.TimeToISO8601Str(p.UpdatedAt),
	}
}

func paymentFromHash(vals map[string]string) (*models.Payment, error) {
	amount, err := decimal.NewFromString(vals["amount"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}

	createdAt, _ := util.ParseISO8601(vals["created_at"])
	updatedAt, _ := util.ParseISO8601(vals["updated_at"])

	return &models.Payment{
		ID:                vals["id"],
		BookingID:         vals["booking_id"],
		UserID:            vals["user_id"],
		Amount:            amount,
		Currency:          vals["currency"],
		Status:            models.PaymentStatus(vals["status"]),
		UpiID:             vals["upi_id"],
		CouponCode:        vals["coupon_code"],
		ProviderPaymentID: vals["provider_payment_id"],
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}, nil
}

const paymentKeyPrefix = "booking:payment:"

func (r *redisPaymentRepository) paymentKey(paymentID string) string {
	return paymentKeyPrefix + paymentID
}

func (r *redisPaymentRepository) bookingIndexKey(bookingID string) string {
	return fmt.Sprintf("booking:payment_by_booking:%s", bookingID)
}
