package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/util"
)

var (
	ErrBookingNotFound      = errors.New("booking not found")
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
)

type BookingRepository interface {
	Create(ctx context.Context, b *models.Booking) error
	Get(ctx context.Context, bookingID string) (*models.Booking, error)
	// CompareAndSetStatus atomically moves the booking from `from` to `to`.
	// Returns false when the booking is no longer in `from` (the caller lost
	// the race) and ErrTransitionNotAllowed when the pair is outside the
	// transition table. The pending index is left alone: callers drop the
	// entry with RemovePending once the hold settlement went through.
	CompareAndSetStatus(ctx context.Context, bookingID string, from, to models.BookingStatus) (bool, error)
	// RemovePending takes the booking off the expiry index. Until then the
	// sweeper keeps revisiting it and re-drives the hold settlement.
	RemovePending(ctx context.Context, bookingID string) error
	SetPayment(ctx context.Context, bookingID, paymentID string, status models.PaymentStatus) error
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)
	// DuePending returns ids of PENDING bookings whose hold expired at or
	// before now, oldest first, capped at limit.
	DuePending(ctx context.Context, now time.Time, limit int) ([]string, error)
}

type redisBookingRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisBookingRepository(cli *redis.Client, l logger.Logger) BookingRepository {
	return &redisBookingRepository{
		cli: cli,
		l:   l,
	}
}

// casStatusScript is the serialization point for confirm/cancel/expire races
// on one booking: exactly one caller observes the PENDING state and wins.
var casStatusScript = redis.NewScript(`
	local bk = KEYS[1]
	local from = ARGV[1]
	local to = ARGV[2]
	local now = ARGV[3]

	local cur = redis.call('HGET', bk, 'status')
	if not cur then
		return -2
	end
	if cur ~= from then
		return 0
	end

	redis.call('HSET', bk, 'status', to, 'updated_at', now)

	return 1
`)

func (r *redisBookingRepository) Create(ctx context.Context, b *models.Booking) error {
	pipe := r.cli.Pipeline()
	pipe.HSet(ctx, r.bookingKey(b.ID), bookingToHash(b))
	pipe.ZAdd(ctx, r.pendingKey(), redis.Z{
		Score:  float64(b.HoldExpiry.Unix()),
		Member: b.ID,
	})
	pipe.SAdd(ctx, r.userKey(b.UserID), b.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "redisBookingRepository.Create: %v", err)
		return err
	}

	r.l.Debugf(ctx, "Booking created",
		"booking_id", b.ID,
		"event_id", b.EventID,
		"quantity", b.Quantity,
	)

	return nil
}

func (r *redisBookingRepository) Get(ctx context.Context, bookingID string) (*models.Booking, error) {
	vals, err := r.cli.HGetAll(ctx, r.bookingKey(bookingID)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisBookingRepository.Get: %v", err)
		return nil, err
	}

	if len(vals) == 0 {
		return nil, ErrBookingNotFound
	}

	return bookingFromHash(vals)
}

func (r *redisBookingRepository) CompareAndSetStatus(ctx context.Context, bookingID string, from, to models.BookingStatus) (bool, error) {
	if !models.CanTransition(from, to) {
		return false, ErrTransitionNotAllowed
	}

	res, err := casStatusScript.Run(ctx, r.cli,
		[]string{r.bookingKey(bookingID)},
		string(from), string(to), util.TimeToISO8601Str(time.Now()),
	).Int64()
	if err != nil {
		r.l.Errorf(ctx, "redisBookingRepository.CompareAndSetStatus: %v", err)
		return false, err
	}

	switch res {
	case 1:
		r.l.Debugf(ctx, "Booking status transitioned",
			"booking_id", bookingID,
			"from", from,
			"to", to,
		)
		return true, nil
	case 0:
		return false, nil
	case -2:
		return false, ErrBookingNotFound
	default:
		return false, fmt.Errorf("unexpected CAS result: %d", res)
	}
}

func (r *redisBookingRepository) RemovePending(ctx context.Context, bookingID string) error {
	if err := r.cli.ZRem(ctx, r.pendingKey(), bookingID).Err(); err != nil {
		r.l.Errorf(ctx, "redisBookingRepository.RemovePending: %v", err)
		return err
	}

	return nil
}

func (r *redisBookingRepository) SetPayment(ctx context.Context, bookingID, paymentID string, status models.PaymentStatus) error {
	err := r.cli.HSet(ctx, r.bookingKey(bookingID),
		"payment_id", paymentID,
		"payment_status", string(status),
		"updated_at", util.TimeToISO8601Str(time.Now()),
	).Err()
	if err != nil {
		r.l.Errorf(ctx, "redisBookingRepository.SetPayment: %v", err)
		return err
	}

	return nil
}

func (r *redisBookingRepository) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	ids, err := r.cli.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisBookingRepository.ListByUser: %v", err)
		return nil, err
	}

	bookings := make([]models.Booking, 0, len(ids))
	for _, id := range ids {
		b, err := r.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrBookingNotFound) {
				continue
			}
			return nil, err
		}
		bookings = append(bookings, *b)
	}

	return bookings, nil
}

func (r *redisBookingRepository) DuePending(ctx context.Context, now time.Time, limit int) ([]string, error) {
	ids, err := r.cli.ZRangeByScore(ctx, r.pendingKey(), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisBookingRepository.DuePending: %v", err)
		return nil, err
	}

	return ids, nil
}

func bookingToHash(b *models.Booking) map[string]any {
	return map[string]any{
		"id":             b.ID,
		"user_id":        b.UserID,
		"event_id":       b.EventID,
		"ticket_type":    b.TicketType,
		"quantity":       b.Quantity,
		"status":         string(b.Status),
		"hold_token":     b.HoldToken,
		"hold_expiry":    util.TimeToISO8601Str(b.HoldExpiry),
		"payment_id":     b.PaymentID,
		"payment_status": string(b.PaymentStatus),
		"created_at":     util.TimeToISO8601Str(b.CreatedAt),
		"updated_at":     util.TimeToISO8601Str(b.UpdatedAt),
	}
}

func bookingFromHash(vals map[string]string) (*models.Booking, error) {
	holdExpiry, err := util.ParseISO8601(vals["hold_expiry"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse hold_expiry: %w", err)
	}

	createdAt, _ := util.ParseISO8601(vals["created_at"])
	updatedAt, _ := util.ParseISO8601(vals["updated_at"])

	return &models.Booking{
		ID:            vals["id"],
		UserID:        vals["user_id"],
		EventID:       vals["event_id"],
		TicketType:    vals["ticket_type"],
		Quantity:      int(parseInt64(vals["quantity"])),
		Status:        models.BookingStatus(vals["status"]),
		HoldToken:     vals["hold_token"],
		HoldExpiry:    holdExpiry,
		PaymentID:     vals["payment_id"],
		PaymentStatus: models.PaymentStatus(vals["payment_status"]),
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func (r *redisBookingRepository) bookingKey(bookingID string) string {
	return fmt.Sprintf("booking:record:%s", bookingID)
}

func (r *redisBookingRepository) pendingKey() string {
	return "booking:pending"
}

func (r *redisBookingRepository) userKey(userID string) string {
	return fmt.Sprintf("booking:user:%s", userID)
}
