package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

var (
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrInventoryNotFound     = errors.New("inventory not found")
	ErrHoldNotFound          = errors.New("hold not found")
	ErrHoldConflict          = errors.New("hold already settled the other way")
)

type InventoryRepository interface {
	Seed(ctx context.Context, eventID string, total int64) error
	Reserve(ctx context.Context, eventID, token string, quantity int64) error
	Commit(ctx context.Context, token string) error
	Release(ctx context.Context, token string) error
	Snapshot(ctx context.Context, eventID string) (*models.Inventory, error)
}

type redisInventoryRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisInventoryRepository(cli *redis.Client, l logger.Logger) InventoryRepository {
	return &redisInventoryRepository{
		cli: cli,
		l:   l,
	}
}

// reserveScript checks sold+held+quantity <= total and creates the hold in
// one atomic step, so concurrent reservations for the same event can never
// overcommit capacity.
var reserveScript = redis.NewScript(`
	local inv = KEYS[1]
	local hold = KEYS[2]
	local qty = tonumber(ARGV[1])
	local event_id = ARGV[2]

	if redis.call('EXISTS', inv) == 0 then
		return -2
	end

	local total = tonumber(redis.call('HGET', inv, 'total') or '0')
	local sold = tonumber(redis.call('HGET', inv, 'sold') or '0')
	local held = tonumber(redis.call('HGET', inv, 'held') or '0')

	if sold + held + qty > total then
		return -1
	end

	redis.call('HINCRBY', inv, 'held', qty)
	redis.call('HSET', hold, 'event_id', event_id, 'quantity', qty, 'state', 'held')

	return 1
`)

// commitScript moves the hold's quantity from held to sold. Committing an
// already-committed hold is a no-op; committing a released hold is a
// conflict, never a silent correction.
var commitScript = redis.NewScript(`
	local inv = KEYS[1]
	local hold = KEYS[2]

	local state = redis.call('HGET', hold, 'state')
	if not state then
		return -2
	end
	if state == 'committed' then
		return 0
	end
	if state == 'released' then
		return -1
	end

	local qty = tonumber(redis.call('HGET', hold, 'quantity'))
	redis.call('HINCRBY', inv, 'held', -qty)
	redis.call('HINCRBY', inv, 'sold', qty)
	redis.call('HSET', hold, 'state', 'committed')

	return 1
`)

var releaseScript = redis.NewScript(`
	local inv = KEYS[1]
	local hold = KEYS[2]

	local state = redis.call('HGET', hold, 'state')
	if not state then
		return -2
	end
	if state == 'released' then
		return 0
	end
	if state == 'committed' then
		return -1
	end

	local qty = tonumber(redis.call('HGET', hold, 'quantity'))
	redis.call('HINCRBY', inv, 'held', -qty)
	redis.call('HSET', hold, 'state', 'released')

	return 1
`)

// Seed initializes the per-event counters from the catalog's capacity. HSETNX
// keeps the first writer's total; sold/held start at zero and only move
// through Reserve/Commit/Release afterwards.
func (r *redisInventoryRepository) Seed(ctx context.Context, eventID string, total int64) error {
	invKey := r.inventoryKey(eventID)

	pipe := r.cli.Pipeline()
	pipe.HSetNX(ctx, invKey, "total", total)
	pipe.HSetNX(ctx, invKey, "sold", 0)
	pipe.HSetNX(ctx, invKey, "held", 0)

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "redisInventoryRepository.Seed: %v", err)
		return err
	}

	r.l.Debugf(ctx, "Inventory seeded",
		"event_id", eventID,
		"total", total,
	)

	return nil
}

func (r *redisInventoryRepository) Reserve(ctx context.Context, eventID, token string, quantity int64) error {
	res, err := reserveScript.Run(ctx, r.cli,
		[]string{r.inventoryKey(eventID), r.holdKey(token)},
		quantity, eventID,
	).Int64()
	if err != nil {
		r.l.Errorf(ctx, "redisInventoryRepository.Reserve: %v", err)
		return err
	}

	switch res {
	case 1:
		r.l.Debugf(ctx, "Inventory reserved",
			"event_id", eventID,
			"token", token,
			"quantity", quantity,
		)
		return nil
	case -1:
		return ErrInsufficientInventory
	case -2:
		return ErrInventoryNotFound
	default:
		return fmt.Errorf("unexpected reserve result: %d", res)
	}
}

func (r *redisInventoryRepository) Commit(ctx context.Context, token string) error {
	return r.settle(ctx, token, commitScript, "commit")
}

func (r *redisInventoryRepository) Release(ctx context.Context, token string) error {
	return r.settle(ctx, token, releaseScript, "release")
}

func (r *redisInventoryRepository) settle(ctx context.Context, token string, script *redis.Script, op string) error {
	// event_id is immutable once the hold exists, so reading it outside the
	// script is safe; the script re-checks state atomically.
	eventID, err := r.cli.HGet(ctx, r.holdKey(token), "event_id").Result()
	if err != nil {
		if err == redis.Nil {
			return ErrHoldNotFound
		}
		r.l.Errorf(ctx, "redisInventoryRepository.settle: %v", err)
		return err
	}

	res, err := script.Run(ctx, r.cli,
		[]string{r.inventoryKey(eventID), r.holdKey(token)},
	).Int64()
	if err != nil {
		r.l.Errorf(ctx, "redisInventoryRepository.settle: %v", err)
		return err
	}

	switch res {
	case 1:
		r.l.Debugf(ctx, "Hold settled",
			"token", token,
			"op", op,
		)
		return nil
	case 0:
		// Idempotent repeat of the same settlement.
		return nil
	case -1:
		return ErrHoldConflict
	case -2:
		return ErrHoldNotFound
	default:
		return fmt.Errorf("unexpected %s result: %d", op, res)
	}
}

func (r *redisInventoryRepository) Snapshot(ctx context.Context, eventID string) (*models.Inventory, error) {
	vals, err := r.cli.HGetAll(ctx, r.inventoryKey(eventID)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisInventoryRepository.Snapshot: %v", err)
		return nil, err
	}

	if len(vals) == 0 {
		return nil, ErrInventoryNotFound
	}

	inv := &models.Inventory{EventID: eventID}
	inv.Total = parseInt64(vals["total"])
	inv.Sold = parseInt64(vals["sold"])
	inv.Held = parseInt64(vals["held"])

	return inv, nil
}

func (r *redisInventoryRepository) inventoryKey(eventID string) string {
	return fmt.Sprintf("booking:inventory:%s", eventID)
}

func (r *redisInventoryRepository) holdKey(token string) string {
	return fmt.Sprintf("booking:hold:%s", token)
}
