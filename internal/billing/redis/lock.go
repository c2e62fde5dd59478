package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultLockTTL bounds lock leakage if a holder dies mid-settlement.
const DefaultLockTTL = 30 * time.Second

// Redis serializes bill settlements: all mutations to one bill happen
// under a SetNX lock keyed by bill ID, held by an owner token so only the
// acquiring request can release it.
type Redis struct {
	Client  *redis.Client
	Logger  *log.Logger
	LockTTL time.Duration
}

// NewRedis wraps a client with the settlement-lock operations. A
// non-positive ttl falls back to DefaultLockTTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &Redis{
		Client:  client,
		Logger:  log.Default(),
		LockTTL: ttl,
	}
}

func billLockKey(billID string) string {
	return "bill_lock:" + billID
}

// LockBill acquires the settlement lock for a bill. The token identifies
// the owner; pass the same token to UnlockBill.
func (r *Redis) LockBill(ctx context.Context, billID, token string) (bool, error) {
	key := billLockKey(billID)
	ok, err := r.Client.SetNX(ctx, key, token, r.LockTTL).Result()
	return ok, err
}

// UnlockBill releases the lock if and only if token still owns it.
func (r *Redis) UnlockBill(ctx context.Context, billID, token string) error {
	key := billLockKey(billID)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already released or expired
	}
	if err != nil {
		return err
	}
	if val == token {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// IsBillLocked reports whether a settlement is in flight for the bill.
func (r *Redis) IsBillLocked(ctx context.Context, billID string) (bool, error) {
	_, err := r.Client.Get(ctx, billLockKey(billID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check bill lock: %w", err)
	}
	return true, nil
}
