package otp

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Blocklist holds phones an operator refused to serve. Entries never expire on their own.
type Blocklist struct {
	redis  redis.UniversalClient
	prefix string
}

func NewBlocklist(redisClient redis.UniversalClient, prefix string) *Blocklist {
	if prefix == "" {
		prefix = "blocked"
	}
	return &Blocklist{redis: redisClient, prefix: prefix}
}

func (b *Blocklist) key(phoneKey string) string { return b.prefix + ":" + phoneKey }

func (b *Blocklist) Block(ctx context.Context, phoneKey, reason string) error {
	if reason == "" {
		reason = "blocked"
	}
	if err := b.redis.Set(ctx, b.key(phoneKey), reason, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (b *Blocklist) Unblock(ctx context.Context, phoneKey string) error {
	if err := b.redis.Del(ctx, b.key(phoneKey)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Reason returns the block reason and whether the phone is blocked.
func (b *Blocklist) Reason(ctx context.Context, phoneKey string) (string, bool, error) {
	reason, err := b.redis.Get(ctx, b.key(phoneKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return reason, true, nil
}

func (b *Blocklist) IsBlocked(ctx context.Context, phoneKey string) (bool, error) {
	_, blocked, err := b.Reason(ctx, phoneKey)
	return blocked, err
}
