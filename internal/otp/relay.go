package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RelayRequest is what an operator needs to forward a code by hand.
type RelayRequest struct {
	ID       string
	PhoneKey string
	Code     string
}

// RelayStore parks codes sent to the operator chat so button callbacks can resend them.
// Callback payloads carry only the request id.
type RelayStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRelayStore(redisClient redis.UniversalClient, prefix string) *RelayStore {
	if prefix == "" {
		prefix = "otp:relay"
	}
	return &RelayStore{redis: redisClient, prefix: prefix}
}

func (r *RelayStore) key(id string) string { return r.prefix + ":" + id }

func (r *RelayStore) Put(ctx context.Context, phoneKey, code string, ttl time.Duration) (*RelayRequest, error) {
	req := &RelayRequest{ID: uuid.NewString(), PhoneKey: phoneKey, Code: code}
	_, err := r.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, r.key(req.ID), "phone", phoneKey, "code", code)
		p.Expire(ctx, r.key(req.ID), ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return req, nil
}

func (r *RelayStore) Get(ctx context.Context, id string) (*RelayRequest, error) {
	vals, err := r.redis.HMGet(ctx, r.key(id), "phone", "code").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRelayNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	phoneKey, _ := vals[0].(string)
	code, _ := vals[1].(string)
	if phoneKey == "" || code == "" {
		return nil, ErrRelayNotFound
	}
	return &RelayRequest{ID: id, PhoneKey: phoneKey, Code: code}, nil
}

func (r *RelayStore) Delete(ctx context.Context, id string) error {
	if err := r.redis.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
