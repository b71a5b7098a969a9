package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"niplan/internal/models"
)

// consumeChallengeLua validates and consumes the live challenge in one step.
// KEYS[1] = challenge hash key
// ARGV[1] = submitted code hash
// ARGV[2] = now, unix millis
// ARGV[3] = max failed attempts before the challenge is burned (0 = unlimited)
var consumeChallengeLua = redis.NewScript(`
local rec = redis.call('HMGET', KEYS[1], 'code_hash', 'expires_at', 'consumed')
if not rec[1] then
  return {err='not_found'}
end
if rec[3] == '1' then
  return {err='consumed'}
end
local now = tonumber(ARGV[2])
if now > tonumber(rec[2]) then
  return {err='expired'}
end
if rec[1] ~= ARGV[1] then
  local attempts = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
  local maxAttempts = tonumber(ARGV[3])
  if maxAttempts > 0 and attempts >= maxAttempts then
    redis.call('HSET', KEYS[1], 'consumed', '1')
    return {err='attempts_exceeded'}
  end
  return {err='mismatch'}
end
redis.call('HSET', KEYS[1], 'consumed', '1', 'consumed_at', ARGV[2])
return rec[1]
`)

// Ledger is the durable record of issued codes. Store treats it as best effort.
type Ledger interface {
	RecordIssued(ctx context.Context, ch *models.OTPChallenge) error
	MarkConsumed(ctx context.Context, phoneKey, codeHash string, at time.Time) error
}

type StoreConfig struct {
	CodeLength int
	// MaxVerifyAttempts burns a challenge after this many wrong codes. Zero disables it.
	MaxVerifyAttempts int
	// Retention keeps an expired challenge readable so Verify can answer ErrExpired.
	Retention time.Duration
	// FixedCode replaces random codes. Test deployments only.
	FixedCode string
	// ExposeDebug keeps a plain copy of the code for PeekDebug.
	ExposeDebug bool
}

// Challenge is a freshly issued code ready for delivery.
type Challenge struct {
	PhoneKey  string
	Code      string
	CodeHash  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store keeps at most one live challenge per phone in a Redis hash.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	config StoreConfig
	ledger Ledger
	onErr  func(op string, err error)
	now    func() time.Time
}

func NewStore(redisClient redis.UniversalClient, prefix string, cfg StoreConfig) *Store {
	if prefix == "" {
		prefix = "otp"
	}
	if cfg.CodeLength == 0 {
		cfg.CodeLength = DefaultCodeLength
	}
	if cfg.Retention <= 0 {
		cfg.Retention = time.Hour
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
		config: cfg,
		onErr:  func(string, error) {},
		now:    time.Now,
	}
}

// WithLedger attaches the durable ledger; onErr receives ledger failures for logging.
func (s *Store) WithLedger(l Ledger, onErr func(op string, err error)) *Store {
	s.ledger = l
	if onErr != nil {
		s.onErr = onErr
	}
	return s
}

func (s *Store) challengeKey(phoneKey string) string { return s.prefix + ":ch:" + phoneKey }
func (s *Store) debugKey(phoneKey string) string     { return s.prefix + ":dbg:" + phoneKey }

// Issue creates a code for phoneKey and supersedes any previous one.
func (s *Store) Issue(ctx context.Context, phoneKey string, ttl time.Duration) (*Challenge, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("otp: ttl must be positive, got %s", ttl)
	}

	code := s.config.FixedCode
	if code == "" {
		var err error
		if code, err = NewCode(s.config.CodeLength); err != nil {
			return nil, err
		}
	}

	now := s.now()
	ch := &Challenge{
		PhoneKey:  phoneKey,
		Code:      code,
		CodeHash:  HashCode(phoneKey, code),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	key := s.challengeKey(phoneKey)
	_, err := s.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key,
			"code_hash", ch.CodeHash,
			"created_at", strconv.FormatInt(now.UnixMilli(), 10),
			"expires_at", strconv.FormatInt(ch.ExpiresAt.UnixMilli(), 10),
			"consumed", "0",
			"attempts", "0",
		)
		p.PExpire(ctx, key, ttl+s.config.Retention)
		if s.config.ExposeDebug {
			p.Set(ctx, s.debugKey(phoneKey), code, ttl)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if s.ledger != nil {
		rec := &models.OTPChallenge{
			PhoneKey:  phoneKey,
			CodeHash:  ch.CodeHash,
			CreatedAt: ch.CreatedAt,
			ExpiresAt: ch.ExpiresAt,
		}
		if err := s.ledger.RecordIssued(ctx, rec); err != nil {
			s.onErr("record_issued", err)
		}
	}
	return ch, nil
}

// Verify consumes the live challenge when code matches. Returns ErrInvalidCode when no live
// challenge exists, it was already consumed or the code differs; ErrExpired past expires_at;
// ErrTooManyAttempts when this failure burned the challenge.
func (s *Store) Verify(ctx context.Context, phoneKey, code string) error {
	if !IsNumeric(code) {
		return ErrInvalidCode
	}
	submitted := HashCode(phoneKey, code)
	now := s.now()

	res, err := consumeChallengeLua.Run(ctx, s.redis,
		[]string{s.challengeKey(phoneKey)},
		submitted,
		now.UnixMilli(),
		s.config.MaxVerifyAttempts,
	).Text()
	if err != nil {
		switch strings.TrimPrefix(err.Error(), "ERR ") {
		case "not_found", "consumed", "mismatch":
			return ErrInvalidCode
		case "expired":
			return ErrExpired
		case "attempts_exceeded":
			return ErrTooManyAttempts
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Lua string equality is not constant-time; re-check here.
	if subtle.ConstantTimeCompare([]byte(res), []byte(submitted)) != 1 {
		return ErrInvalidCode
	}

	if s.config.ExposeDebug {
		_ = s.redis.Del(ctx, s.debugKey(phoneKey)).Err()
	}
	if s.ledger != nil {
		if err := s.ledger.MarkConsumed(ctx, phoneKey, submitted, now); err != nil {
			s.onErr("mark_consumed", err)
		}
	}
	return nil
}

// PeekDebug returns the live plain code. Available only with ExposeDebug.
func (s *Store) PeekDebug(ctx context.Context, phoneKey string) (string, error) {
	if !s.config.ExposeDebug {
		return "", ErrDebugDisabled
	}
	code, err := s.redis.Get(ctx, s.debugKey(phoneKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoChallenge
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return code, nil
}
