package otp

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/restaurant-service/internal/domain"
)

// ErrNoRecord is returned by stores when no record exists for a phone.
var ErrNoRecord = errors.New("no otp record")

// Store persists one-time code records, per-phone issuance counters and
// cool-down locks. At most one record exists per phone; Save replaces any
// prior one. NextCounter is a read-then-increment that must be atomic with
// respect to concurrent issuances for the same phone.
type Store interface {
	Save(ctx context.Context, record *domain.OtpRecord, retention time.Duration) error
	Get(ctx context.Context, phone string) (*domain.OtpRecord, error)
	IncrementAttempts(ctx context.Context, phone string) (int, error)
	Delete(ctx context.Context, phone string) error
	NextCounter(ctx context.Context, phone string) (int64, error)
	AcquireCooldown(ctx context.Context, phone string, window time.Duration) (bool, error)
}

const (
	recordPrefix   = "otp:"
	counterPrefix  = "otp_counter:"
	cooldownPrefix = "otp_lock:"
)

// redisStore keeps records as hashes so attempts can be bumped atomically
// with HINCRBY. Counters are plain INCR keys and never expire.
type redisStore struct {
	client *redis.Client
}

// NewRedisStore returns a Redis-backed store.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Save(ctx context.Context, record *domain.OtpRecord, retention time.Duration) error {
	key := recordPrefix + record.Phone
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]interface{}{
		"code":       record.Code,
		"counter":    record.Counter,
		"attempts":   record.Attempts,
		"expires_at": record.ExpiresAt.UnixNano(),
		"created_at": record.CreatedAt.UnixNano(),
	})
	pipe.Expire(ctx, key, retention)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisStore) Get(ctx context.Context, phone string) (*domain.OtpRecord, error) {
	fields, err := s.client.HGetAll(ctx, recordPrefix+phone).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNoRecord
	}

	record := &domain.OtpRecord{Phone: phone, Code: fields["code"]}
	if record.Counter, err = strconv.ParseInt(fields["counter"], 10, 64); err != nil {
		return nil, err
	}
	if record.Attempts, err = strconv.Atoi(fields["attempts"]); err != nil {
		return nil, err
	}
	expires, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, err
	}
	created, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, err
	}
	record.ExpiresAt = time.Unix(0, expires)
	record.CreatedAt = time.Unix(0, created)
	return record, nil
}

func (s *redisStore) IncrementAttempts(ctx context.Context, phone string) (int, error) {
	count, err := s.client.HIncrBy(ctx, recordPrefix+phone, "attempts", 1).Result()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *redisStore) Delete(ctx context.Context, phone string) error {
	return s.client.Del(ctx, recordPrefix+phone).Err()
}

func (s *redisStore) NextCounter(ctx context.Context, phone string) (int64, error) {
	return s.client.Incr(ctx, counterPrefix+phone).Result()
}

func (s *redisStore) AcquireCooldown(ctx context.Context, phone string, window time.Duration) (bool, error) {
	return s.client.SetNX(ctx, cooldownPrefix+phone, "1", window).Result()
}
