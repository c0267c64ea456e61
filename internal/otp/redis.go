package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "otp:"

// DefaultRetention is how long a key outlives its entry. Verify must still
// see a lapsed entry to report it as expired before purging it.
const DefaultRetention = time.Hour

// Each entry is a hash with the bare code in "code" (for compare-and-delete)
// and the full JSON entry in "data".
var deleteIfCodeScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], "code") == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps entries in Redis so pending verifications survive
// restarts. Keys expire a retention period after their entry does, which
// cleans up codes nobody tried to use.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, retention: DefaultRetention}
}

// WithRetention overrides how long keys outlive their entries.
func (s *RedisStore) WithRetention(d time.Duration) *RedisStore {
	if d >= 0 {
		s.retention = d
	}
	return s
}

func entryKey(accountID uuid.UUID) string {
	return keyPrefix + accountID.String()
}

func (s *RedisStore) Put(ctx context.Context, accountID uuid.UUID, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal otp entry: %w", err)
	}
	ttl := e.TTL()
	if ttl <= 0 {
		return fmt.Errorf("otp entry ttl must be positive, got %s", ttl)
	}

	key := entryKey(accountID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "code", e.Code, "data", data)
		pipe.PExpire(ctx, key, ttl+s.retention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store otp entry: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, accountID uuid.UUID) (*Entry, error) {
	data, err := s.client.HGet(ctx, entryKey(accountID), "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load otp entry: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal otp entry: %w", err)
	}
	return &e, nil
}

func (s *RedisStore) Delete(ctx context.Context, accountID uuid.UUID) error {
	if err := s.client.Del(ctx, entryKey(accountID)).Err(); err != nil {
		return fmt.Errorf("delete otp entry: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteIfCode(ctx context.Context, accountID uuid.UUID, code string) (bool, error) {
	n, err := deleteIfCodeScript.Run(ctx, s.client, []string{entryKey(accountID)}, code).Int()
	if err != nil {
		return false, fmt.Errorf("delete otp entry: %w", err)
	}
	return n > 0, nil
}

// TTL returns the remaining key lifetime, for diagnostics.
func (s *RedisStore) TTL(ctx context.Context, accountID uuid.UUID) (time.Duration, error) {
	return s.client.PTTL(ctx, entryKey(accountID)).Result()
}
