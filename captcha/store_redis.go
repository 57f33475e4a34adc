package captcha

import (
	"context"
	"errors"
	"time"

	redis "github.com/go-redis/redis/v8"

	apperrors "github.com/leeforge/mediakit/errors"
)

// DefaultKeyPrefix namespaces captcha keys in Redis.
const DefaultKeyPrefix = "captcha:"

// RedisStore keeps answers in Redis with native key expiry. Expired and
// missing keys are indistinguishable and both report ErrCaptchaNotFound.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps client. An empty prefix selects DefaultKeyPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

func (s *RedisStore) Save(ctx context.Context, id string, answer string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(id), answer, ttl).Err(); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeStorage, "save captcha")
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (string, error) {
	answer, err := s.client.Get(ctx, s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCaptchaNotFound
	}
	if err != nil {
		return "", apperrors.WrapWithType(err, apperrors.ErrorTypeStorage, "load captcha")
	}
	return answer, nil
}

// Take uses GETDEL, which needs Redis 6.2 or later.
func (s *RedisStore) Take(ctx context.Context, id string) (string, error) {
	answer, err := s.client.GetDel(ctx, s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCaptchaNotFound
	}
	if err != nil {
		return "", apperrors.WrapWithType(err, apperrors.ErrorTypeStorage, "take captcha")
	}
	return answer, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeStorage, "delete captcha")
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return false, apperrors.WrapWithType(err, apperrors.ErrorTypeStorage, "check captcha")
	}
	return n > 0, nil
}
