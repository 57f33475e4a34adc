package captcha

import (
	"context"
	"errors"
	"sync"
	"time"

	redis "github.com/go-redis/redis/v8"

	apperrors "github.com/leeforge/mediakit/errors"
)

// LimitConfig holds fixed-window limits. Zero limits disable the check.
type LimitConfig struct {
	GenerateLimit  int
	GenerateWindow time.Duration
	MaxAttempts    int
	AttemptWindow  time.Duration
}

// Limits extracts the rate limit settings.
func (c Config) Limits() LimitConfig {
	return LimitConfig{
		GenerateLimit:  c.GenerateLimit,
		GenerateWindow: c.GenerateWindow,
		MaxAttempts:    c.MaxAttempts,
		AttemptWindow:  c.AttemptWindow,
	}
}

func rateLimited(retryAt time.Time) error {
	return apperrors.New(apperrors.ErrorTypeRateLimit, "rate limit exceeded").
		WithDetail("retry_at", retryAt)
}

type window struct {
	count   int
	resetAt time.Time
}

// sweepInterval bounds how often MemoryLimiter drops elapsed windows.
const sweepInterval = time.Minute

// MemoryLimiter counts requests in fixed windows per identifier. Elapsed
// windows are swept at most once per sweepInterval.
type MemoryLimiter struct {
	cfg LimitConfig
	now func() time.Time

	mu        sync.Mutex
	generate  map[string]*window
	failures  map[string]*window
	nextSweep time.Time
}

// NewMemoryLimiter creates a MemoryLimiter.
func NewMemoryLimiter(cfg LimitConfig) *MemoryLimiter {
	return &MemoryLimiter{
		cfg:      cfg,
		now:      time.Now,
		generate: make(map[string]*window),
		failures: make(map[string]*window),
	}
}

// current returns the live window for id, starting a fresh one when the
// previous has elapsed.
func (l *MemoryLimiter) current(m map[string]*window, id string, span time.Duration) *window {
	now := l.now()
	l.sweep(now)
	w, ok := m[id]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(span)}
		m[id] = w
	}
	return w
}

func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	l.nextSweep = now.Add(sweepInterval)
	for _, m := range []map[string]*window{l.generate, l.failures} {
		for id, w := range m {
			if !now.Before(w.resetAt) {
				delete(m, id)
			}
		}
	}
}

func (l *MemoryLimiter) AllowGenerate(_ context.Context, identifier string) error {
	if l.cfg.GenerateLimit <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.current(l.generate, identifier, l.cfg.GenerateWindow)
	if w.count >= l.cfg.GenerateLimit {
		return rateLimited(w.resetAt)
	}
	w.count++
	return nil
}

func (l *MemoryLimiter) AllowVerify(_ context.Context, identifier string) error {
	if l.cfg.MaxAttempts <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	w, ok := l.failures[identifier]
	if ok && now.Before(w.resetAt) && w.count >= l.cfg.MaxAttempts {
		return rateLimited(w.resetAt)
	}
	return nil
}

func (l *MemoryLimiter) RecordFailure(_ context.Context, identifier string) (int, error) {
	if l.cfg.MaxAttempts <= 0 {
		return -1, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.current(l.failures, identifier, l.cfg.AttemptWindow)
	w.count++
	return max(l.cfg.MaxAttempts-w.count, 0), nil
}

func (l *MemoryLimiter) Reset(_ context.Context, identifier string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, identifier)
	return nil
}

// RedisLimiter shares fixed-window counters across instances using INCR
// with a window-long expiry. A counter found without a TTL gets one on the
// next increment, so a failed EXPIRE cannot lock an identifier out.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	cfg    LimitConfig
}

// NewRedisLimiter creates a RedisLimiter. Keys live under prefix + "limit:".
func NewRedisLimiter(client redis.UniversalClient, prefix string, cfg LimitConfig) *RedisLimiter {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisLimiter{client: client, prefix: prefix + "limit:", cfg: cfg}
}

func (l *RedisLimiter) incr(ctx context.Context, key string, span time.Duration) (int64, error) {
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, apperrors.WrapWithType(err, apperrors.ErrorTypeStorage, "increment rate counter")
	}
	// PTTL reports -1 for a key without expiry.
	if ttl.Val() < 0 {
		if err := l.client.PExpire(ctx, key, span).Err(); err != nil {
			return 0, apperrors.WrapWithType(err, apperrors.ErrorTypeStorage, "expire rate counter")
		}
	}
	return incr.Val(), nil
}

func (l *RedisLimiter) AllowGenerate(ctx context.Context, identifier string) error {
	if l.cfg.GenerateLimit <= 0 {
		return nil
	}
	n, err := l.incr(ctx, l.prefix+"gen:"+identifier, l.cfg.GenerateWindow)
	if err != nil {
		return err
	}
	if n > int64(l.cfg.GenerateLimit) {
		return ErrRateLimitExceeded
	}
	return nil
}

func (l *RedisLimiter) AllowVerify(ctx context.Context, identifier string) error {
	if l.cfg.MaxAttempts <= 0 {
		return nil
	}
	n, err := l.client.Get(ctx, l.prefix+"fail:"+identifier).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeStorage, "read rate counter")
	}
	if n >= l.cfg.MaxAttempts {
		return ErrRateLimitExceeded
	}
	return nil
}

func (l *RedisLimiter) RecordFailure(ctx context.Context, identifier string) (int, error) {
	if l.cfg.MaxAttempts <= 0 {
		return -1, nil
	}
	n, err := l.incr(ctx, l.prefix+"fail:"+identifier, l.cfg.AttemptWindow)
	if err != nil {
		return 0, err
	}
	return max(l.cfg.MaxAttempts-int(n), 0), nil
}

func (l *RedisLimiter) Reset(ctx context.Context, identifier string) error {
	if err := l.client.Del(ctx, l.prefix+"fail:"+identifier).Err(); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeStorage, "reset rate counter")
	}
	return nil
}
