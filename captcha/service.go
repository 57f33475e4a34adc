// Package captcha renders text challenges over noise and manages their
// lifecycle: generation, storage and single-use verification.
package captcha

import (
	"context"
	"encoding/base64"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/leeforge/mediakit/errors"
	"github.com/leeforge/mediakit/logging"
)

// codeAlphabet omits look-alikes 0, O, 1, I and L.
const codeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// Service generates and verifies image captchas.
type Service struct {
	cfg      Config
	renderer *Renderer
	store    Store
	limiter  RateLimiter
	rng      RandomSource
	newID    func() string
	now      func() time.Time
	logger   logging.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithStore replaces the default MemoryStore.
func WithStore(s Store) ServiceOption { return func(svc *Service) { svc.store = s } }

// WithLimiter replaces the default MemoryLimiter.
func WithLimiter(l RateLimiter) ServiceOption { return func(svc *Service) { svc.limiter = l } }

// WithRenderer replaces the default GoFonts renderer.
func WithRenderer(r *Renderer) ServiceOption { return func(svc *Service) { svc.renderer = r } }

// WithRandom replaces the time-seeded random source. It must be safe for
// concurrent use if the Service is.
func WithRandom(rng RandomSource) ServiceOption { return func(svc *Service) { svc.rng = rng } }

// WithServiceLogger sets the logger.
func WithServiceLogger(l logging.Logger) ServiceOption {
	return func(svc *Service) { svc.logger = l }
}

// NewService builds a Service from cfg.
func NewService(cfg Config, opts ...ServiceOption) *Service {
	svc := &Service{
		cfg:   cfg,
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.renderer == nil {
		svc.renderer = NewRenderer(nil)
	}
	if svc.store == nil {
		svc.store = NewMemoryStore()
	}
	if svc.limiter == nil {
		svc.limiter = NewMemoryLimiter(cfg.Limits())
	}
	if svc.rng == nil {
		svc.rng = NewLockedRand(time.Now().UnixNano())
	}
	if svc.logger == nil {
		svc.logger = logging.Named("captcha")
	}
	return svc
}

// Generate renders a fresh challenge and stores its answer.
func (s *Service) Generate(ctx context.Context, identifier string) (*CaptchaData, error) {
	if err := s.limiter.AllowGenerate(ctx, identifier); err != nil {
		return nil, err
	}

	code := s.code()
	img, err := s.renderer.Render(code, s.cfg.Image.Width, s.cfg.Image.Height, s.rng)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	if err := s.store.Save(ctx, id, code, s.cfg.TTL); err != nil {
		return nil, err
	}

	s.logger.Debug("captcha generated", zap.String("id", id), zap.String("identifier", identifier))
	return &CaptchaData{
		ID:        id,
		Type:      TypeImage,
		Content:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
		ExpiresAt: s.now().Add(s.cfg.TTL),
	}, nil
}

// Verify checks answer against the stored code, case-insensitively. The
// challenge is consumed by any verification attempt.
func (s *Service) Verify(ctx context.Context, id string, answer string, identifier string) (*VerifyResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.InvalidArgument("id", id, "must not be blank")
	}
	if err := s.limiter.AllowVerify(ctx, identifier); err != nil {
		return nil, err
	}

	expected, err := s.store.Take(ctx, id)
	switch {
	case apperrors.Is(err, ErrCaptchaNotFound):
		return s.fail(ctx, identifier, ReasonNotFound)
	case apperrors.Is(err, ErrCaptchaExpired):
		return s.fail(ctx, identifier, ReasonExpired)
	case err != nil:
		return nil, err
	}

	if !strings.EqualFold(strings.TrimSpace(answer), expected) {
		return s.fail(ctx, identifier, ReasonMismatch)
	}
	if err := s.limiter.Reset(ctx, identifier); err != nil {
		s.logger.Warn("reset rate limit failed", zap.Error(err))
	}
	return &VerifyResult{Valid: true}, nil
}

func (s *Service) fail(ctx context.Context, identifier, reason string) (*VerifyResult, error) {
	left, err := s.limiter.RecordFailure(ctx, identifier)
	if err != nil {
		return nil, err
	}
	res := &VerifyResult{FailureReason: reason}
	if left >= 0 {
		res.AttemptsLeft = left
	}
	return res, nil
}

func (s *Service) code() string {
	n := s.cfg.Image.Length
	if n < 1 {
		n = 4
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[s.rng.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// LockedRand is a math/rand source safe for concurrent use.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewLockedRand seeds a LockedRand.
func NewLockedRand(seed int64) *LockedRand {
	return &LockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *LockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
