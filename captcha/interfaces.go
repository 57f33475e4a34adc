package captcha

import (
	"context"
	"time"

	"golang.org/x/image/font"
)

// RandomSource 渲染时使用的随机源，*math/rand.Rand 即满足
type RandomSource interface {
	Intn(n int) int
}

// FaceSource 提供字体 face，调用方必须关闭每个返回的 face
type FaceSource interface {
	Families() []string
	Face(family string, size float64) (font.Face, error)
}

// Store 管理验证码答案的持久化
type Store interface {
	Save(ctx context.Context, id string, answer string, ttl time.Duration) error

	// Get 获取验证码答案
	// 不存在时返回 ErrCaptchaNotFound，过期时返回 ErrCaptchaExpired
	Get(ctx context.Context, id string) (answer string, err error)

	// Take 原子地获取并删除答案，并发调用只有一个能拿到
	// 错误语义与 Get 相同
	Take(ctx context.Context, id string) (answer string, err error)

	Delete(ctx context.Context, id string) error

	Exists(ctx context.Context, id string) (bool, error)
}

// RateLimiter 按标识符限制生成与验证频率
type RateLimiter interface {
	AllowGenerate(ctx context.Context, identifier string) error

	AllowVerify(ctx context.Context, identifier string) error

	// RecordFailure 记录验证失败，返回当前窗口剩余次数（负数表示不限）
	RecordFailure(ctx context.Context, identifier string) (int, error)

	// Reset 验证成功后清除失败计数
	Reset(ctx context.Context, identifier string) error
}
