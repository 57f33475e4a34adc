// Package storage uploads rendered media to a local directory, Aliyun OSS
// or Amazon S3 behind a single Provider interface.
package storage

import (
	"context"
	"io"
	"path"
	"strings"

	apperrors "github.com/leeforge/mediakit/errors"
)

// Provider 存储提供者接口，key 以斜杠分隔
type Provider interface {
	// Put 上传 r 到 key，返回公开 URL
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	// Delete 删除 key，key 不存在不视为错误
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Name() string
}

// Config 提供者配置
type Config struct {
	Provider string      `mapstructure:"provider" json:"provider" yaml:"provider" default:"local" validate:"oneof=local oss s3"`
	Local    LocalConfig `mapstructure:"local" json:"local" yaml:"local"`
	OSS      OSSConfig   `mapstructure:"oss" json:"oss" yaml:"oss"`
	S3       S3Config    `mapstructure:"s3" json:"s3" yaml:"s3"`
}

type LocalConfig struct {
	BasePath string `mapstructure:"base_path" json:"basePath" yaml:"base_path" default:"./data/media"`
	BaseURL  string `mapstructure:"base_url" json:"baseUrl" yaml:"base_url" default:"/media"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id" json:"-" yaml:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret" json:"-" yaml:"access_key_secret"`
	Bucket          string `mapstructure:"bucket" json:"bucket" yaml:"bucket"`
	Domain          string `mapstructure:"domain" json:"domain" yaml:"domain"`
}

type S3Config struct {
	Region  string `mapstructure:"region" json:"region" yaml:"region" default:"ap-northeast-1"`
	Bucket  string `mapstructure:"bucket" json:"bucket" yaml:"bucket"`
	BaseURL string `mapstructure:"base_url" json:"baseUrl" yaml:"base_url"`
}

// NewFromConfig 按 cfg.Provider 创建提供者
func NewFromConfig(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "", "local":
		return NewLocalProvider(cfg.Local.BasePath, cfg.Local.BaseURL)
	case "oss":
		return NewOSSProvider(cfg.OSS)
	case "s3":
		return NewS3ProviderFromConfig(ctx, cfg.S3)
	}
	return nil, apperrors.InvalidArgument("storage.provider", cfg.Provider, "expected local, oss or s3")
}

// CleanKey 规范化 key 为相对斜杠路径，拒绝越出根目录的 key
func CleanKey(key string) (string, error) {
	raw := strings.ReplaceAll(key, "\\", "/")
	for _, seg := range strings.Split(raw, "/") {
		if seg == ".." {
			return "", apperrors.InvalidArgument("key", key, "must not contain parent segments")
		}
	}
	k := strings.TrimPrefix(path.Clean("/"+raw), "/")
	if k == "" {
		return "", apperrors.InvalidArgument("key", key, "must name a file inside the store")
	}
	return k, nil
}

func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + key
}

func storageError(err error, op, key string) error {
	return apperrors.WrapWithType(err, apperrors.ErrorTypeStorage, op).WithDetail("key", key)
}
