package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	apperrors "github.com/leeforge/mediakit/errors"
)

// OSSProvider stores objects in an Aliyun OSS bucket.
type OSSProvider struct {
	bucket *oss.Bucket
	domain string // custom or CDN domain
}

// NewOSSProvider connects to cfg.Bucket at cfg.Endpoint, for example
// oss-cn-hangzhou.aliyuncs.com.
func NewOSSProvider(cfg OSSConfig) (*OSSProvider, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, apperrors.InvalidArgument("storage.oss", cfg.Bucket, "endpoint and bucket are required")
	}
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, storageError(err, "create OSS client", cfg.Endpoint)
	}
	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, storageError(err, "open OSS bucket", cfg.Bucket)
	}

	domain := cfg.Domain
	switch {
	case domain == "":
		domain = fmt.Sprintf("https://%s.%s", cfg.Bucket, cfg.Endpoint)
	case !strings.HasPrefix(domain, "http"):
		domain = "https://" + domain
	}
	return &OSSProvider{bucket: bucket, domain: domain}, nil
}

func (p *OSSProvider) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	k, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	opts := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	if err := p.bucket.PutObject(k, r, opts...); err != nil {
		return "", storageError(err, "upload to OSS", k)
	}
	return joinURL(p.domain, k), nil
}

func (p *OSSProvider) Delete(ctx context.Context, key string) error {
	k, err := CleanKey(key)
	if err != nil {
		return err
	}
	if err := p.bucket.DeleteObject(k, oss.WithContext(ctx)); err != nil {
		return storageError(err, "delete from OSS", k)
	}
	return nil
}

func (p *OSSProvider) Exists(ctx context.Context, key string) (bool, error) {
	k, err := CleanKey(key)
	if err != nil {
		return false, err
	}
	ok, err := p.bucket.IsObjectExist(k, oss.WithContext(ctx))
	if err != nil {
		return false, storageError(err, "stat OSS object", k)
	}
	return ok, nil
}

func (p *OSSProvider) Name() string {
	return "oss"
}
