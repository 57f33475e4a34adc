package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	apperrors "github.com/leeforge/mediakit/errors"
)

// S3API is the subset of *s3.Client the provider uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Provider stores objects in an S3 bucket.
type S3Provider struct {
	client  S3API
	bucket  string
	baseURL string
}

// NewS3Provider wraps an existing client. An empty baseURL selects the
// virtual-hosted bucket URL for region.
func NewS3Provider(client S3API, bucket, region, baseURL string) *S3Provider {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Provider{client: client, bucket: bucket, baseURL: baseURL}
}

// NewS3ProviderFromConfig loads AWS credentials from the default chain.
func NewS3ProviderFromConfig(ctx context.Context, cfg S3Config) (*S3Provider, error) {
	if cfg.Bucket == "" {
		return nil, apperrors.InvalidArgument("storage.s3.bucket", cfg.Bucket, "required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, storageError(err, "load AWS config", cfg.Bucket)
	}
	return NewS3Provider(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Region, cfg.BaseURL), nil
}

func (p *S3Provider) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	k, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	// Request signing needs a seekable body.
	body, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", storageError(err, "read upload", k)
		}
		body = bytes.NewReader(data)
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(k),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := p.client.PutObject(ctx, in); err != nil {
		return "", storageError(err, "upload to S3", k)
	}
	return joinURL(p.baseURL, k), nil
}

func (p *S3Provider) Delete(ctx context.Context, key string) error {
	k, err := CleanKey(key)
	if err != nil {
		return err
	}
	_, err = p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		return storageError(err, "delete from S3", k)
	}
	return nil
}

func (p *S3Provider) Exists(ctx context.Context, key string) (bool, error) {
	k, err := CleanKey(key)
	if err != nil {
		return false, err
	}
	_, err = p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(k),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, storageError(err, "stat S3 object", k)
}

func (p *S3Provider) Name() string {
	return "s3"
}
