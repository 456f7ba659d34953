// Package publish uploads compiled workflows to an S3-compatible bucket.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"ml-pipelines/internal/metrics"
)

// ErrDisabled is returned when no storage endpoint is configured.
var ErrDisabled = errors.New("publishing not configured")

// ContentType is the media type of uploaded workflows.
const ContentType = "application/yaml"

// Config holds the MinIO/S3 connection settings.
type Config struct {
	Endpoint        string // e.g. "minio:9000"
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Bucket          string
}

// objectStore is the part of *minio.Client the publisher uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Publisher writes workflow documents under a single bucket.
type Publisher struct {
	store  objectStore
	bucket string
}

// New creates a publisher. An empty endpoint yields a disabled publisher
// whose Publish returns ErrDisabled.
func New(cfg Config) (*Publisher, error) {
	if cfg.Endpoint == "" {
		return &Publisher{}, nil
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("publish: bucket is required")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Publisher{store: mc, bucket: cfg.Bucket}, nil
}

// Enabled reports whether uploads go anywhere.
func (p *Publisher) Enabled() bool { return p != nil && p.store != nil }

// Bucket returns the target bucket.
func (p *Publisher) Bucket() string { return p.bucket }

// Key is the object key for a compilation.
func Key(pipeline, id string) string {
	return strings.Trim(pipeline, "/") + "/" + id + ".yaml"
}

// Publish ensures the bucket exists and uploads data under key. It returns
// the s3:// URI of the object.
func (p *Publisher) Publish(ctx context.Context, key string, data []byte) (uri string, err error) {
	if !p.Enabled() {
		return "", ErrDisabled
	}
	defer func() { metrics.PublishTotal.WithLabelValues(metrics.Status(err)).Inc() }()

	if err := p.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket %s: %w", p.bucket, err)
	}
	_, err = p.store.PutObject(ctx, p.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: ContentType})
	if err != nil {
		return "", fmt.Errorf("put %s/%s: %w", p.bucket, key, err)
	}
	return "s3://" + p.bucket + "/" + key, nil
}

func (p *Publisher) ensureBucket(ctx context.Context) error {
	exists, err := p.store.BucketExists(ctx, p.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return p.store.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{})
}
