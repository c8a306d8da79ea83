// Package storage archives raw invoice documents in object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/checkmaster/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultRegion  = "us-east-1"
	xmlContentType = "application/xml"
)

// s3API is the part of the S3 client the archive uses
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3InvoiceArchive stores the XML of staged invoices under <prefix><access key>.xml.
// It works with AWS S3 and S3-compatible services (MinIO, RustFS).
type S3InvoiceArchive struct {
	client s3API
	bucket string
	prefix string
	logger *zap.Logger
}

// Option configures an S3InvoiceArchive
type Option func(*S3InvoiceArchive)

// WithLogger sets the archive logger
func WithLogger(logger *zap.Logger) Option {
	return func(a *S3InvoiceArchive) {
		a.logger = logger
	}
}

// NewS3InvoiceArchive builds an archive from configuration. Static credentials are used when
// an access key is configured; otherwise the default AWS credential chain applies.
func NewS3InvoiceArchive(ctx context.Context, cfg *config.StorageConfig, opts ...Option) (*S3InvoiceArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, errors.New("storage access key id and secret access key must be set together")
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newS3InvoiceArchive(client, cfg.Bucket, cfg.Prefix, opts...), nil
}

func newS3InvoiceArchive(client s3API, bucket, prefix string, opts ...Option) *S3InvoiceArchive {
	a := &S3InvoiceArchive{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ObjectKey returns the storage key of an invoice's document
func (a *S3InvoiceArchive) ObjectKey(accessKey string) string {
	return a.prefix + path.Base(strings.TrimSpace(accessKey)) + ".xml"
}

// Store uploads the raw document of an invoice
func (a *S3InvoiceArchive) Store(ctx context.Context, accessKey string, document []byte) error {
	if strings.TrimSpace(accessKey) == "" {
		return errors.New("access key is required")
	}

	key := a.ObjectKey(accessKey)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(document),
		ContentLength: aws.Int64(int64(len(document))),
		ContentType:   aws.String(xmlContentType),
	})
	if err != nil {
		return fmt.Errorf("failed to archive invoice %s: %w", accessKey, err)
	}

	a.logger.Debug("Invoice archived", zap.String("bucket", a.bucket), zap.String("key", key))
	return nil
}

// EnsureBucket creates the bucket when it does not exist yet
func (a *S3InvoiceArchive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	a.logger.Info("Creating invoice archive bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Bucket returns the bucket name
func (a *S3InvoiceArchive) Bucket() string {
	return a.bucket
}

// NoopInvoiceArchive discards documents. It is used when storage is disabled.
type NoopInvoiceArchive struct{}

// Store does nothing
func (NoopInvoiceArchive) Store(context.Context, string, []byte) error {
	return nil
}
