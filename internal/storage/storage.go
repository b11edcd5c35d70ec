// Package storage keeps uploaded tour images for the sandbox server.
// Files live either on local disk or in an S3-compatible bucket (MinIO in
// development); both answer to the same "/uploads/<uuid>-name" keys.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrNotFound is returned for keys that were never stored
var ErrNotFound = errors.New("file not found")

// Service defines the interface for storage operations
type Service interface {
	// Put stores r under key
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error

	// Get opens a stored file. The caller closes Body.
	Get(ctx context.Context, key string) (*Object, error)

	// Delete removes a file from storage
	Delete(ctx context.Context, key string) error

	// Health checks if the storage backend is accessible
	Health(ctx context.Context) error
}

// Object is an opened stored file
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// S3Config holds the bucket connection settings
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// S3ConfigFromEnv reads S3_* variables. ok is false when S3_ENDPOINT is unset.
func S3ConfigFromEnv() (cfg S3Config, ok bool) {
	cfg = S3Config{
		Endpoint:  os.Getenv("S3_ENDPOINT"),
		AccessKey: os.Getenv("S3_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_SECRET_KEY"),
		Bucket:    os.Getenv("S3_BUCKET_NAME"),
		Region:    os.Getenv("S3_REGION"),
		UseSSL:    os.Getenv("S3_USE_SSL") == "true",
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	return cfg, cfg.Endpoint != ""
}

// Validate reports missing settings
func (c S3Config) Validate() error {
	var errs []error
	if c.Endpoint == "" {
		errs = append(errs, errors.New("S3_ENDPOINT is required"))
	}
	if c.AccessKey == "" {
		errs = append(errs, errors.New("S3_ACCESS_KEY is required"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("S3_SECRET_KEY is required"))
	}
	if c.Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET_NAME is required"))
	}
	return errors.Join(errs...)
}

type s3Service struct {
	client *s3.Client
	bucket string
	logger *slog.Logger
}

// NewS3 creates a bucket-backed service and makes sure the bucket exists
func NewS3(ctx context.Context, cfg S3Config, logger *slog.Logger) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	protocol := "http"
	if cfg.UseSSL {
		protocol = "https"
	}
	endpointURL := fmt.Sprintf("%s://%s", protocol, cfg.Endpoint)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Path-style addressing is required for MinIO
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpointURL)
		o.UsePathStyle = true
	})

	s := &s3Service{client: client, bucket: cfg.Bucket, logger: logger}
	if err := s.ensureBucket(ctx); err != nil {
		logger.Warn("failed to ensure bucket exists", slog.String("bucket", cfg.Bucket), slog.Any("error", err))
	}
	return s, nil
}

func (s *s3Service) ensureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	s.logger.Info("created S3 bucket", slog.String("bucket", s.bucket))
	return nil
}

// objectKey drops the leading slash so "/uploads/x" becomes "uploads/x"
func objectKey(key string) string {
	return strings.TrimPrefix(key, "/")
}

func (s *s3Service) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	if key == "" {
		return fmt.Errorf("file key cannot be empty")
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey(key)),
		Body:          r,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("failed to store file %s: %w", key, err)
	}
	return nil
}

func (s *s3Service) Get(ctx context.Context, key string) (*Object, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(key)),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get file %s: %w", key, err)
	}

	return &Object{
		Body:        out.Body,
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
	}, nil
}

func (s *s3Service) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("file key cannot be empty")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", key, err)
	}
	return nil
}

func (s *s3Service) Health(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	return nil
}
