package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Options configures NewS3.
type S3Options struct {
	Bucket string
	Region string
	// Endpoint points at an S3-compatible server (MinIO, LocalStack).
	// Path-style addressing is used when it is set.
	Endpoint string
	// PublicBaseURL, when set, makes URL return PublicBaseURL + "/" + key
	// (bucket behind a CDN or a public-read policy) instead of presigning.
	PublicBaseURL string
	// URLExpiry bounds presigned URLs. SigV4 caps it at 7 days.
	URLExpiry time.Duration
}

type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	opts      S3Options
	logger    *zap.Logger
}

// NewS3 loads AWS credentials the standard way (env, shared config,
// instance role) and returns a store bound to opts.Bucket.
func NewS3(ctx context.Context, opts S3Options, logger *zap.Logger) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	if opts.URLExpiry <= 0 || opts.URLExpiry > 7*24*time.Hour {
		opts.URLExpiry = 7 * 24 * time.Hour
	}

	logger.Info("object storage configured",
		zap.String("bucket", opts.Bucket),
		zap.String("region", opts.Region),
		zap.Bool("custom_endpoint", opts.Endpoint != ""),
	)
	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		opts:      opts,
		logger:    logger,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) URL(ctx context.Context, key string) (string, error) {
	if s.opts.PublicBaseURL != "" {
		return s.opts.PublicBaseURL + "/" + key, nil
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.opts.URLExpiry))
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", key, err)
	}
	return req.URL, nil
}
