package s3store

// Package s3store implements the drawing store against S3-compatible object
// storage (MinIO in development, any S3 endpoint in production).

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/partkeep/partkeep/internal/ports"
)

// Config holds connection settings for the object storage endpoint.
type Config struct {
	Endpoint  string // e.g. "http://localhost:9000" for MinIO
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

// Store implements ports.DrawingStore over an S3-compatible backend.
type Store struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
}

// New creates a Store configured with static credentials and path-style
// addressing, which MinIO and most S3-compatible endpoints require.
func New(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("s3 endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	client := s3.New(s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		),
		BaseEndpoint: aws.String(cfg.Endpoint),
		UsePathStyle: true,
	})

	return &Store{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
	}, nil
}

// Upload writes the drawing body to the bucket under in.Key and returns the key.
func (s *Store) Upload(ctx context.Context, in ports.UploadInput) (string, error) {
	if in.Key == "" {
		return "", errors.New("object key is required")
	}
	if in.Body == nil {
		return "", errors.New("body is required")
	}

	put := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(in.Key),
		Body:   in.Body,
	}
	if in.ContentType != "" {
		put.ContentType = aws.String(in.ContentType)
	}
	if in.CacheMaxAge > 0 {
		put.CacheControl = aws.String(fmt.Sprintf("max-age=%d", int(in.CacheMaxAge.Seconds())))
	}

	if _, err := s.client.PutObject(ctx, put); err != nil {
		return "", fmt.Errorf("put object %q: %w", in.Key, err)
	}
	return in.Key, nil
}

// PresignGet returns a time-limited download URL for the stored drawing.
func (s *Store) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("object key is required")
	}

	result, err := s.presignClient.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(expiry),
	)
	if err != nil {
		return "", fmt.Errorf("presign GetObject for %q: %w", key, err)
	}
	return result.URL, nil
}

// Delete removes the object. Deleting a missing object is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("object key is required")
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}
