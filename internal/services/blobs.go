package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

var ErrBlobNotFound = errors.New("blob not found")

// BlobStore holds uploaded media bytes under opaque keys.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// Path is the storage location recorded on the media row.
	Path(key string) string
	// PublicURL is where clients can fetch the blob directly, or "" when
	// the API serves it.
	PublicURL(key string) string
}

// DiskStore writes blobs below Base on the local filesystem.
type DiskStore struct {
	Base      string
	CDNPrefix string
}

func EnsureStoragePath(base string, bucket string) (string, error) {
	path := filepath.Join(base, bucket)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", err
	}
	return path, nil
}

func (d DiskStore) Put(_ context.Context, key, _ string, data []byte) error {
	if _, err := EnsureStoragePath(d.Base, ""); err != nil {
		return err
	}
	return os.WriteFile(d.Path(key), data, 0o644)
}

func (d DiskStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	file, err := os.Open(d.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	return file, err
}

func (d DiskStore) Delete(_ context.Context, key string) error {
	err := os.Remove(d.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (d DiskStore) Path(key string) string {
	return filepath.Join(d.Base, filepath.Base(key))
}

func (d DiskStore) PublicURL(key string) string {
	if d.CDNPrefix == "" {
		return ""
	}
	return d.CDNPrefix + "/" + key
}

type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO or tests.
	Endpoint  string
	CDNPrefix string
}

// S3Store keeps blobs in a single bucket.
type S3Store struct {
	svc    *s3.S3
	bucket string
	region string
	cdn    string
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &S3Store{
		svc:    s3.New(sess),
		bucket: cfg.Bucket,
		region: cfg.Region,
		cdn:    strings.TrimRight(cfg.CDNPrefix, "/"),
	}, nil
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return out.Body, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *S3Store) Path(key string) string {
	return "s3://" + s.bucket + "/" + key
}

func (s *S3Store) PublicURL(key string) string {
	if s.cdn != "" {
		return s.cdn + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
