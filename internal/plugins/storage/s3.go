package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/jscorp/hostpanel/internal/plugins"
)

// S3API is the subset of the S3 client used by S3Storage.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Storage stores each slot as one object named prefix+key.
type S3Storage struct {
	client S3API
	bucket string
	prefix string
}

func init() {
	plugins.RegisterGlobal(plugins.PluginTypeStorage, "s3", func() plugins.Plugin {
		return NewS3Storage()
	})
}

// NewS3Storage creates an uninitialized S3 provider.
func NewS3Storage() *S3Storage {
	return &S3Storage{}
}

// NewS3StorageWithClient creates a ready S3 provider around an injected
// client.
func NewS3StorageWithClient(client S3API, bucket, prefix string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket, prefix: prefix}
}

// Name returns the plugin name.
func (s *S3Storage) Name() string {
	return "s3"
}

// Type returns the plugin type.
func (s *S3Storage) Type() plugins.PluginType {
	return plugins.PluginTypeStorage
}

// Version returns the plugin version.
func (s *S3Storage) Version() string {
	return "1.0.0"
}

// Description returns a human-readable description.
func (s *S3Storage) Description() string {
	return "S3-compatible object storage provider"
}

// Initialize builds an S3 client from the bucket, region, endpoint, prefix,
// access_key_id and secret_access_key config keys. An empty endpoint uses
// AWS; a non-empty one targets MinIO or another compatible service with
// path-style addressing. Without static keys the default credential chain
// applies.
func (s *S3Storage) Initialize(ctx context.Context, config map[string]string) error {
	if s.client != nil {
		return nil
	}
	bucket, err := requireConfig(config, "bucket")
	if err != nil {
		return err
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if region := config["region"]; region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if id, secret := config["access_key_id"], config["secret_access_key"]; id != "" && secret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(id, secret, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if endpoint := config["endpoint"]; endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	s.client = s3.NewFromConfig(cfg, s3Opts...)
	s.bucket = bucket
	s.prefix = config["prefix"]
	log.Printf("S3 storage initialized (bucket=%s, prefix=%q)", s.bucket, s.prefix)
	return nil
}

// Healthy returns true if the bucket is reachable.
func (s *S3Storage) Healthy(ctx context.Context) bool {
	if s.client == nil {
		return false
	}
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err == nil
}

// Close releases nothing; the S3 client holds no open resources.
func (s *S3Storage) Close() error {
	return nil
}

func (s *S3Storage) objectKey(key string) string {
	return s.prefix + key
}

// Get implements kv.Store.
func (s *S3Storage) Get(ctx context.Context, key string) (string, bool, error) {
	if s.client == nil {
		return "", false, plugins.ErrPluginNotReady
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if isNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s from S3: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s from S3: %w", key, err)
	}
	return string(data), true, nil
}

// Set implements kv.Store.
func (s *S3Storage) Set(ctx context.Context, key, value string) error {
	if s.client == nil {
		return plugins.ErrPluginNotReady
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        strings.NewReader(value),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put %s to S3: %w", key, err)
	}
	return nil
}

// Remove implements kv.Store. S3 deletes of missing objects succeed.
func (s *S3Storage) Remove(ctx context.Context, key string) error {
	if s.client == nil {
		return plugins.ErrPluginNotReady
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete %s from S3: %w", key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
