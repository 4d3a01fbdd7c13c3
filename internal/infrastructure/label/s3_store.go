package label

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
)

// S3StoreConfig contains configuration for S3-compatible label storage.
// Works against AWS S3, MinIO and other S3-compatible backends.
type S3StoreConfig struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool
	// KeyPrefix is prepended to every object key.
	KeyPrefix string
	// PublicBaseURL, when set, is used to build label URLs instead of
	// presigned links.
	PublicBaseURL string
	// PresignExpiration bounds presigned URL validity.
	PresignExpiration time.Duration
}

// S3Store stores label files in an S3-compatible object store.
type S3Store struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	config        *S3StoreConfig
	logger        *zap.Logger
}

// S3StoreOption is a functional option for configuring S3Store.
type S3StoreOption func(*S3Store)

// WithS3Logger sets a custom logger for S3Store.
func WithS3Logger(logger *zap.Logger) S3StoreOption {
	return func(s *S3Store) {
		s.logger = logger
	}
}

// NewS3Store creates an S3-backed label store from configuration.
func NewS3Store(cfg *S3StoreConfig, opts ...S3StoreOption) (*S3Store, error) {
	if cfg == nil {
		return nil, errors.New("label store: storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("label store: bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("label store: access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("label store: secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("label store: invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("label store: failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	if cfg.PresignExpiration <= 0 {
		cfg.PresignExpiration = 15 * time.Minute
	}

	store := &S3Store{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		config:        cfg,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// EnsureBucket creates the bucket if it does not exist. Call during
// application startup.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.config.Bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("label store: failed to check bucket existence: %w", err)
	}

	s.logger.Info("creating label bucket", zap.String("bucket", s.config.Bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.config.Bucket),
	})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("label store: failed to create bucket: %w", err)
	}
	return nil
}

// Store uploads a label file under {prefix}/{year}/{month}/{uuid}.{ext}.
func (s *S3Store) Store(ctx context.Context, req *StoreRequest) (*StoreResult, error) {
	if req == nil {
		return nil, errors.New("label store: store request is nil")
	}
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("label store: %w: label data is empty", shipping.ErrLabelUnavailable)
	}
	ext := strings.TrimPrefix(req.Extension, ".")
	if ext == "" {
		ext = "bin"
	}

	now := time.Now()
	key := path.Join(
		s.config.KeyPrefix,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		uuid.NewString()+"."+ext,
	)

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(req.Data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("label store: failed to upload label: %w", err)
	}

	url := s.GetURL(key)
	s.logger.Info("label stored",
		zap.String("bucket", s.config.Bucket),
		zap.String("key", key),
		zap.Int("size", len(req.Data)))

	return &StoreResult{
		Path: key,
		URL:  url,
		Size: int64(len(req.Data)),
	}, nil
}

// Get retrieves a stored label by its object key.
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, shipping.ErrLabelUnavailable
		}
		return nil, fmt.Errorf("label store: failed to get label: %w", err)
	}
	return out.Body, nil
}

// Delete removes a stored label.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("label store: failed to delete label: %w", err)
	}
	return nil
}

// CleanupOlderThan removes labels whose objects are older than the given
// age.
func (s *S3Store) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)
	deleted := 0

	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.config.Bucket),
			Prefix:            aws.String(s.config.KeyPrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return deleted, fmt.Errorf("label store: failed to list labels: %w", err)
		}

		for _, obj := range out.Contents {
			if obj.LastModified == nil || !obj.LastModified.Before(cutoff) {
				continue
			}
			if err := s.Delete(ctx, aws.ToString(obj.Key)); err == nil {
				deleted++
			}
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}

	s.logger.Info("label cleanup completed",
		zap.Int("deleted", deleted),
		zap.Duration("age", age))
	return deleted, nil
}

// GetURL returns the accessible URL for a stored label. A configured
// public base URL wins; otherwise a presigned link is generated.
func (s *S3Store) GetURL(key string) string {
	if s.config.PublicBaseURL != "" {
		return strings.TrimSuffix(s.config.PublicBaseURL, "/") + "/" + key
	}

	presigned, err := s.presignClient.PresignGetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.config.PresignExpiration))
	if err != nil {
		s.logger.Warn("failed to presign label URL", zap.String("key", key), zap.Error(err))
		return ""
	}
	return presigned.URL
}

var _ Store = (*S3Store)(nil)
