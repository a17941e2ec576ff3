package fulfillment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	infraconfig "github.com/dropflow/backend/internal/infrastructure/config"
)

// S3EvidenceStore keeps purchase evidence in an S3-compatible bucket so it
// survives host restarts and is reachable from the back office.
type S3EvidenceStore struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// NewS3EvidenceStore creates a store against any S3-compatible backend
func NewS3EvidenceStore(cfg *infraconfig.StorageConfig, logger *zap.Logger) (*S3EvidenceStore, error) {
	if cfg == nil {
		return nil, errors.New("evidence: storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("evidence: storage bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("evidence: storage credentials are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
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
		return nil, fmt.Errorf("evidence: failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3EvidenceStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logger,
	}, nil
}

// Save implements EvidenceStore
func (s *S3EvidenceStore) Save(ctx context.Context, orderID, label string, data []byte) (string, error) {
	key := evidenceKey(orderID, label, time.Now())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("evidence: failed to upload %s: %w", key, err)
	}

	s.logger.Debug("Evidence uploaded",
		zap.String("order_id", orderID),
		zap.String("key", key))
	return "s3://" + s.bucket + "/" + key, nil
}

var _ EvidenceStore = (*S3EvidenceStore)(nil)
