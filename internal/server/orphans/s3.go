package orphans

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/mentorship/internal/logging"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) putObjectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config locates the bucket holding the ledger. Endpoint is optional and
// allows S3-compatible stores such as MinIO.
type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// S3Recorder stores one JSON object per orphan.
type S3Recorder struct {
	client putObjectAPI
	bucket string
	logger logging.Logger
}

func NewS3Recorder(ctx context.Context, cfg S3Config, logger logging.Logger) (*S3Recorder, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Recorder{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With("module", "orphans"),
	}, nil
}

// ObjectKey returns the ledger key for o, partitioned by day.
func ObjectKey(o Orphan) string {
	d := o.OccurredAt.UTC()
	return fmt.Sprintf("orphaned-accounts/%04d/%02d/%02d/%s.json", d.Year(), d.Month(), d.Day(), o.AccountID)
}

func (r *S3Recorder) Record(ctx context.Context, o Orphan) error {
	body, err := json.Marshal(o)
	if err != nil {
		return err
	}

	key := ObjectKey(o)
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		r.logger.Error(ctx, "orphan ledger write failed", "account_id", o.AccountID, "key", key, "error", err)
		return fmt.Errorf("put orphan %s: %w", o.AccountID, err)
	}

	r.logger.Warn(ctx, "orphaned account recorded", "account_id", o.AccountID, "key", key)
	return nil
}
