package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the subset of *s3.Client used by S3Sink.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ PutObjectAPI = (*s3.Client)(nil)

// S3Config configures an S3 client for snapshots.
type S3Config struct {
	// Region is the bucket region. Default: "us-east-1".
	Region string

	// Endpoint overrides the service endpoint for S3-compatible storage.
	Endpoint string

	// AccessKeyID and SecretAccessKey are static credentials. When empty
	// requests are sent unsigned.
	AccessKeyID     string
	SecretAccessKey string

	// UsePathStyle addresses buckets by path instead of by host. Most
	// S3-compatible servers need it.
	UsePathStyle bool
}

// NewS3Client creates an S3 client from cfg.
func NewS3Client(cfg S3Config) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	var creds aws.CredentialsProvider = aws.AnonymousCredentials{}
	if cfg.AccessKeyID != "" {
		static := aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Source:          "live",
		}
		creds = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) {
				return static, nil
			}))
	}

	return s3.New(s3.Options{
		Region:       region,
		Credentials:  creds,
		UsePathStyle: cfg.UsePathStyle,
	}, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
}

// S3Sink uploads snapshots as S3 objects, retrying failed uploads.
type S3Sink struct {
	client      PutObjectAPI
	bucket      string
	key         string
	contentType string
	attempts    uint
	delay       time.Duration
}

// NewS3Sink creates an S3Sink writing to bucket/key.
func NewS3Sink(client PutObjectAPI, bucket, key string) *S3Sink {
	return &S3Sink{
		client:      client,
		bucket:      bucket,
		key:         key,
		contentType: "text/html; charset=utf-8",
		attempts:    3,
		delay:       500 * time.Millisecond,
	}
}

// WithRetry sets the number of attempts and the delay between them.
func (s *S3Sink) WithRetry(attempts uint, delay time.Duration) *S3Sink {
	s.attempts = attempts
	s.delay = delay
	return s
}

// WithContentType sets the object content type.
func (s *S3Sink) WithContentType(ct string) *S3Sink {
	s.contentType = ct
	return s
}

// Put uploads data. Every attempt sends the full body.
func (s *S3Sink) Put(ctx context.Context, data []byte) error {
	err := retry.New(
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	).Do(func() error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(s.key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(s.contentType),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("snapshot: put %s: %w", s, err)
	}
	return nil
}

func (s *S3Sink) String() string {
	return "s3://" + s.bucket + "/" + s.key
}
