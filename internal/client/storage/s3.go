package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/spacekeeper/internal/common"
)

// S3Config holds connection settings for an S3-compatible store
// (AWS S3, MinIO, and the like).
type S3Config struct {
	Endpoint  string // empty for AWS-default endpoint resolution
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// S3Store is a BlobStore backed by an S3-compatible object store.
type S3Store struct {
	client *s3.Client
	bucket string
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapS3Error(err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *S3Store) Put(ctx context.Context, key string, b []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(b),
	})
	if err != nil {
		return mapS3Error(err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	// S3 DeleteObject succeeds for missing keys, matching the contract.
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return mapS3Error(err)
	}
	return nil
}

// List pages through keys under the pattern's literal prefix and filters
// them against the full glob. Transient listing failures are retried with a
// short fibonacci backoff; this read-side retry does not apply to Put, whose
// retry policy belongs to the caller.
func (s *S3Store) List(ctx context.Context, pattern string) ([]string, error) {
	var keys []string

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		got, err := s.listOnce(ctx, pattern)
		if err != nil {
			if errors.Is(err, common.ErrorPermissionDenied) {
				return err
			}
			return retry.RetryableError(err)
		}
		keys = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *S3Store) listOnce(ctx context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(patternPrefix(pattern)),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapS3Error(err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if matchKey(pattern, key) {
				keys = append(keys, key)
			}
		}
	}
	return keys, nil
}

// mapS3Error translates backend errors into the store's sentinel errors so
// callers never match on transport types.
func mapS3Error(err error) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return common.ErrorNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return common.ErrorNotFound
		case "AccessDenied", "InsufficientPermissions":
			return common.ErrorPermissionDenied
		}
	}
	return err
}
