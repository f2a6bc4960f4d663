package uploader

import (
	"bytes"
	"context"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

// S3Storage mirrors downloads into an S3 compatible bucket (AWS or MinIO).
type S3Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3Options describe the bucket to mirror into. An empty Endpoint uses AWS.
type S3Options struct {
	Bucket   string
	Prefix   string
	Endpoint string
	Region   string
	User     string
	Password string
}

func NewS3Storage(ctx context.Context, opts S3Options) (*S3Storage, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.User != "" {
		creds := credentials.NewStaticCredentialsProvider(opts.User, opts.Password, "")
		loadOpts = append(loadOpts, config.WithCredentialsProvider(creds))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading aws config")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true // Required for MinIO
		}
	})

	return &S3Storage{
		client: client,
		bucket: opts.Bucket,
		prefix: strings.Trim(opts.Prefix, "/"),
	}, nil
}

// Prepare is a no-op, buckets have no directories.
func (s *S3Storage) Prepare(ctx context.Context, dir string) error {
	return nil
}

func (s *S3Storage) Save(ctx context.Context, key string, data []byte) error {
	objectKey := s.objectKey(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return errors.Wrapf(err, "uploading s3://%s/%s", s.bucket, objectKey)
	}
	return nil
}

func (s *S3Storage) objectKey(key string) string {
	key = strings.TrimLeft(key, "/")
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}
