// Package photos keeps profile photos in S3-compatible object storage.
package photos

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Options configures the S3 backend (MinIO in development).
type Options struct {
	Region      string
	User        string
	Password    string
	Bucket      string
	Endpoint    string
	URLValidity time.Duration
}

// S3Store uploads photos and hands out time-limited GET URLs.
type S3Store struct {
	opts Options
}

func NewS3Store(opts Options) *S3Store {
	if opts.URLValidity <= 0 {
		opts.URLValidity = 15 * time.Minute
	}
	return &S3Store{opts: opts}
}

// Key returns a fresh object key under the account's prefix.
func Key(accountID string) string {
	return fmt.Sprintf("profiles/%s/%s", accountID, uuid.New())
}

func (s *S3Store) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.opts.User,
			s.opts.Password,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.opts.Endpoint)
		o.UsePathStyle = true
	}), nil
}

// Put stores data under key.
func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) error {
	c, err := s.client(ctx)
	if err != nil {
		return err
	}

	return putObject(c, ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.opts.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
}

// PresignGet returns a GET URL for key valid for Options.URLValidity.
func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	c, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	req, err := presignGetObject(newS3PresignClient(c), ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.opts.URLValidity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
