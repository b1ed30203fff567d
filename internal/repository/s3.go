package repository

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
)

// s3API is the part of *s3.Client the image store uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Options struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool

	// PublicBaseURL is prepended to object names to build public links.
	// When empty the URL is derived from the endpoint and bucket.
	PublicBaseURL string
}

type S3ImageStore struct { // implements ImageStore
	client s3API
	opts   S3Options
}

var _ ImageStore = (*S3ImageStore)(nil)

func NewS3ImageStore(ctx context.Context, opts S3Options) (*S3ImageStore, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing S3 client: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	repoLogger.Info().
		Str("bucket", opts.Bucket).
		Str("endpoint", opts.Endpoint).
		Msg("S3 image store initialized")

	return newS3ImageStoreWithClient(client, opts), nil
}

func newS3ImageStoreWithClient(client s3API, opts S3Options) *S3ImageStore {
	return &S3ImageStore{client: client, opts: opts}
}

func (s *S3ImageStore) UploadImage(ctx context.Context, objectName string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.opts.Bucket),
		Key:          aws.String(objectName),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(mimetype.Detect(data).String()),
		CacheControl: aws.String("public, max-age=3600"),
	})
	if err != nil {
		return fmt.Errorf("error uploading %s: %w", objectName, err)
	}

	repoLogger.Debug().Str("object", objectName).Int("bytes", len(data)).Msg("Image uploaded")
	return nil
}

func (s *S3ImageStore) PublicURL(objectName string) string {
	name := url.PathEscape(objectName)

	if s.opts.PublicBaseURL != "" {
		return strings.TrimRight(s.opts.PublicBaseURL, "/") + "/" + name
	}
	if s.opts.Endpoint != "" {
		return strings.TrimRight(s.opts.Endpoint, "/") + "/" + s.opts.Bucket + "/" + name
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, s.opts.Region, name)
}

func (s *S3ImageStore) DeleteImage(ctx context.Context, objectName string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(objectName),
	})
	if err != nil {
		return fmt.Errorf("error deleting %s: %w", objectName, err)
	}
	return nil
}
