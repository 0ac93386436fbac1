package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/taskhub-io/taskhub/internal/config"
)

// Exporter stores project snapshots and hands out temporary download links
type Exporter interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (*UploadResult, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type UploadResult struct {
	Key      string
	Size     int64
	Checksum string
}

// S3Client uploads to an S3-compatible bucket
type S3Client struct {
	client *s3.Client
	bucket string
}

// NewS3Client creates a client for the configured bucket. A custom endpoint
// (MinIO, DigitalOcean Spaces) switches to path-style addressing.
func NewS3Client(ctx context.Context, cfg config.Export) (*S3Client, error) {
	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	if cfg.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, fmt.Errorf("unknown endpoint requested")
		})
		opts = append(opts, awsConfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.Endpoint != ""
	})

	log.Printf("[EXPORT] S3 client initialized for bucket: %s, region: %s", cfg.Bucket, cfg.Region)
	return &S3Client{client: client, bucket: cfg.Bucket}, nil
}

// Upload puts body under key as a private object
func (c *S3Client) Upload(ctx context.Context, key string, body []byte, contentType string) (*UploadResult, error) {
	out, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return &UploadResult{
		Key:      key,
		Size:     int64(len(body)),
		Checksum: aws.ToString(out.ETag),
	}, nil
}

// PresignGet creates a download URL for key valid for ttl
func (c *S3Client) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(c.client)

	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return req.URL, nil
}

// ExportKey builds the object key of a project snapshot:
// users/{userID}/projects/{projectID}/{timestamp}.json
func ExportKey(userID, projectID string, at time.Time) string {
	return path.Join("users", userID, "projects", projectID, at.UTC().Format("20060102T150405Z")+".json")
}
