// Package media stores user-uploaded images.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"jualapa/internal/config"
)

// Asset is an uploaded file. PublicID is the handle needed to delete it.
type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Upload describes a file to store.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Store uploads and deletes media assets.
type Store interface {
	Upload(ctx context.Context, in Upload) (Asset, error)
	Delete(ctx context.Context, publicID string) error
}

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps assets in an S3 bucket or any S3-compatible service.
type S3Store struct {
	client  objectAPI
	bucket  string
	baseURL string
	prefix  string
}

// NewS3Store loads AWS configuration and builds the store. When cfg.Endpoint
// is set, requests go to that endpoint with path-style addressing.
func NewS3Store(ctx context.Context, cfg config.S3Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	return newS3Store(client, cfg), nil
}

func newS3Store(client objectAPI, cfg config.S3Config) *S3Store {
	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: publicBaseURL(cfg),
		prefix:  "uploads",
	}
}

func publicBaseURL(cfg config.S3Config) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

// Upload stores the file under a fresh random key.
func (s *S3Store) Upload(ctx context.Context, in Upload) (Asset, error) {
	key := path.Join(s.prefix, uuid.NewString()+strings.ToLower(path.Ext(in.Filename)))

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        in.Body,
		ContentType: aws.String(in.ContentType),
	}
	if in.Size > 0 {
		input.ContentLength = aws.Int64(in.Size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Asset{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return Asset{URL: s.baseURL + "/" + key, PublicID: key}, nil
}

// Delete removes the object behind publicID. An empty handle is a no-op.
func (s *S3Store) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", publicID, err)
	}
	return nil
}
