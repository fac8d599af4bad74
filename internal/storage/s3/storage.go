// Package s3 stores meal images in an S3 bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrForeignURL is returned when asked to delete a URL outside the bucket.
var ErrForeignURL = errors.New("url does not belong to this bucket")

// ObjectAPI is the subset of *s3.Client the storage uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Config struct {
	Bucket string
	Region string
	// Endpoint overrides the S3 endpoint for compatible stores such as MinIO.
	Endpoint string
	// PublicBaseURL prefixes object keys in returned URLs, e.g. a CDN origin.
	PublicBaseURL string
	PublicRead    bool
}

// Storage uploads objects and hands out their public URL.
type Storage struct {
	api        ObjectAPI
	bucket     string
	baseURL    string
	publicRead bool
}

// New builds a Storage backed by the default AWS credential chain.
func New(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	awsConf, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsConf, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithAPI(client, cfg), nil
}

// NewWithAPI builds a Storage on an existing client.
func NewWithAPI(api ObjectAPI, cfg Config) *Storage {
	base := cfg.PublicBaseURL
	if base == "" {
		if cfg.Endpoint != "" {
			base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	return &Storage{
		api:        api,
		bucket:     cfg.Bucket,
		baseURL:    strings.TrimRight(base, "/"),
		publicRead: cfg.PublicRead,
	}
}

// Upload stores data under path and returns its public URL.
func (s *Storage) Upload(ctx context.Context, data []byte, contentType, path string) (string, error) {
	key := strings.TrimLeft(path, "/")
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if s.publicRead {
		in.ACL = s3types.ObjectCannedACLPublicRead
	}
	if _, err := s.api.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("failed to upload to s3: %w", err)
	}
	return s.URL(key), nil
}

// Delete removes the object a URL from Upload points to.
func (s *Storage) Delete(ctx context.Context, rawURL string) error {
	key, err := s.KeyFromURL(rawURL)
	if err != nil {
		return err
	}
	_, err = s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from s3: %w", err)
	}
	return nil
}

// URL returns the public URL of key.
func (s *Storage) URL(key string) string {
	return s.baseURL + "/" + key
}

// KeyFromURL recovers the object key from a public URL.
func (s *Storage) KeyFromURL(rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, s.baseURL+"/") {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, rawURL)
	}
	key := strings.TrimPrefix(rawURL, s.baseURL+"/")
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	unescaped, err := url.PathUnescape(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrForeignURL, err)
	}
	if unescaped == "" {
		return "", fmt.Errorf("%w: empty key", ErrForeignURL)
	}
	return unescaped, nil
}
