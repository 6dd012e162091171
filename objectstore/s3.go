// Package objectstore uploads source PDFs to S3 (or an S3-compatible
// service) and translates between canonical s3:// locators and the HTTPS
// form the excerpt reader downloads from.
package objectstore

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store uploads documents and resolves their canonical locations.
type Store interface {
	Upload(ctx context.Context, localPath, key string) (url string, err error)
	Canonicalize(url string) string
	ToHTTPS(url string) string
}

// Config configures an S3Store.
type Config struct {
	Bucket    string
	Region    string // defaults to us-east-1
	Endpoint  string // non-empty for S3-compatible services (e.g. MinIO)
	AccessKey string
	SecretKey string
}

// S3Store implements Store using AWS SDK Go v2, grounded on the teacher's
// object-store client wiring.
type S3Store struct {
	client *s3.Client
	bucket string
	region string
}

// NewS3Store creates an S3Store from configuration.
func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("objectstore: bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsOpts = append(awsOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		return nil, fmt.Errorf("objectstore: loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return &S3Store{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		region: region,
	}, nil
}

// Upload puts the contents of localPath at the given key and returns its
// canonical s3:// URL.
func (s *S3Store) Upload(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("objectstore: opening %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("objectstore: uploading %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// Canonicalize rewrites any supported URL form (s3://, virtual-hosted
// https://) into the canonical s3://<bucket>/<key> form.
func (s *S3Store) Canonicalize(url string) string {
	return canonicalize(url)
}

// ToHTTPS rewrites a canonical s3:// URL into virtual-hosted-style HTTPS:
// https://<bucket>.s3.amazonaws.com/<key>. Path-style addressing is not
// attempted.
func (s *S3Store) ToHTTPS(url string) string {
	return toHTTPS(url)
}

func canonicalize(url string) string {
	if strings.HasPrefix(url, "s3://") {
		return url
	}
	const httpsPrefix = "https://"
	if strings.HasPrefix(url, httpsPrefix) {
		rest := strings.TrimPrefix(url, httpsPrefix)
		hostAndKey := strings.SplitN(rest, "/", 2)
		if len(hostAndKey) == 2 {
			host := hostAndKey[0]
			if idx := strings.Index(host, ".s3."); idx > 0 {
				bucket := host[:idx]
				return fmt.Sprintf("s3://%s/%s", bucket, hostAndKey[1])
			}
		}
	}
	return url
}

func toHTTPS(url string) string {
	canon := canonicalize(url)
	if !strings.HasPrefix(canon, "s3://") {
		return canon
	}
	rest := strings.TrimPrefix(canon, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		return canon
	}
	bucket, key := parts[0], parts[1]
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, key)
}
