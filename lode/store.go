package lode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"
)

// Storage backends.
const (
	BackendFS = "fs"
	BackendS3 = "s3"
)

// StoreConfig selects and configures an archive backend.
type StoreConfig struct {
	// Backend is BackendFS or BackendS3.
	Backend string
	// Path is the filesystem root, or "bucket/prefix" for S3.
	Path string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing. Required by most
	// S3-compatible providers.
	UsePathStyle bool
}

// Validate checks the backend name and path.
func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case BackendFS, BackendS3:
	default:
		return fmt.Errorf("unknown archive backend %q", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("archive backend %s requires a path", c.Backend)
	}
	if c.Backend == BackendS3 {
		if bucket, _ := ParseS3Path(c.Path); bucket == "" {
			return errors.New("S3 bucket is required")
		}
	}
	return nil
}

// ParseS3Path splits "bucket/prefix" or "bucket".
func ParseS3Path(path string) (bucket, prefix string) {
	bucket, prefix, _ = strings.Cut(path, "/")
	return bucket, prefix
}

// NewFactory returns the store factory for cfg.
func NewFactory(ctx context.Context, cfg StoreConfig) (lode.StoreFactory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Backend == BackendFS {
		return lode.NewFSFactory(cfg.Path), nil
	}
	return NewS3Factory(ctx, cfg)
}

// NewS3Factory returns a factory for an S3 store. Credentials come from
// the AWS SDK default chain (env vars, shared config, IAM role).
func NewS3Factory(ctx context.Context, cfg StoreConfig) (lode.StoreFactory, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	client := s3.NewFromConfig(awsConfig, s3Opts...)

	bucket, prefix := ParseS3Path(cfg.Path)
	return func() (lode.Store, error) {
		return lodes3.New(client, lodes3.Config{Bucket: bucket, Prefix: prefix})
	}, nil
}
