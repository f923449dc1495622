package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/queue"
	queueBadger "github.com/marmos91/dittodrive/pkg/queue/badger"
	queueMemory "github.com/marmos91/dittodrive/pkg/queue/memory"
	"github.com/marmos91/dittodrive/pkg/store/content"
	contentFs "github.com/marmos91/dittodrive/pkg/store/content/fs"
	contentMemory "github.com/marmos91/dittodrive/pkg/store/content/memory"
	contentS3 "github.com/marmos91/dittodrive/pkg/store/content/s3"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
	metaBadger "github.com/marmos91/dittodrive/pkg/store/metadata/badger"
	metaMemory "github.com/marmos91/dittodrive/pkg/store/metadata/memory"
	metaMongo "github.com/marmos91/dittodrive/pkg/store/metadata/mongo"
	"github.com/marmos91/dittodrive/pkg/store/session"
	sessionBadger "github.com/marmos91/dittodrive/pkg/store/session/badger"
	sessionMemory "github.com/marmos91/dittodrive/pkg/store/session/memory"
)

// badgerOptions is the shared option shape for every badger-backed
// component.
type badgerOptions struct {
	DBPath string `mapstructure:"db_path"`
}

func decodeBadgerOptions(component string, options map[string]any) (*badgerOptions, error) {
	var opts badgerOptions
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode %s badger options: %w", component, err)
	}
	if opts.DBPath == "" {
		return nil, fmt.Errorf("%s badger store: db_path is required", component)
	}
	return &opts, nil
}

// CreateMetadataStore creates a metadata store based on configuration.
//
// Supported types:
//   - "memory": ephemeral in-process storage
//   - "badger": persistent embedded BadgerDB storage
//   - "mongo": MongoDB document storage
func CreateMetadataStore(ctx context.Context, cfg *MetadataConfig) (metadata.MetadataStore, error) {
	switch cfg.Type {
	case "memory":
		return metaMemory.NewMemoryMetadataStore(), nil

	case "badger":
		opts, err := decodeBadgerOptions("metadata", cfg.Badger)
		if err != nil {
			return nil, err
		}
		return metaBadger.NewBadgerMetadataStore(ctx, opts.DBPath)

	case "mongo":
		type mongoOptions struct {
			URI      string `mapstructure:"uri"`
			Database string `mapstructure:"database"`
		}

		var opts mongoOptions
		if err := mapstructure.Decode(cfg.Mongo, &opts); err != nil {
			return nil, fmt.Errorf("failed to decode mongo options: %w", err)
		}
		if opts.URI == "" {
			return nil, fmt.Errorf("mongo metadata store: uri is required")
		}
		if opts.Database == "" {
			opts.Database = "dittodrive"
		}

		return metaMongo.NewMongoMetadataStore(ctx, opts.URI, opts.Database)

	default:
		return nil, fmt.Errorf("unknown metadata store type: %q", cfg.Type)
	}
}

// CreateContentStore creates a content store based on configuration.
//
// Supported types:
//   - "memory": ephemeral in-process storage
//   - "filesystem": local filesystem storage
//   - "s3": Amazon S3 or compatible object storage
func CreateContentStore(ctx context.Context, cfg *ContentConfig) (content.ContentStore, error) {
	switch cfg.Type {
	case "memory":
		return contentMemory.NewMemoryContentStore(), nil

	case "filesystem":
		type filesystemOptions struct {
			Path string `mapstructure:"path"`
		}

		var opts filesystemOptions
		if err := mapstructure.Decode(cfg.Filesystem, &opts); err != nil {
			return nil, fmt.Errorf("failed to decode filesystem content options: %w", err)
		}
		if opts.Path == "" {
			return nil, fmt.Errorf("filesystem content store: path is required")
		}

		return contentFs.NewFSContentStore(ctx, opts.Path)

	case "s3":
		return createS3ContentStore(ctx, cfg.S3)

	default:
		return nil, fmt.Errorf("unknown content store type: %q", cfg.Type)
	}
}

// createS3ContentStore builds the AWS client and wraps it in the S3
// content store.
func createS3ContentStore(ctx context.Context, options map[string]any) (content.ContentStore, error) {
	type s3Options struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var opts s3Options
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode S3 content options: %w", err)
	}

	if opts.Bucket == "" {
		return nil, fmt.Errorf("S3 content store: bucket is required")
	}
	if opts.Region == "" {
		return nil, fmt.Errorf("S3 content store: region is required")
	}

	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(opts.Region),
	}

	// Static credentials when provided, the default chain otherwise.
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Custom endpoints (MinIO, Localstack) need path-style addressing.
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	store, err := contentS3.NewS3ContentStore(ctx, contentS3.S3ContentStoreConfig{
		Client:    client,
		Bucket:    opts.Bucket,
		KeyPrefix: opts.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 content store: %w", err)
	}

	logger.Info("S3 content store initialized: bucket=%s region=%s prefix=%s",
		opts.Bucket, opts.Region, opts.KeyPrefix)

	return store, nil
}

// CreateSessionStore creates a session store based on configuration.
//
// Supported types:
//   - "memory": ephemeral in-process storage
//   - "badger": persistent embedded BadgerDB storage with native TTLs
func CreateSessionStore(ctx context.Context, cfg *SessionConfig) (session.SessionStore, error) {
	switch cfg.Type {
	case "memory":
		return sessionMemory.NewMemorySessionStore(), nil

	case "badger":
		opts, err := decodeBadgerOptions("sessions", cfg.Badger)
		if err != nil {
			return nil, err
		}
		return sessionBadger.NewBadgerSessionStore(ctx, opts.DBPath)

	default:
		return nil, fmt.Errorf("unknown session store type: %q", cfg.Type)
	}
}

// CreateQueue creates the derived-work queue based on configuration.
// Returns (nil, nil) when the queue is disabled.
func CreateQueue(ctx context.Context, cfg *QueueConfig) (queue.Queue, error) {
	if !cfg.Enabled {
		logger.Info("Derived-work queue disabled")
		return nil, nil
	}

	switch cfg.Type {
	case "memory":
		return queueMemory.NewMemoryQueue(), nil

	case "badger":
		opts, err := decodeBadgerOptions("queue", cfg.Badger)
		if err != nil {
			return nil, err
		}
		return queueBadger.NewBadgerQueue(ctx, opts.DBPath)

	default:
		return nil, fmt.Errorf("unknown queue type: %q", cfg.Type)
	}
}
