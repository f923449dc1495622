// Package s3 implements S3-based content storage.
//
// Content is stored as one object per ContentID under a configurable key
// prefix. Works with Amazon S3 and compatible services (MinIO, Localstack)
// via a custom endpoint configured in pkg/config.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/dittodrive/pkg/store/content"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// S3ContentStoreConfig contains the dependencies and settings for the store.
// The AWS client is built by the pkg/config factory so credentials and
// endpoint resolution stay in one place.
type S3ContentStoreConfig struct {
	// Client is the configured S3 client (required)
	Client *s3.Client

	// Bucket is the bucket to store content in (required)
	Bucket string

	// KeyPrefix is prepended to every object key, e.g. "content/"
	KeyPrefix string
}

// S3ContentStore implements content.ContentStore on an S3 bucket.
//
// Thread Safety:
// The AWS SDK client is safe for concurrent use; the store holds no other
// mutable state.
type S3ContentStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// NewS3ContentStore validates the configuration and verifies bucket access
// before returning, so the service never starts against an unreachable
// bucket.
func NewS3ContentStore(ctx context.Context, cfg S3ContentStoreConfig) (*S3ContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	if _, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	}); err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3ContentStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// getObjectKey returns the full object key for a given content ID.
func (s *S3ContentStore) getObjectKey(id metadata.ContentID) string {
	return s.keyPrefix + string(id)
}

// WriteContent uploads the content with a single PutObject. S3 object
// writes are atomic: readers see either the old object or the new one.
func (s *S3ContentStore) WriteContent(ctx context.Context, id metadata.ContentID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(id)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to write content to S3: %w", err)
	}
	return nil
}

func (s *S3ContentStore) ReadContent(ctx context.Context, id metadata.ContentID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(id)),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return nil, fmt.Errorf("failed to read content from S3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object body: %w", err)
	}
	return data, nil
}

func (s *S3ContentStore) ContentExists(ctx context.Context, id metadata.ContentID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(id)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check content existence: %w", err)
	}
	return true, nil
}

// ListAllContent pages through the bucket under the configured key prefix.
func (s *S3ContentStore) ListAllContent(ctx context.Context) ([]metadata.ContentID, error) {
	var ids []metadata.ContentID

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list S3 content: %w", err)
		}

		for _, object := range page.Contents {
			if object.Key == nil {
				continue
			}
			ids = append(ids, metadata.ContentID(strings.TrimPrefix(*object.Key, s.keyPrefix)))
		}
	}

	return ids, nil
}

// DeleteContent removes the object. S3 deletes are idempotent, so absent
// content is not an error.
func (s *S3ContentStore) DeleteContent(ctx context.Context, id metadata.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(id)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete content from S3: %w", err)
	}
	return nil
}

func (s *S3ContentStore) Close() error {
	return nil
}

var _ content.SweepableStore = (*S3ContentStore)(nil)
