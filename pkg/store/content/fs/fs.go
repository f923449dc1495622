// Package fs implements filesystem-based content storage.
//
// Content is stored as one file per ContentID directly under a configurable
// root directory. ContentIDs are store-generated UUIDs (plus the "_<width>"
// suffix for derived artifacts), so they are always filesystem-safe and
// never collide with user-chosen names.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/dittodrive/pkg/store/content"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// FSContentStore implements content.ContentStore on the local filesystem.
//
// Thread Safety:
// Filesystem operations are thread-safe at the OS level. Writes go through
// a temp-file-and-rename so readers never observe a partially written file.
type FSContentStore struct {
	basePath string
}

// NewFSContentStore creates the base directory if needed and returns the
// store rooted there.
func NewFSContentStore(ctx context.Context, basePath string) (*FSContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSContentStore{basePath: basePath}, nil
}

// getFilePath returns the full path for a given content ID.
func (s *FSContentStore) getFilePath(id metadata.ContentID) string {
	return filepath.Join(s.basePath, string(id))
}

// WriteContent writes data to a temporary file and renames it into place,
// so the durable write is all-or-nothing.
func (s *FSContentStore) WriteContent(ctx context.Context, id metadata.ContentID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.getFilePath(id)

	tmp, err := os.CreateTemp(s.basePath, ".write-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to commit content: %w", err)
	}

	return nil
}

func (s *FSContentStore) ReadContent(ctx context.Context, id metadata.ContentID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.getFilePath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, content.ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	return data, nil
}

func (s *FSContentStore) ContentExists(ctx context.Context, id metadata.ContentID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(s.getFilePath(id))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat content: %w", err)
	}
	return true, nil
}

// ListAllContent enumerates the base directory. In-flight temp files from
// WriteContent are skipped.
func (s *FSContentStore) ListAllContent(ctx context.Context) ([]metadata.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list content directory: %w", err)
	}

	ids := make([]metadata.ContentID, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".write-") {
			continue
		}
		ids = append(ids, metadata.ContentID(entry.Name()))
	}
	return ids, nil
}

// DeleteContent removes the backing file. Absent content is not an error.
func (s *FSContentStore) DeleteContent(ctx context.Context, id metadata.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(s.getFilePath(id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return nil
}

func (s *FSContentStore) Close() error {
	return nil
}

var _ content.SweepableStore = (*FSContentStore)(nil)
