package config

import (
	"context"
	"path/filepath"
	"testing"
)

func TestCreateMetadataStore_Memory(t *testing.T) {
	store, err := CreateMetadataStore(context.Background(), &MetadataConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("Failed to create memory metadata store: %v", err)
	}
	defer func() { _ = store.Close() }()
}

func TestCreateMetadataStore_Badger(t *testing.T) {
	cfg := &MetadataConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": filepath.Join(t.TempDir(), "meta")},
	}

	store, err := CreateMetadataStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create badger metadata store: %v", err)
	}
	defer func() { _ = store.Close() }()
}

func TestCreateMetadataStore_BadgerMissingPath(t *testing.T) {
	cfg := &MetadataConfig{Type: "badger", Badger: map[string]any{}}

	if _, err := CreateMetadataStore(context.Background(), cfg); err == nil {
		t.Fatal("Expected error for missing db_path")
	}
}

func TestCreateMetadataStore_UnknownType(t *testing.T) {
	if _, err := CreateMetadataStore(context.Background(), &MetadataConfig{Type: "bolt"}); err == nil {
		t.Fatal("Expected error for unknown store type")
	}
}

func TestCreateContentStore_Filesystem(t *testing.T) {
	cfg := &ContentConfig{
		Type:       "filesystem",
		Filesystem: map[string]any{"path": t.TempDir()},
	}

	store, err := CreateContentStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create filesystem content store: %v", err)
	}
	defer func() { _ = store.Close() }()
}

func TestCreateContentStore_S3MissingBucket(t *testing.T) {
	cfg := &ContentConfig{
		Type: "s3",
		S3:   map[string]any{"region": "eu-west-1"},
	}

	if _, err := CreateContentStore(context.Background(), cfg); err == nil {
		t.Fatal("Expected error for missing bucket")
	}
}

func TestCreateSessionStore_Badger(t *testing.T) {
	cfg := &SessionConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": filepath.Join(t.TempDir(), "sessions")},
	}

	store, err := CreateSessionStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create badger session store: %v", err)
	}
	defer func() { _ = store.Close() }()
}

func TestCreateQueue_Disabled(t *testing.T) {
	q, err := CreateQueue(context.Background(), &QueueConfig{Enabled: false, Type: "badger"})
	if err != nil {
		t.Fatalf("Expected no error for disabled queue, got: %v", err)
	}
	if q != nil {
		t.Fatal("Expected nil queue when disabled")
	}
}

func TestCreateQueue_Badger(t *testing.T) {
	cfg := &QueueConfig{
		Enabled: true,
		Type:    "badger",
		Badger:  map[string]any{"db_path": filepath.Join(t.TempDir(), "queue")},
	}

	q, err := CreateQueue(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create badger queue: %v", err)
	}
	defer func() { _ = q.Close() }()
}
