// Package drive implements the file hierarchy manager: the core service
// that validates and creates nodes, enforces tree and visibility
// invariants, serves lookups and listings, toggles visibility, and streams
// content back to authorized callers.
//
// The manager holds no long-lived state about individual files between
// calls; all shared mutable state is confined to the injected stores.
// Correctness relies on the stores' per-record atomicity, not on any
// in-process global lock.
package drive

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/metrics"
	"github.com/marmos91/dittodrive/pkg/queue"
	"github.com/marmos91/dittodrive/pkg/store/content"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// Anonymous is the caller identity used when no session token was
// presented. Session-issued user ids are never empty, so an anonymous
// caller can never pass an ownership check.
const Anonymous = metadata.UserID("")

// Service is the file hierarchy manager.
type Service struct {
	meta    metadata.MetadataStore
	content content.ContentStore

	// jobs receives one entry per image upload. Nil disables thumbnail
	// generation entirely (useful for tests and minimal deployments).
	jobs queue.Queue

	// metrics is optional; nil skips all recording.
	metrics metrics.Metrics
}

// NewService wires the hierarchy manager with its collaborators.
func NewService(meta metadata.MetadataStore, contentStore content.ContentStore, jobs queue.Queue, m metrics.Metrics) *Service {
	return &Service{
		meta:    meta,
		content: contentStore,
		jobs:    jobs,
		metrics: m,
	}
}

// CreateRequest carries the client input for Create. The owner never comes
// from the request: it is the authenticated caller.
type CreateRequest struct {
	Name     string
	Kind     string
	ParentID metadata.NodeID
	IsPublic bool

	// Data is the raw content payload, required unless Kind is folder.
	Data []byte
}

// Create validates the request and persists a new node.
//
// Validation is fail-fast, first violation wins: missing name or type,
// then missing data, then parent resolution. For files and images the
// bytes are durably written to the content store before the metadata
// record is committed, so a crash between the two never yields metadata
// referencing unwritten content. Image uploads enqueue a thumbnail job
// strictly after the metadata commit, so a worker never observes a fileId
// without a backing record.
func (s *Service) Create(ctx context.Context, owner metadata.UserID, req CreateRequest) (proj *Projection, err error) {
	defer s.observe("create", time.Now(), &err)

	if req.Name == "" {
		return nil, errValidation("Missing name")
	}
	kind, ok := metadata.ParseKind(req.Kind)
	if !ok {
		return nil, errValidation("Missing type")
	}
	if kind != metadata.KindFolder && len(req.Data) == 0 {
		return nil, errValidation("Missing data")
	}

	if req.ParentID != metadata.RootID {
		parent, err := s.meta.GetByID(ctx, req.ParentID)
		if errors.Is(err, metadata.ErrNotFound) {
			return nil, errValidation("Parent not found")
		}
		if err != nil {
			return nil, errStorage(err)
		}
		if parent.Kind != metadata.KindFolder {
			return nil, errValidation("Parent is not a folder")
		}
	}

	node := &metadata.Node{
		OwnerID:  owner,
		Name:     req.Name,
		Kind:     kind,
		ParentID: req.ParentID,
		IsPublic: req.IsPublic,
	}

	if kind != metadata.KindFolder {
		// Fresh unguessable content key per upload; keys are never reused.
		ref := metadata.ContentID(uuid.NewString())
		if err := s.content.WriteContent(ctx, ref, req.Data); err != nil {
			return nil, errStorage(err)
		}
		node.ContentRef = ref
	}

	if err := s.meta.Insert(ctx, node); err != nil {
		return nil, errStorage(err)
	}

	if kind == metadata.KindImage && s.jobs != nil {
		// The upload already succeeded; a queue failure must not undo it.
		// The error is logged and the thumbnails are simply missing until
		// an operator intervenes.
		if _, err := s.jobs.Enqueue(ctx, owner, node.ID); err != nil {
			logger.Error("Failed to enqueue thumbnail job for node %s: %v", node.ID, err)
		}
	}

	return project(node), nil
}

// Get returns the node with the given id if the caller may see it.
// Absent nodes and nodes the caller may not see are both reported as
// not-found so existence never leaks.
func (s *Service) Get(ctx context.Context, caller metadata.UserID, id metadata.NodeID) (proj *Projection, err error) {
	defer s.observe("get", time.Now(), &err)

	node, err := s.lookupVisible(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return project(node), nil
}

// List returns one page of the caller's own children of parent, in
// insertion order, twenty per page. A parent that does not resolve to an
// existing folder yields an empty page, not an error: listing degrades
// softly where creation hard-fails.
func (s *Service) List(ctx context.Context, owner metadata.UserID, parent metadata.NodeID, page int) (projs []*Projection, err error) {
	defer s.observe("list", time.Now(), &err)

	if page < 0 {
		page = 0
	}

	if parent != metadata.RootID {
		node, err := s.meta.GetByID(ctx, parent)
		if errors.Is(err, metadata.ErrNotFound) {
			return []*Projection{}, nil
		}
		if err != nil {
			return nil, errStorage(err)
		}
		if node.Kind != metadata.KindFolder {
			return []*Projection{}, nil
		}
	}

	nodes, err := s.meta.List(ctx, owner, parent, page)
	if err != nil {
		return nil, errStorage(err)
	}

	projs = make([]*Projection, 0, len(nodes))
	for _, node := range nodes {
		projs = append(projs, project(node))
	}
	return projs, nil
}

// Publish makes the node visible to any caller. Idempotent: publishing an
// already-public node is a no-op success.
func (s *Service) Publish(ctx context.Context, owner metadata.UserID, id metadata.NodeID) (*Projection, error) {
	return s.setVisibility(ctx, owner, id, true)
}

// Unpublish reverts the node to owner-only visibility. Idempotent.
func (s *Service) Unpublish(ctx context.Context, owner metadata.UserID, id metadata.NodeID) (*Projection, error) {
	return s.setVisibility(ctx, owner, id, false)
}

func (s *Service) setVisibility(ctx context.Context, owner metadata.UserID, id metadata.NodeID, public bool) (proj *Projection, err error) {
	operation := "unpublish"
	if public {
		operation = "publish"
	}
	defer s.observe(operation, time.Now(), &err)

	// A single atomic field update against the store; the lookup is owner
	// scoped so foreign nodes report not-found.
	node, err := s.meta.SetPublic(ctx, id, owner, public)
	if errors.Is(err, metadata.ErrNotFound) {
		return nil, errNotFound()
	}
	if err != nil {
		return nil, errStorage(err)
	}
	return project(node), nil
}

// FetchContent returns the raw bytes of a file or image together with a
// content-type hint derived from the node name's extension. A non-zero
// width selects the derived rendition generated at that width instead of
// the original bytes. The caller may be Anonymous; access requires the
// node to be public or owned by the caller, and a denial is
// indistinguishable from absence.
func (s *Service) FetchContent(ctx context.Context, caller metadata.UserID, id metadata.NodeID, width int) (data []byte, contentType string, err error) {
	defer s.observe("fetch_content", time.Now(), &err)

	node, err := s.lookupVisible(ctx, caller, id)
	if err != nil {
		return nil, "", err
	}

	if node.Kind == metadata.KindFolder {
		return nil, "", errInvalidOperation("A folder doesn't have content")
	}

	ref := node.ContentRef
	if width > 0 {
		// Renditions are produced asynchronously; one requested before
		// the worker has run is simply not found yet.
		ref = content.DerivedID(ref, width)
	}

	data, err = s.content.ReadContent(ctx, ref)
	if errors.Is(err, content.ErrContentNotFound) {
		// Metadata referencing missing bytes means the stores have
		// desynchronized; to the caller this is still just not-found.
		logger.Warn("Node %s references missing content %s", node.ID, ref)
		return nil, "", errNotFound()
	}
	if err != nil {
		return nil, "", errStorage(err)
	}

	return data, ContentTypeForName(node.Name), nil
}

// lookupVisible resolves a node and applies the visibility rule shared by
// Get and FetchContent.
func (s *Service) lookupVisible(ctx context.Context, caller metadata.UserID, id metadata.NodeID) (*metadata.Node, error) {
	node, err := s.meta.GetByID(ctx, id)
	if errors.Is(err, metadata.ErrNotFound) {
		return nil, errNotFound()
	}
	if err != nil {
		return nil, errStorage(err)
	}

	if !node.IsPublic && node.OwnerID != caller {
		return nil, errNotFound()
	}
	return node, nil
}

// observe records one completed operation when metrics are enabled.
func (s *Service) observe(operation string, start time.Time, err *error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordOperation(operation, time.Since(start), *err)
}
