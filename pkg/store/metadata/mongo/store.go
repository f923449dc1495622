// Package mongo implements a metadata store backed by MongoDB.
//
// Node records live in a single "files" collection, one document per node,
// keyed by the store-assigned UUID. This is the implementation to use when
// metadata must be shared between several service instances.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const nodeCollection = "files"

// MongoMetadataStore implements metadata.MetadataStore on a MongoDB
// collection. Per-document atomicity of InsertOne and FindOneAndUpdate
// provides the guarantees the hierarchy manager relies on.
type MongoMetadataStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoMetadataStore connects to MongoDB and pings it so the service
// never starts with a dead database connection.
func NewMongoMetadataStore(ctx context.Context, uri, database string) (*MongoMetadataStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoMetadataStore{
		client: client,
		coll:   client.Database(database).Collection(nodeCollection),
	}, nil
}

// Insert assigns a fresh UUID id and inserts the document.
func (s *MongoMetadataStore) Insert(ctx context.Context, node *metadata.Node) error {
	node.ID = metadata.NodeID(uuid.NewString())
	if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now()
	}

	if _, err := s.coll.InsertOne(ctx, node); err != nil {
		return fmt.Errorf("failed to insert node: %w", err)
	}
	return nil
}

// GetByID returns the node with the given id regardless of owner.
func (s *MongoMetadataStore) GetByID(ctx context.Context, id metadata.NodeID) (*metadata.Node, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetOwned scopes the lookup to the owner in the query filter itself, so
// "owned by someone else" is indistinguishable from "does not exist".
func (s *MongoMetadataStore) GetOwned(ctx context.Context, id metadata.NodeID, owner metadata.UserID) (*metadata.Node, error) {
	return s.findOne(ctx, bson.M{"_id": id, "owner": owner})
}

// List pages through the owner's children of parent, sorted by creation
// time (with id as tiebreaker) to keep the order stable across pages.
func (s *MongoMetadataStore) List(ctx context.Context, owner metadata.UserID, parent metadata.NodeID, page int) ([]*metadata.Node, error) {
	filter := bson.M{"owner": owner, "parent": parent}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(page * metadata.PageSize)).
		SetLimit(int64(metadata.PageSize))

	cursor, err := s.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defer cursor.Close(ctx)

	nodes := make([]*metadata.Node, 0, metadata.PageSize)
	if err := cursor.All(ctx, &nodes); err != nil {
		return nil, fmt.Errorf("failed to decode node listing: %w", err)
	}
	return nodes, nil
}

// SetPublic issues a single owner-scoped $set, which MongoDB applies
// atomically per document. The updated record is returned in one round trip.
func (s *MongoMetadataStore) SetPublic(ctx context.Context, id metadata.NodeID, owner metadata.UserID, public bool) (*metadata.Node, error) {
	filter := bson.M{"_id": id, "owner": owner}
	update := bson.M{"$set": bson.M{"isPublic": public}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var node metadata.Node
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&node)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, metadata.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update node visibility: %w", err)
	}
	return &node, nil
}

// GetAllContentRefs collects the distinct non-empty content references
// across the collection.
func (s *MongoMetadataStore) GetAllContentRefs(ctx context.Context) ([]metadata.ContentID, error) {
	filter := bson.M{"contentRef": bson.M{"$exists": true, "$ne": ""}}

	var raw []string
	if err := s.coll.Distinct(ctx, "contentRef", filter).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to collect content references: %w", err)
	}

	refs := make([]metadata.ContentID, 0, len(raw))
	for _, ref := range raw {
		refs = append(refs, metadata.ContentID(ref))
	}
	return refs, nil
}

// Close disconnects the underlying client.
func (s *MongoMetadataStore) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *MongoMetadataStore) findOne(ctx context.Context, filter bson.M) (*metadata.Node, error) {
	var node metadata.Node
	err := s.coll.FindOne(ctx, filter).Decode(&node)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, metadata.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load node: %w", err)
	}
	return &node, nil
}
