package drive

import "github.com/marmos91/dittodrive/pkg/store/metadata"

// Projection is the client-facing view of a node. It never carries the
// content reference or any other internal identifier.
//
// JSON field names follow the service's public wire shape: the root parent
// is rendered as "0" rather than the internal empty sentinel.
type Projection struct {
	ID       metadata.NodeID `json:"id"`
	OwnerID  metadata.UserID `json:"userId"`
	Name     string          `json:"name"`
	Kind     metadata.Kind   `json:"type"`
	IsPublic bool            `json:"isPublic"`
	ParentID string          `json:"parentId"`
}

// project converts a stored node into its public projection.
func project(node *metadata.Node) *Projection {
	parent := "0"
	if node.ParentID != metadata.RootID {
		parent = string(node.ParentID)
	}

	return &Projection{
		ID:       node.ID,
		OwnerID:  node.OwnerID,
		Name:     node.Name,
		Kind:     node.Kind,
		IsPublic: node.IsPublic,
		ParentID: parent,
	}
}
