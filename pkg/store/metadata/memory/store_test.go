package memory

import (
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
	metadatatesting "github.com/marmos91/dittodrive/pkg/store/metadata/testing"
)

// TestMemoryMetadataStore runs the complete MetadataStore contract suite
// against the in-memory implementation.
func TestMemoryMetadataStore(t *testing.T) {
	suite := &metadatatesting.StoreTestSuite{
		NewStore: func(t *testing.T) metadata.MetadataStore {
			return NewMemoryMetadataStore()
		},
	}

	suite.Run(t)
}
