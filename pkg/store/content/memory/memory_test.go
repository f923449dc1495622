package memory

import (
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/content"
	contenttesting "github.com/marmos91/dittodrive/pkg/store/content/testing"
)

func TestMemoryContentStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func(t *testing.T) content.ContentStore {
			return NewMemoryContentStore()
		},
	}

	suite.Run(t)
}
