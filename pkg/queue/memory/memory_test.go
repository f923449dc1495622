package memory

import (
	"testing"

	"github.com/marmos91/dittodrive/pkg/queue"
	queuetesting "github.com/marmos91/dittodrive/pkg/queue/testing"
)

func TestMemoryQueue(t *testing.T) {
	suite := &queuetesting.QueueTestSuite{
		NewQueue: func(t *testing.T) queue.Queue {
			return NewMemoryQueue()
		},
	}

	suite.Run(t)
}
