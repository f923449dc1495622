package drive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeForName(t *testing.T) {
	assert.Contains(t, ContentTypeForName("readme.txt"), "text/plain")
	assert.Equal(t, "image/png", ContentTypeForName("photo.png"))
	assert.Equal(t, "application/json", ContentTypeForName("payload.json"))
	assert.Equal(t, "application/octet-stream", ContentTypeForName("archive"))
	assert.Equal(t, "application/octet-stream", ContentTypeForName("blob.unknownext"))
}
