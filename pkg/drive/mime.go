package drive

import (
	"mime"
	"path/filepath"
)

// defaultContentType is served when the name's extension is unknown.
const defaultContentType = "application/octet-stream"

// ContentTypeForName derives a content-type hint from a node name's
// extension. The hint is advisory: the stored bytes are returned as-is.
func ContentTypeForName(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return defaultContentType
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}
	return defaultContentType
}
