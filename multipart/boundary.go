package multipart

import (
	"fmt"
	"mime"
	"strings"

	"github.com/google/uuid"
)

// NewBoundary returns a fresh boundary token for a single batch
func NewBoundary() string {
	return "batch_" + uuid.NewString()
}

// ContentTypeHeader returns the Content-Type header value
// of a batch using the given boundary
func ContentTypeHeader(boundary string) string {
	return fmt.Sprintf("%s; boundary=%q", MediaType, boundary)
}

// BoundaryFromContentType returns the boundary named by a multipart Content-Type
// header value. An empty header, or one without a boundary parameter,
// yields DefaultBoundary.
func BoundaryFromContentType(contentType string) (string, error) {
	if strings.TrimSpace(contentType) == "" {
		return DefaultBoundary, nil
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("invalid content type %q: %w", contentType, err)
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		return "", fmt.Errorf("%w: %s", ErrNotMultipart, mediaType)
	}

	boundary, ok := params["boundary"]
	if !ok {
		return DefaultBoundary, nil
	}
	if boundary == "" {
		return "", ErrMissingBoundary
	}

	return boundary, nil
}
