package testutil

import (
	"net/http"

	"waitlist/pkg/platform/middleware/metadata"
)

// WithClientMetadata attaches client metadata to the request context. This
// simulates what the metadata middleware would do for a real request.
func WithClientMetadata(req *http.Request, clientIP, userAgent, referer string) *http.Request {
	ctx := metadata.WithClientMetadata(req.Context(), clientIP, userAgent, referer)
	return req.WithContext(ctx)
}
