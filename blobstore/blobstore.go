// Package blobstore persists extracted image bytes and hands back stable
// URLs. Absence of a configured store disables image persistence entirely:
// images are dropped, never base64-inlined into chunks.
package blobstore

import "context"

// Store uploads named blobs.
type Store interface {
	// Upload writes data under name and returns a stable URL.
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}
