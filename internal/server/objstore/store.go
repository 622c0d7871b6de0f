// Package objstore is a thin client for a multipart-capable, S3-compatible
// object store. The orchestrators talk to the Store interface only; the S3
// implementation lives in this package as well.
package objstore

import (
	"context"
	"io"
)

// Object is the result of fetching a stored object. Body streams the object
// content and must be closed by the caller.
type Object struct {
	ContentType   string
	ContentLength int64
	Metadata      map[string]string
	Body          io.ReadCloser
}

// Store is the object-store contract consumed by the upload and download
// orchestrators. Unsuccessful transport results surface as *common.OpError
// carrying the store's HTTP status.
type Store interface {
	// Initiate opens a multipart upload for key and returns the upload id.
	Initiate(ctx context.Context, key, contentType string, metadata map[string]string) (string, error)

	// PutPart uploads one numbered part and returns its integrity tag (ETag).
	PutPart(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (string, error)

	// Complete stitches the uploaded parts, given as partNumber→ETag, into
	// the final object.
	Complete(ctx context.Context, key, uploadID string, parts map[int32]string) error

	// Abort cancels an in-progress multipart upload, releasing stored parts.
	// Aborting an unknown upload is not an error.
	Abort(ctx context.Context, key, uploadID string) error

	// GetObject fetches the object as a stream plus response metadata.
	GetObject(ctx context.Context, key string) (*Object, error)

	// DeleteObject removes the object for key.
	DeleteObject(ctx context.Context, key string) error
}
