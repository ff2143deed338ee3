// Package blob abstracts the object store holding uploaded originals. Clients
// never touch storage directly; they receive short-lived signed URLs and the
// pipeline fetches bytes server side.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a storage key holds no object.
var ErrNotFound = errors.New("blob not found")

// SignedURL is a pre-authorized URL plus its expiry.
type SignedURL struct {
	URL       string
	ExpiresAt time.Time
}

// Gateway issues client-facing signed URLs and serves the pipeline's own
// access to stored objects.
type Gateway interface {
	// IssueUploadURL returns a single-use PUT target for the given key.
	IssueUploadURL(ctx context.Context, key string, maxBytes int64) (*SignedURL, error)
	// IssueDownloadURL returns a GET target for an existing object.
	IssueDownloadURL(ctx context.Context, key string) (*SignedURL, error)
	// Exists reports whether an object is present under the key.
	Exists(ctx context.Context, key string) (bool, error)
	// Stat returns the byte size of the object under the key.
	Stat(ctx context.Context, key string) (int64, error)
	// Fetch opens the object for reading. Caller closes.
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
	// Remove deletes the object. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}
