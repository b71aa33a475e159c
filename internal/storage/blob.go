package storage

import "io"

// BlobStore holds opaque binary objects, primarily proctoring snapshot
// images. Keys are slash-separated paths chosen by the caller.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	SignedURL(key string) (string, error) // fs returns "file://..." for dev
}
