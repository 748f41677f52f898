package storage

import "context"

// BlobStore port (interface for the remote object store). Keys are
// slash-separated UTF-8 paths. All operations are single synchronous
// remote calls with no local caching; List returns keys in the store's
// native enumeration order, which is not guaranteed sorted by time.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	UploadJSON(ctx context.Context, key string, v any) error
	Download(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}
