package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/bryanwahyu/cloudvision/internal/domain/analysis"
	domhistory "github.com/bryanwahyu/cloudvision/internal/domain/history"
	"github.com/bryanwahyu/cloudvision/internal/domain/storage"
)

// Store reads and deletes a user's persisted analysis records. It is a
// thin layer over the blob store: result documents are JSON blobs under
// the user's result prefix, each referencing its image blob.
type Store struct {
	Blobs storage.BlobStore
}

func NewStore(blobs storage.BlobStore) *Store {
	return &Store{Blobs: blobs}
}

// ResultPrefix returns the key prefix holding a user's result documents.
func ResultPrefix(uid string) string {
	return uid + "/results/"
}

// Load lists every result document under the user's prefix, in the
// store's enumeration order. A blob that cannot be downloaded or parsed
// is skipped and logged; it never fails the rest of the listing.
func (s *Store) Load(ctx context.Context, uid string) ([]domhistory.Record, error) {
	keys, err := s.Blobs.List(ctx, ResultPrefix(uid))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	var records []domhistory.Record
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		data, err := s.Blobs.Download(ctx, key)
		if err != nil {
			log.Printf("history: skipping %s: %v", key, err)
			continue
		}
		var res analysis.Result
		if err := json.Unmarshal(data, &res); err != nil {
			log.Printf("history: skipping %s: %v", key, err)
			continue
		}
		records = append(records, domhistory.Record{Key: key, Result: res})
	}
	return records, nil
}

// Delete removes the record's result document, then makes a best-effort
// attempt on the associated image blob. The result deletion is the
// operation of record; a failure deleting the image leaves an orphaned
// blob, which is logged and swallowed.
func (s *Store) Delete(ctx context.Context, rec domhistory.Record) error {
	if err := s.Blobs.Delete(ctx, rec.Key); err != nil {
		return fmt.Errorf("delete result %s: %w", rec.Key, err)
	}
	if path := rec.Result.ImagePath; path != "" {
		if err := s.Blobs.Delete(ctx, path); err != nil {
			log.Printf("history: delete image %s: %v", path, err)
		}
	}
	return nil
}
