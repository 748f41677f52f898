// Package memory provides an in-memory BlobStore used by tests. List
// returns keys in insertion order, standing in for the remote store's
// native enumeration order.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	domstorage "github.com/bryanwahyu/cloudvision/internal/domain/storage"
)

type Store struct {
	mu    sync.Mutex
	order []string
	blobs map[string][]byte
	types map[string]string
}

var _ domstorage.BlobStore = (*Store)(nil)

func New() *Store {
	return &Store{
		blobs: map[string][]byte{},
		types: map[string]string{},
	}
}

func (s *Store) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		s.order = append(s.order, key)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.blobs[key] = cp
	s.types[key] = contentType
	return nil
}

func (s *Store) UploadJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return s.Upload(ctx, key, data, "application/json")
}

func (s *Store) Download(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", key)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for _, k := range s.order {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return fmt.Errorf("blob %s not found", key)
	}
	delete(s.blobs, key)
	delete(s.types, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len reports how many blobs are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// ContentType returns the content type a blob was uploaded with.
func (s *Store) ContentType(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.types[key]
}
