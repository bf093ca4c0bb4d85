package memory

import (
	"context"
	"sync"

	"github.com/lightcade/lightcade/internal/localstore"
	"github.com/lightcade/lightcade/internal/model"
)

// Store is an in-memory implementation of the local durable store
type Store struct {
	mu    sync.RWMutex
	blobs map[blobKey][]byte
}

type blobKey struct {
	namespace string
	key       string
}

// New creates a new in-memory store instance
func New() *Store {
	return &Store{
		blobs: make(map[blobKey][]byte),
	}
}

// Ensure Store implements the interface
var _ localstore.Store = (*Store)(nil)

func (s *Store) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[blobKey{namespace: namespace, key: key}]
	if !ok {
		return nil, model.ErrNotFound
	}
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

func (s *Store) Put(ctx context.Context, namespace, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.blobs[blobKey{namespace: namespace, key: key}] = stored
	return nil
}

func (s *Store) Delete(ctx context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, blobKey{namespace: namespace, key: key})
	return nil
}
