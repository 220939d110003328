package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"legalyzer/internal/domain"
	"legalyzer/internal/port"
)

// Storage is an in-process ObjectStorage. Objects live for the process lifetime.
type Storage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates an empty in-memory object storage.
func New() *Storage {
	return &Storage{objects: make(map[string][]byte)}
}

func objectKey(bucket, key string) string { return bucket + "/" + key }

func (s *Storage) Upload(_ context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, fmt.Errorf("memory upload read: %w", err)
	}
	k := objectKey(input.Bucket, input.Key)

	s.mu.Lock()
	s.objects[k] = data
	s.mu.Unlock()

	return &port.UploadOutput{Location: "memory://" + k}, nil
}

func (s *Storage) Download(_ context.Context, bucket, key string) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.objects[objectKey(bucket, key)]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return bytes.Clone(data), nil
}

func (s *Storage) Delete(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	delete(s.objects, objectKey(bucket, key))
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored objects.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
