package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemStore implements [Backend] entirely in memory. It exists for
// tests and for embedding the repository without a filesystem. All
// reads return copies; callers can mutate results freely.
type MemStore struct {
	mu      sync.RWMutex
	objects map[string]*memObject
}

type memObject struct {
	obj     Object
	content []byte
	attrs   map[string]string
}

// NewMemStore creates an empty in-memory backend.
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string]*memObject)}
}

func (s *MemStore) ListChildren(_ context.Context) ([]Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects := make([]Object, 0, len(s.objects))
	for _, mo := range s.objects {
		objects = append(objects, mo.obj)
	}

	return objects, nil
}

func (s *MemStore) GetObject(_ context.Context, id string) (Object, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mo, ok := s.objects[id]
	if !ok {
		return Object{}, false, nil
	}

	return mo.obj, true, nil
}

func (s *MemStore) GetAttributes(_ context.Context, id string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mo, ok := s.objects[id]
	if !ok {
		return nil, ErrNotFound
	}

	attrs := make(map[string]string, len(mo.attrs))
	for k, v := range mo.attrs {
		attrs[k] = v
	}

	return attrs, nil
}

func (s *MemStore) SetAttributes(_ context.Context, id string, attrs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mo, ok := s.objects[id]
	if !ok {
		return ErrNotFound
	}

	mo.attrs = make(map[string]string, len(attrs))
	for k, v := range attrs {
		mo.attrs[k] = v
	}

	return nil
}

func (s *MemStore) CreateObject(_ context.Context, name string, content []byte, mimeType string) (Object, error) {
	if name == "" {
		return Object{}, fmt.Errorf("object name is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[name]; exists {
		return Object{}, fmt.Errorf("object %s already exists", name)
	}

	obj := Object{ID: name, MimeType: mimeType}
	s.objects[name] = &memObject{
		obj:     obj,
		content: bytes.Clone(content),
		attrs:   make(map[string]string),
	}

	return obj, nil
}

func (s *MemStore) UpdateObject(_ context.Context, obj Object, content []byte) (Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mo, ok := s.objects[obj.ID]
	if !ok {
		return Object{}, ErrNotFound
	}

	mo.content = bytes.Clone(content)

	return mo.obj, nil
}

func (s *MemStore) DeleteObject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[id]; !ok {
		return ErrNotFound
	}

	delete(s.objects, id)

	return nil
}

func (s *MemStore) ReadContent(_ context.Context, id string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mo, ok := s.objects[id]
	if !ok {
		return nil, ErrNotFound
	}

	return io.NopCloser(bytes.NewReader(bytes.Clone(mo.content))), nil
}
