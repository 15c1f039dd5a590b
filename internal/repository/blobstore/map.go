package blobstore

import (
	"context"
	"path"
	"sort"
	"sync"
)

type MemoryStore struct {
	m *TypedSyncMap
}

type TypedSyncMap struct {
	m sync.Map
}

func (c *TypedSyncMap) Load(k string) ([]byte, bool) {
	v, exists := c.m.Load(k)
	if !exists {
		return nil, false
	}
	return v.([]byte), exists
}

func (c *TypedSyncMap) Store(k string, v []byte) {
	c.m.Store(k, v)
}

func (c *TypedSyncMap) Range(f func(k string, v []byte) bool) {
	c.m.Range(func(k, v any) bool {
		return f(k.(string), v.([]byte))
	})
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m: &TypedSyncMap{},
	}
}

var _ BlobStore = (*MemoryStore)(nil)

func (s *MemoryStore) Get(_ context.Context, p string) ([]byte, error) {
	p, err := cleanPath(p)
	if err != nil {
		return nil, err
	}

	v, exists := s.m.Load(p)
	if !exists {
		return nil, ErrNotFound
	}

	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemoryStore) Put(_ context.Context, p string, data []byte) error {
	p, err := cleanPath(p)
	if err != nil {
		return err
	}

	v := make([]byte, len(data))
	copy(v, data)
	s.m.Store(p, v)
	return nil
}

func (s *MemoryStore) List(_ context.Context, pattern string) ([]string, error) {
	if err := checkPattern(pattern); err != nil {
		return nil, err
	}

	var out []string
	s.m.Range(func(k string, _ []byte) bool {
		if ok, _ := path.Match(pattern, k); ok {
			out = append(out, k)
		}
		return true
	})

	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
