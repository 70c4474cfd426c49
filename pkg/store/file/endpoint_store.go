package file

import (
	"context"
	"time"

	"github.com/stubd/stubd/pkg/endpoint"
	"github.com/stubd/stubd/pkg/store"
)

// endpointStore implements store.EndpointStore over the registry document.
type endpointStore struct {
	fs *FileStore
}

// List returns all endpoints in storage order. The returned slice is a
// copy; the elements are shared and treated as immutable by readers.
func (s *endpointStore) List(ctx context.Context) ([]*endpoint.Endpoint, error) {
	s.fs.mu.RLock()
	defer s.fs.mu.RUnlock()

	result := make([]*endpoint.Endpoint, len(s.fs.data.Endpoints))
	copy(result, s.fs.data.Endpoints)
	return result, nil
}

// Get returns a single endpoint by ID.
func (s *endpointStore) Get(ctx context.Context, id string) (*endpoint.Endpoint, error) {
	s.fs.mu.RLock()
	defer s.fs.mu.RUnlock()

	for _, e := range s.fs.data.Endpoints {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, store.ErrNotFound
}

// Create appends a new endpoint to the registry.
func (s *endpointStore) Create(ctx context.Context, e *endpoint.Endpoint) error {
	s.fs.mu.Lock()
	if s.fs.cfg.ReadOnly {
		s.fs.mu.Unlock()
		return store.ErrReadOnly
	}
	for _, existing := range s.fs.data.Endpoints {
		if existing.ID == e.ID {
			s.fs.mu.Unlock()
			return store.ErrAlreadyExists
		}
	}

	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	s.fs.data.Endpoints = append(s.fs.data.Endpoints, e)
	s.fs.markDirty()
	s.fs.mu.Unlock()

	s.fs.notify("endpoints", "create", e.ID)
	return nil
}

// Update replaces an existing endpoint in place, preserving storage order.
func (s *endpointStore) Update(ctx context.Context, e *endpoint.Endpoint) error {
	s.fs.mu.Lock()
	if s.fs.cfg.ReadOnly {
		s.fs.mu.Unlock()
		return store.ErrReadOnly
	}
	for i, existing := range s.fs.data.Endpoints {
		if existing.ID != e.ID {
			continue
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = existing.CreatedAt
		}
		e.UpdatedAt = time.Now().UTC()
		s.fs.data.Endpoints[i] = e
		s.fs.markDirty()
		s.fs.mu.Unlock()

		s.fs.notify("endpoints", "update", e.ID)
		return nil
	}
	s.fs.mu.Unlock()
	return store.ErrNotFound
}

// Delete removes an endpoint by ID.
func (s *endpointStore) Delete(ctx context.Context, id string) error {
	s.fs.mu.Lock()
	if s.fs.cfg.ReadOnly {
		s.fs.mu.Unlock()
		return store.ErrReadOnly
	}
	for i, existing := range s.fs.data.Endpoints {
		if existing.ID != id {
			continue
		}
		s.fs.data.Endpoints = append(s.fs.data.Endpoints[:i], s.fs.data.Endpoints[i+1:]...)
		s.fs.markDirty()
		s.fs.mu.Unlock()

		s.fs.notify("endpoints", "delete", id)
		return nil
	}
	s.fs.mu.Unlock()
	return store.ErrNotFound
}
