package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stubd/stubd/pkg/endpoint"
	"github.com/stubd/stubd/pkg/store"
)

// assetStore implements store.AssetStore. Metadata lives in the registry
// document; payload bytes live as files below the asset root.
type assetStore struct {
	fs *FileStore
}

// List returns all asset records.
func (s *assetStore) List(ctx context.Context) ([]*endpoint.Asset, error) {
	s.fs.mu.RLock()
	defer s.fs.mu.RUnlock()

	result := make([]*endpoint.Asset, len(s.fs.data.Assets))
	copy(result, s.fs.data.Assets)
	return result, nil
}

// Get returns a single asset record by ID.
func (s *assetStore) Get(ctx context.Context, id string) (*endpoint.Asset, error) {
	s.fs.mu.RLock()
	defer s.fs.mu.RUnlock()
	return s.lookup(id)
}

// lookup finds an asset record. Callers hold s.fs.mu.
func (s *assetStore) lookup(id string) (*endpoint.Asset, error) {
	for _, a := range s.fs.data.Assets {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, store.ErrNotFound
}

// Create stores the payload below the asset root and records metadata.
func (s *assetStore) Create(ctx context.Context, a *endpoint.Asset, data []byte) error {
	s.fs.mu.Lock()
	if s.fs.cfg.ReadOnly {
		s.fs.mu.Unlock()
		return store.ErrReadOnly
	}
	if _, err := s.lookup(a.ID); err == nil {
		s.fs.mu.Unlock()
		return store.ErrAlreadyExists
	}

	if a.Extension == "" {
		a.Extension = filepath.Ext(a.FileName)
	}
	if a.StoragePath == "" {
		a.StoragePath = a.ID + a.Extension
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	if err := os.WriteFile(filepath.Join(s.fs.AssetRoot(), a.StoragePath), data, 0o644); err != nil {
		s.fs.mu.Unlock()
		return err
	}

	s.fs.data.Assets = append(s.fs.data.Assets, a)
	s.fs.markDirty()
	s.fs.mu.Unlock()

	s.fs.notify("assets", "create", a.ID)
	return nil
}

// Delete removes an asset record and its payload file.
func (s *assetStore) Delete(ctx context.Context, id string) error {
	s.fs.mu.Lock()
	if s.fs.cfg.ReadOnly {
		s.fs.mu.Unlock()
		return store.ErrReadOnly
	}
	for i, a := range s.fs.data.Assets {
		if a.ID != id {
			continue
		}
		s.fs.data.Assets = append(s.fs.data.Assets[:i], s.fs.data.Assets[i+1:]...)
		s.fs.markDirty()
		s.fs.mu.Unlock()

		if path, ok := safeJoin(s.fs.AssetRoot(), a.StoragePath); ok {
			_ = os.Remove(path)
		}
		s.fs.notify("assets", "delete", id)
		return nil
	}
	s.fs.mu.Unlock()
	return store.ErrNotFound
}

// ResolveByPath returns the bytes of a file below the asset root.
func (s *assetStore) ResolveByPath(relPath string) ([]byte, error) {
	path, ok := safeJoin(s.fs.AssetRoot(), relPath)
	if !ok {
		return nil, store.ErrNotFound
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// ResolveByID returns the bytes and metadata of an uploaded asset.
func (s *assetStore) ResolveByID(id string) ([]byte, *endpoint.Asset, error) {
	s.fs.mu.RLock()
	a, err := s.lookup(id)
	s.fs.mu.RUnlock()
	if err != nil {
		return nil, nil, err
	}
	data, err := s.ResolveByPath(a.StoragePath)
	if err != nil {
		return nil, nil, err
	}
	return data, a, nil
}

// safeJoin joins rel below root, rejecting absolute paths and traversal
// outside the root.
func safeJoin(root, rel string) (string, bool) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", false
	}
	cleaned := filepath.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.Join(root, cleaned), true
}
