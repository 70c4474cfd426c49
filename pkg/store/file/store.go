// Package file provides a file-backed implementation of the store
// interfaces. The registry persists as a single JSON document; asset
// payload bytes live in an assets directory next to it.
package file

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stubd/stubd/pkg/endpoint"
	"github.com/stubd/stubd/pkg/store"
)

// dataVersion is the current registry document format version.
const dataVersion = 1

// registryFileName is the registry document name below the data dir.
const registryFileName = "registry.json"

// Config configures a FileStore.
type Config struct {
	// DataDir is the directory holding registry.json and assets/.
	DataDir string

	// ReadOnly rejects all mutations.
	ReadOnly bool

	// SaveDebounce bounds how often dirty data is flushed to disk.
	// Zero means the 500ms default.
	SaveDebounce time.Duration

	// Logger for operational messages. Nil means slog.Default().
	Logger *slog.Logger
}

// registryData is the persisted document.
type registryData struct {
	Version   int                  `json:"version"`
	Endpoints []*endpoint.Endpoint `json:"endpoints,omitempty"`
	Assets    []*endpoint.Asset    `json:"assets,omitempty"`
}

// FileStore implements store.EndpointStore and store.AssetStore over a
// JSON document plus an asset directory.
type FileStore struct {
	cfg  Config
	mu   sync.RWMutex
	data *registryData

	listeners   []store.ChangeListener
	listenersMu sync.RWMutex

	dirty   atomic.Bool
	saveCh  chan struct{}
	closeCh chan struct{}
	closed  sync.Once
	doneCh  chan struct{}

	log *slog.Logger
}

// New creates a FileStore and loads the registry document if present.
func New(cfg Config) (*FileStore, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("file store: data dir is required")
	}
	if cfg.SaveDebounce == 0 {
		cfg.SaveDebounce = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("file store: create data dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(cfg.DataDir, "assets"), 0o755); err != nil {
		return nil, fmt.Errorf("file store: create asset dir: %w", err)
	}

	fs := &FileStore{
		cfg:     cfg,
		data:    &registryData{Version: dataVersion},
		saveCh:  make(chan struct{}, 1),
		closeCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
		log:     cfg.Logger,
	}
	if err := fs.Reload(); err != nil {
		return nil, err
	}
	go fs.saveLoop()
	return fs, nil
}

// Path returns the location of the registry document on disk.
func (s *FileStore) Path() string {
	return filepath.Join(s.cfg.DataDir, registryFileName)
}

// AssetRoot returns the directory holding asset payload bytes.
func (s *FileStore) AssetRoot() string {
	return filepath.Join(s.cfg.DataDir, "assets")
}

// Endpoints returns the endpoint store view.
func (s *FileStore) Endpoints() store.EndpointStore { return &endpointStore{fs: s} }

// Assets returns the asset store view.
func (s *FileStore) Assets() store.AssetStore { return &assetStore{fs: s} }

// Subscribe registers a listener notified after each mutation.
func (s *FileStore) Subscribe(l store.ChangeListener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Reload re-reads the registry document from disk, replacing in-memory
// state. Used at startup and when the document changes externally.
func (s *FileStore) Reload() error {
	raw, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.data = &registryData{Version: dataVersion}
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("file store: read registry: %w", err)
	}

	var data registryData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("file store: parse registry: %w", err)
	}
	if data.Version == 0 {
		data.Version = dataVersion
	}

	s.mu.Lock()
	s.data = &data
	s.mu.Unlock()
	s.notify("registry", "reload", "")
	return nil
}

// Save flushes the registry document to disk via atomic rename.
func (s *FileStore) Save() error {
	s.mu.RLock()
	raw, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("file store: marshal registry: %w", err)
	}

	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("file store: write registry: %w", err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		return fmt.Errorf("file store: replace registry: %w", err)
	}
	s.dirty.Store(false)
	return nil
}

// Close flushes pending changes and stops the save loop.
func (s *FileStore) Close() error {
	var err error
	s.closed.Do(func() {
		close(s.closeCh)
		<-s.doneCh
		if s.dirty.Load() {
			err = s.Save()
		}
	})
	return err
}

// markDirty queues a debounced save. Callers hold s.mu.
func (s *FileStore) markDirty() {
	s.dirty.Store(true)
	select {
	case s.saveCh <- struct{}{}:
	default:
	}
}

// saveLoop handles debounced saving to avoid excessive disk writes.
func (s *FileStore) saveLoop() {
	defer close(s.doneCh)
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-s.saveCh:
			if timer == nil {
				timer = time.NewTimer(s.cfg.SaveDebounce)
				fire = timer.C
			}
		case <-fire:
			timer = nil
			fire = nil
			if err := s.Save(); err != nil {
				s.log.Error("registry save failed", "error", err)
			}
		case <-s.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (s *FileStore) notify(entity, action, id string) {
	s.listenersMu.RLock()
	listeners := make([]store.ChangeListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.RUnlock()
	for _, l := range listeners {
		l(entity, action, id)
	}
}
