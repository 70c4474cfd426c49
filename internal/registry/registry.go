// Package registry maintains an immutable, versioned snapshot of the
// endpoint registry. The engine reads the snapshot with a single atomic
// pointer load per request instead of re-reading durable storage; the
// snapshot refreshes on administrative mutations and on registry-file
// change notifications.
package registry

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stubd/stubd/pkg/endpoint"
	"github.com/stubd/stubd/pkg/store"
)

// Snapshot is an immutable view of the registry at a point in time.
type Snapshot struct {
	// Version increases monotonically with every refresh.
	Version uint64

	// Endpoints in storage order. Matching is order-defined.
	Endpoints []*endpoint.Endpoint

	byID map[string]*endpoint.Endpoint
}

// Get returns the endpoint with the given ID, or nil.
func (s *Snapshot) Get(id string) *endpoint.Endpoint {
	return s.byID[id]
}

// Registry holds the current snapshot behind an atomic pointer.
type Registry struct {
	source  store.EndpointReader
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
	log     *slog.Logger

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

// New builds a registry over the given source and takes the first
// snapshot.
func New(source store.EndpointReader, log *slog.Logger) (*Registry, error) {
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{source: source, log: log}
	if err := r.Refresh(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

// Current returns the active snapshot. Never nil after New succeeds.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Refresh re-reads the source and publishes a new snapshot.
func (r *Registry) Refresh(ctx context.Context) error {
	endpoints, err := r.source.List(ctx)
	if err != nil {
		return err
	}
	snap := &Snapshot{
		Version:   r.version.Add(1),
		Endpoints: endpoints,
		byID:      make(map[string]*endpoint.Endpoint, len(endpoints)),
	}
	for _, e := range endpoints {
		snap.byID[e.ID] = e
	}
	r.current.Store(snap)
	r.log.Debug("registry snapshot refreshed", "version", snap.Version, "endpoints", len(endpoints))
	return nil
}

// Listener returns a store.ChangeListener that refreshes the snapshot on
// every mutation. Wire it to the store backing the administrative surface.
func (r *Registry) Listener() store.ChangeListener {
	return func(entity, action, id string) {
		if entity != "endpoints" && entity != "registry" {
			return
		}
		if err := r.Refresh(context.Background()); err != nil {
			r.log.Error("registry refresh failed", "entity", entity, "action", action, "error", err)
		}
	}
}

// Watch follows the registry document for out-of-process edits. On a
// write event the reload function is invoked (typically FileStore.Reload,
// which in turn notifies the Listener). Events are debounced because
// renames and writes arrive in bursts.
func (r *Registry) Watch(path string, reload func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: atomic renames replace the file inode.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}
	r.watcher = watcher

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	go r.watchLoop(ctx, filepath.Base(path), reload)
	return nil
}

func (r *Registry) watchLoop(ctx context.Context, name string, reload func() error) {
	const debounce = 200 * time.Millisecond
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			}
		case <-fire:
			timer = nil
			fire = nil
			if err := reload(); err != nil {
				r.log.Error("registry reload failed", "error", err)
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.log.Warn("registry watch error", "error", err)
		case <-ctx.Done():
			return
		}
	}
}

// Close stops the file watcher, if any.
func (r *Registry) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}
