// Package store defines the persistence interfaces consumed by the engine
// and the administrative surface.
package store

import (
	"context"
	"errors"

	"github.com/stubd/stubd/pkg/endpoint"
)

// Sentinel errors returned by store implementations.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrReadOnly      = errors.New("store is read-only")
)

// EndpointReader is the read surface the request engine consumes.
// List returns endpoints in storage order; matching is order-defined.
type EndpointReader interface {
	List(ctx context.Context) ([]*endpoint.Endpoint, error)
	Get(ctx context.Context, id string) (*endpoint.Endpoint, error)
}

// EndpointStore adds the mutations used by the administrative surface.
type EndpointStore interface {
	EndpointReader
	Create(ctx context.Context, e *endpoint.Endpoint) error
	Update(ctx context.Context, e *endpoint.Endpoint) error
	Delete(ctx context.Context, id string) error
}

// AssetResolver is the read surface binary/image dispatch consumes.
type AssetResolver interface {
	// ResolveByPath returns the bytes of a file below the asset root.
	// Returns ErrNotFound when the file is absent or the path escapes
	// the root.
	ResolveByPath(relPath string) ([]byte, error)

	// ResolveByID returns the bytes and metadata of an uploaded asset.
	ResolveByID(id string) ([]byte, *endpoint.Asset, error)
}

// AssetStore adds the mutations used by the administrative surface.
type AssetStore interface {
	AssetResolver
	List(ctx context.Context) ([]*endpoint.Asset, error)
	Get(ctx context.Context, id string) (*endpoint.Asset, error)
	Create(ctx context.Context, a *endpoint.Asset, data []byte) error
	Delete(ctx context.Context, id string) error
}

// ChangeListener is notified after a successful mutation. entity is
// "endpoints", "assets" or "registry" (a full document reload); action
// is "create", "update", "delete" or "reload".
type ChangeListener func(entity, action, id string)
