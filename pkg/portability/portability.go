// Package portability exports and imports the full registry (endpoints
// plus assets) as a single self-contained document. Importing an exported
// document reproduces identical request/response behavior: endpoint order
// is preserved and asset payloads travel inline as base64.
package portability

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/stubd/stubd/pkg/endpoint"
	"github.com/stubd/stubd/pkg/store"
)

// DocumentVersion is the current export document format version.
const DocumentVersion = 1

// Document is the export format.
type Document struct {
	Version    int                  `json:"version"`
	ExportedAt time.Time            `json:"exportedAt"`
	Endpoints  []*endpoint.Endpoint `json:"endpoints"`
	Assets     []AssetBundle        `json:"assets,omitempty"`
}

// AssetBundle carries an asset record together with its payload bytes.
type AssetBundle struct {
	Asset  endpoint.Asset `json:"asset"`
	Base64 string         `json:"base64"`
}

// Export builds a document from the current registry state.
func Export(ctx context.Context, endpoints store.EndpointReader, assets store.AssetStore) (*Document, error) {
	eps, err := endpoints.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: list endpoints: %w", err)
	}

	doc := &Document{
		Version:    DocumentVersion,
		ExportedAt: time.Now().UTC(),
		Endpoints:  eps,
	}

	records, err := assets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: list assets: %w", err)
	}
	for _, a := range records {
		data, _, err := assets.ResolveByID(a.ID)
		if err != nil {
			return nil, fmt.Errorf("export: read asset %s: %w", a.ID, err)
		}
		doc.Assets = append(doc.Assets, AssetBundle{
			Asset:  *a,
			Base64: base64.StdEncoding.EncodeToString(data),
		})
	}
	return doc, nil
}

// Import applies a document to the stores. With replace set, existing
// endpoints and assets are removed first so the result matches the
// document exactly; otherwise entries are merged and ID collisions fail.
// Endpoints are created in document order, preserving first-match-wins
// behavior.
func Import(ctx context.Context, doc *Document, endpoints store.EndpointStore, assets store.AssetStore, replace bool) error {
	if doc == nil {
		return fmt.Errorf("import: missing document")
	}
	if doc.Version > DocumentVersion {
		return fmt.Errorf("import: unsupported document version %d", doc.Version)
	}

	if replace {
		existing, err := endpoints.List(ctx)
		if err != nil {
			return fmt.Errorf("import: list endpoints: %w", err)
		}
		for _, e := range existing {
			if err := endpoints.Delete(ctx, e.ID); err != nil {
				return fmt.Errorf("import: clear endpoint %s: %w", e.ID, err)
			}
		}
		records, err := assets.List(ctx)
		if err != nil {
			return fmt.Errorf("import: list assets: %w", err)
		}
		for _, a := range records {
			if err := assets.Delete(ctx, a.ID); err != nil {
				return fmt.Errorf("import: clear asset %s: %w", a.ID, err)
			}
		}
	}

	for i := range doc.Assets {
		bundle := doc.Assets[i]
		data, err := base64.StdEncoding.DecodeString(bundle.Base64)
		if err != nil {
			return fmt.Errorf("import: asset %s payload: %w", bundle.Asset.ID, err)
		}
		asset := bundle.Asset
		if err := assets.Create(ctx, &asset, data); err != nil {
			return fmt.Errorf("import: asset %s: %w", asset.ID, err)
		}
	}

	for _, e := range doc.Endpoints {
		if err := endpoint.Validate(e); err != nil {
			return fmt.Errorf("import: endpoint %s: %w", e.ID, err)
		}
		if err := endpoints.Create(ctx, e); err != nil {
			return fmt.Errorf("import: endpoint %s: %w", e.ID, err)
		}
	}
	return nil
}
