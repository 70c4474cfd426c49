package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stubd/stubd/internal/id"
	"github.com/stubd/stubd/pkg/endpoint"
)

// seedFile is the endpoints seed document. YAML is a superset of JSON,
// so a single decoder covers both file formats.
type seedFile struct {
	Endpoints []*endpoint.Endpoint `yaml:"endpoints"`
}

// LoadEndpointsFile reads an endpoints seed file. Each declaration is
// validated; missing IDs are generated. Declaration order is preserved.
func LoadEndpointsFile(path string) ([]*endpoint.Endpoint, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}

	var doc seedFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("seed: parse %s: %w", path, err)
	}

	for i, e := range doc.Endpoints {
		if e.ID == "" {
			e.ID = id.New()
		}
		if err := endpoint.Validate(e); err != nil {
			return nil, fmt.Errorf("seed: endpoint %d: %w", i, err)
		}
	}
	return doc.Endpoints, nil
}
