package testcatalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/modgw/tlm/pkg/moduledesc"
)

// seedFile is the on-disk shape of a catalog seed: a flat list of module
// descriptors, the same "one YAML document, one list of records" shape the
// teacher's file_config_store.go reads its sources.yaml in.
type seedFile struct {
	Modules []moduledesc.ModuleDescriptor `yaml:"modules"`
}

// LoadFromFile builds a Catalog from a YAML seed file: a fixed catalog
// snapshot for standalone/dev deployments that run without a live
// external module catalog service. Production deployments point
// cmd/tlmd at a real moduledesc.ModuleCatalog implementation instead.
func LoadFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed %s: %w", path, err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse catalog seed %s: %w", path, err)
	}

	return New(seed.Modules...), nil
}
