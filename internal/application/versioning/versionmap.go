package versioning

import (
	"os"

	"gopkg.in/yaml.v3"

	apterrors "github.com/bookverse/apptrust-rollback/internal/errors"
)

// Seeds holds the bootstrap versions used when an application has no usable
// history in the registry. A seed is never emitted verbatim; it is always
// bumped first so the seed itself stays reserved.
type Seeds struct {
	Application string `yaml:"application"`
	Build       string `yaml:"build"`
}

// MapEntry is one application's record in the version map.
type MapEntry struct {
	Key   string `yaml:"key"`
	Seeds Seeds  `yaml:"seeds"`
}

// VersionMap is the repository-level seed registry, loaded from YAML.
type VersionMap struct {
	Applications []MapEntry `yaml:"applications"`
}

// LoadVersionMap reads and parses a version map file.
func LoadVersionMap(path string) (*VersionMap, error) {
	const op = "versioning.LoadVersionMap"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apterrors.ConfigWrap(err, op, "failed to read version map").
			WithDetail("path", path)
	}

	var vm VersionMap
	if err := yaml.Unmarshal(data, &vm); err != nil {
		return nil, apterrors.ConfigWrap(err, op, "failed to parse version map").
			WithDetail("path", path)
	}
	return &vm, nil
}

// Lookup returns the seeds for an application key.
func (vm *VersionMap) Lookup(appKey string) (Seeds, bool) {
	if vm == nil {
		return Seeds{}, false
	}
	for _, entry := range vm.Applications {
		if entry.Key == appKey {
			return entry.Seeds, true
		}
	}
	return Seeds{}, false
}
