package report

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/verdictlab/verdict/internal/manifest"
)

// LoadRunInfoYAML reads extra run-info properties from a YAML file and
// merges them over a run's own properties. Useful when a results log lacks
// environment details the operator knows out of band (a buildbot name, a
// display server), or to correct a misreported property.
func LoadRunInfoYAML(path string, base manifest.RunInfo) (manifest.RunInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run-info: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse run-info %s: %w", path, err)
	}

	override, err := RunInfoFromMap(raw)
	if err != nil {
		return nil, fmt.Errorf("run-info %s: %w", path, err)
	}

	merged := make(manifest.RunInfo, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged, nil
}
