package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest assigns archive identifiers to the objects of an import batch.
// Objects inherit the batch-level project/subject/session; scan IDs are
// resolved per series.
type Manifest struct {
	Project string `yaml:"project"`
	Subject string `yaml:"subject,omitempty"`
	Session string `yaml:"session,omitempty"`

	// Scans maps SeriesInstanceUID to the archive scan ID. A series not
	// listed here falls back to its series number.
	Scans map[string]string `yaml:"scans,omitempty"`
}

// LoadManifest reads a YAML import manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// ScanID resolves the archive scan ID for a series, falling back to the
// given default when the manifest has no entry.
func (m *Manifest) ScanID(seriesInstanceUID, fallback string) string {
	if m == nil {
		return fallback
	}
	if id, ok := m.Scans[seriesInstanceUID]; ok {
		return id
	}
	return fallback
}
