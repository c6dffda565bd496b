// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes the full catalog to catalogDir/export.yaml and
// returns the path.
func (s *Store) ExportYAML(ctx context.Context) (string, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.catalogDir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the full catalog to catalogDir/export.json and
// returns the path.
func (s *Store) ExportJSON(ctx context.Context) (string, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.catalogDir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}
