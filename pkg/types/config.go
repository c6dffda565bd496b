package types

import "time"

// TraversalConfig holds shared settings for directory walks.
type TraversalConfig struct {
	// Include lists doublestar glob patterns, relative to the walk root,
	// selecting the files to visit (default "**/*").
	Include []string `json:"include" yaml:"include"`

	// Exclude lists doublestar glob patterns for files to skip.
	Exclude []string `json:"exclude" yaml:"exclude"`

	// Workers is the size of the parse worker pool (default 4). The scan
	// phase is read-only; all results converge in a single aggregator
	// before anything is written.
	Workers int `json:"workers" yaml:"workers"`
}

// ScanConfig holds settings for the scan and extract pipeline.
type ScanConfig struct {
	TraversalConfig `yaml:",inline"`

	// SourceDir is the root of the source tree scanned for snippet markers.
	SourceDir string `json:"source_dir" yaml:"source_dir"`

	// LatexDir is the root of the LaTeX document tree scanned for
	// inclusion directives. Empty disables the reference cross-check.
	LatexDir string `json:"latex_dir" yaml:"latex_dir"`

	// TargetDir is the directory extracted snippet files are written to.
	TargetDir string `json:"target_dir" yaml:"target_dir"`
}

// CatalogConfig holds settings for the snippet catalog.
type CatalogConfig struct {
	// CatalogDir is the directory holding the catalog database (contains
	// snipper.db and export files).
	CatalogDir string `json:"catalog_dir" yaml:"catalog_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// WatchConfig holds settings for the watch command.
type WatchConfig struct {
	// Debounce is how long to coalesce file events before re-running
	// the scan (default 500ms).
	Debounce time.Duration `json:"debounce" yaml:"debounce"`

	// Extract applies the reconciliation plan on each re-run instead of
	// only scanning.
	Extract bool `json:"extract" yaml:"extract"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Scan    ScanConfig    `json:"scan" yaml:"scan"`
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`
	Watch   WatchConfig   `json:"watch" yaml:"watch"`
}
