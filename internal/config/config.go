// Package config holds the explicit configuration structs passed into the
// core (spec section 6) plus a YAML project-file loader layered on top of
// documented defaults, grounded on the teacher's internal/config package.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Filter configures the file filter (C3).
type Filter struct {
	IncludeGlobs []string `yaml:"include"`
	ExcludeGlobs []string `yaml:"exclude"`
}

// Index configures scanning limits.
type Index struct {
	MaxFileSize      int64 `yaml:"max_file_size"`
	FollowSymlinks   bool  `yaml:"follow_symlinks"`
	RespectGitignore bool  `yaml:"respect_gitignore"`
}

// Watch configures the watcher-coordinator (spec section 6).
type Watch struct {
	DebounceMs    int  `yaml:"debounce_ms"`
	BoundedEvents int  `yaml:"bounded_events"` // 0 means unbounded
	IdleTimeoutMs int  `yaml:"idle_timeout_ms"`
	Enabled       bool `yaml:"enabled"`
}

// ExportFormat is the closed set of export formats (spec section 6); only
// JSON and JSONL are implemented, dot/csv are reserved.
type ExportFormat string

const (
	ExportJSON  ExportFormat = "json"
	ExportJSONL ExportFormat = "jsonl"
	ExportDOT   ExportFormat = "dot"
	ExportCSV   ExportFormat = "csv"
)

// ExportFilters narrows an export.
type ExportFilters struct {
	File     string `yaml:"file"`
	Symbol   string `yaml:"symbol"`
	Kind     string `yaml:"kind"`
	MaxDepth int    `yaml:"max_depth"`
	Cluster  bool   `yaml:"cluster"`
}

// Export configures serialization output (spec section 6).
type Export struct {
	Format            ExportFormat  `yaml:"format"`
	IncludeSymbols    bool          `yaml:"include_symbols"`
	IncludeReferences bool          `yaml:"include_references"`
	IncludeCalls      bool          `yaml:"include_calls"`
	IncludeMetrics    bool          `yaml:"include_metrics"`
	Minify            bool          `yaml:"minify"`
	Filters           ExportFilters `yaml:"filters"`
}

// Project identifies the indexed root.
type Project struct {
	Root string `yaml:"root"`
	Name string `yaml:"name"`
}

// Config is the top-level configuration passed explicitly to the core.
type Config struct {
	Project Project `yaml:"project"`
	Filter  Filter  `yaml:"filter"`
	Index   Index   `yaml:"index"`
	Watch   Watch   `yaml:"watch"`
	Export  Export  `yaml:"export"`
}

// Default returns documented defaults, matching the teacher's
// DefaultConfig() pattern.
func Default() Config {
	return Config{
		Index: Index{
			MaxFileSize:      5 * 1024 * 1024,
			FollowSymlinks:   false,
			RespectGitignore: true,
		},
		Watch: Watch{
			DebounceMs:    250,
			IdleTimeoutMs: 2000,
			Enabled:       false,
		},
		Export: Export{
			Format: ExportJSON,
		},
	}
}

// Load reads a YAML project config file at path and merges it over
// Default(). A missing file is not an error, the defaults stand alone,
// mirroring the teacher's tolerant config loading.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
