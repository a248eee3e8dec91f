// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// TaxonomyConfig holds the ordered list of taxonomic authority files loaded
// into the name index at startup.
type TaxonomyConfig struct {
	// Sources lists authority files. They are loaded in ascending Priority,
	// narrow prokaryote authorities first and broad cross-kingdom ones last.
	Sources []TaxonomySource `json:"sources" yaml:"sources" mapstructure:"sources"`
}

// DocumentsConfig holds settings for resolving citations to cached text.
type DocumentsConfig struct {
	// PapersDir is the base directory for cached documents
	// (contains markdown/, abstracts/, metadata/).
	PapersDir string `json:"papers_dir" yaml:"papers_dir" mapstructure:"papers_dir"`
}

// StoreConfig holds settings for the tabular record store.
type StoreConfig struct {
	// Path is the SQLite database file holding the records table.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// Table is the records table name (default "ingredients").
	Table string `json:"table" yaml:"table" mapstructure:"table"`

	// KeyColumn is the entity identifier column (default "id").
	KeyColumn string `json:"key_column" yaml:"key_column" mapstructure:"key_column"`

	// BackupDir receives timestamped copies of the store taken before the
	// first write of a run (default: <dir of Path>/backups).
	BackupDir string `json:"backup_dir" yaml:"backup_dir" mapstructure:"backup_dir"`
}

// EvidenceConfig holds settings for the extraction run.
type EvidenceConfig struct {
	// MaxSnippetChars bounds every evidence snippet (default 200).
	MaxSnippetChars int `json:"max_snippet_chars" yaml:"max_snippet_chars" mapstructure:"max_snippet_chars"`

	// CheckpointInterval is the number of cells between store flushes (default 5).
	CheckpointInterval int `json:"checkpoint_interval" yaml:"checkpoint_interval" mapstructure:"checkpoint_interval"`

	// MaxOrganisms caps document-level organisms written when the snippet
	// itself names none (default 3).
	MaxOrganisms int `json:"max_organisms" yaml:"max_organisms" mapstructure:"max_organisms"`

	// Properties restricts the run to the named properties. Empty means all
	// properties discovered in the store.
	Properties []string `json:"properties,omitempty" yaml:"properties,omitempty" mapstructure:"properties"`

	// RunDir receives the per-run JSONL cell log.
	RunDir string `json:"run_dir" yaml:"run_dir" mapstructure:"run_dir"`

	// InferFromTitle enables the single-organism title inference fallback.
	InferFromTitle bool `json:"infer_from_title" yaml:"infer_from_title" mapstructure:"infer_from_title"`
}

// LoggingConfig selects the structured logger's level and encoding.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is console, json, or auto (console on a terminal).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings for an evidence-engine invocation.
type Config struct {
	Taxonomy  TaxonomyConfig  `json:"taxonomy" yaml:"taxonomy" mapstructure:"taxonomy"`
	Documents DocumentsConfig `json:"documents" yaml:"documents" mapstructure:"documents"`
	Store     StoreConfig     `json:"store" yaml:"store" mapstructure:"store"`
	Evidence  EvidenceConfig  `json:"evidence" yaml:"evidence" mapstructure:"evidence"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// Default values applied by WithDefaults.
const (
	DefaultMaxSnippetChars    = 200
	DefaultCheckpointInterval = 5
	DefaultMaxOrganisms       = 3
	DefaultTable              = "ingredients"
	DefaultKeyColumn          = "id"
	DefaultPapersDir          = "papers"
)

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Evidence.MaxSnippetChars <= 0 {
		c.Evidence.MaxSnippetChars = DefaultMaxSnippetChars
	}
	if c.Evidence.CheckpointInterval <= 0 {
		c.Evidence.CheckpointInterval = DefaultCheckpointInterval
	}
	if c.Evidence.MaxOrganisms <= 0 {
		c.Evidence.MaxOrganisms = DefaultMaxOrganisms
	}
	if c.Store.Table == "" {
		c.Store.Table = DefaultTable
	}
	if c.Store.KeyColumn == "" {
		c.Store.KeyColumn = DefaultKeyColumn
	}
	if c.Documents.PapersDir == "" {
		c.Documents.PapersDir = DefaultPapersDir
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "auto"
	}
	return c
}
