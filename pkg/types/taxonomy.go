// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SourceFormat identifies how a taxonomy authority file is laid out.
type SourceFormat string

const (
	// FormatTSV is tab-delimited with genus and epithet columns.
	FormatTSV SourceFormat = "tsv"
	// FormatCSV is comma-delimited with genus and epithet columns.
	FormatCSV SourceFormat = "csv"
	// FormatPSV is pipe-delimited with genus and epithet columns.
	FormatPSV SourceFormat = "psv"
	// FormatNames holds one scientific name per line, or per row in the
	// configured name column of a tab-delimited file.
	FormatNames SourceFormat = "names"
)

// TaxonomySource describes one ingested authority file. The load-time fields
// (SpeciesCount, GenusCount, Malformed) are filled in by the loader and the
// value is immutable afterwards.
type TaxonomySource struct {
	// Name labels the authority (e.g. "lpsn", "gtdb", "ncbi").
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Path is the file location; a ".gz" suffix is decompressed on read.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// Format selects the row parser.
	Format SourceFormat `json:"format" yaml:"format" mapstructure:"format"`

	// Priority orders loading: lower loads first and wins abbreviation ties.
	Priority int `json:"priority" yaml:"priority" mapstructure:"priority"`

	// GenusColumn and EpithetColumn are zero-based column indices for the
	// delimited formats (defaults 0 and 1). NameColumn is used by FormatNames.
	GenusColumn   int `json:"genus_column" yaml:"genus_column" mapstructure:"genus_column"`
	EpithetColumn int `json:"epithet_column" yaml:"epithet_column" mapstructure:"epithet_column"`
	NameColumn    int `json:"name_column" yaml:"name_column" mapstructure:"name_column"`

	// HasHeader skips the first row.
	HasHeader bool `json:"has_header" yaml:"has_header" mapstructure:"has_header"`

	SpeciesCount int `json:"species_count" yaml:"species_count" mapstructure:"-"`
	GenusCount   int `json:"genus_count" yaml:"genus_count" mapstructure:"-"`
	Malformed    int `json:"malformed" yaml:"malformed" mapstructure:"-"`
}
