// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the evidence-engine pipeline:
// taxonomy sources, cached documents, organism mentions, evidence cells,
// and extraction runs.
package types

import (
	"strings"
	"time"
)

// ValidationBasis records how an organism name was confirmed.
type ValidationBasis string

const (
	BasisExactSpecies         ValidationBasis = "exact_species"
	BasisAbbreviatedExpansion ValidationBasis = "abbreviated_expansion"
	BasisStrainStripped       ValidationBasis = "strain_stripped"
	BasisInferred             ValidationBasis = "inferred"
)

// OrganismMention is one validated organism name found in a text.
type OrganismMention struct {
	// RawSpan is the text as it appears in the source (e.g. "E. coli K-12").
	RawSpan string `json:"raw_span" yaml:"raw_span"`

	// NormalizedName is the canonical binomial (e.g. "Escherichia coli").
	NormalizedName string `json:"normalized_name" yaml:"normalized_name"`

	// Confidence is between 0.0 and 1.0.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Basis is the validation path that accepted the name.
	Basis ValidationBasis `json:"basis" yaml:"basis"`

	// Occurrences counts validated spans that resolved to NormalizedName.
	Occurrences int `json:"occurrences" yaml:"occurrences"`
}

// CellStatus tracks an evidence cell through extraction.
type CellStatus string

const (
	StatusPending      CellStatus = "pending"
	StatusExtracted    CellStatus = "extracted"
	StatusNoDocument   CellStatus = "no_document"
	StatusNoValueFound CellStatus = "no_value_found"
	StatusError        CellStatus = "error"
)

// Terminal reports whether the status is a final outcome of a run.
func (s CellStatus) Terminal() bool {
	switch s {
	case StatusExtracted, StatusNoDocument, StatusNoValueFound, StatusError:
		return true
	default:
		return false
	}
}

// ParseCellStatus maps a stored status string to a CellStatus. Unknown and
// empty values are pending.
func ParseCellStatus(s string) CellStatus {
	st := CellStatus(strings.TrimSpace(strings.ToLower(s)))
	if st.Terminal() {
		return st
	}
	return StatusPending
}

// EvidenceCell is the unit of work and output: one property of one entity.
type EvidenceCell struct {
	EntityID string `json:"entity_id" yaml:"entity_id"`
	Property string `json:"property" yaml:"property"`

	// Value is the property value the evidence must support.
	Value string `json:"value" yaml:"value"`

	// CitationIdentifiers lists DOIs in citation order.
	CitationIdentifiers []string `json:"citation_identifiers" yaml:"citation_identifiers"`

	// OrganismField is comma-joined normalized organism names, possibly empty.
	OrganismField string `json:"organism_field" yaml:"organism_field"`

	// EvidenceSnippet is a verbatim excerpt bounded by the snippet budget.
	EvidenceSnippet string `json:"evidence_snippet" yaml:"evidence_snippet"`

	Status CellStatus `json:"status" yaml:"status"`
}

// Key returns the "entity/property" identifier used in logs.
func (c EvidenceCell) Key() string {
	return c.EntityID + "/" + c.Property
}

// CellResult is the log record for one processed cell.
type CellResult struct {
	EntityID   string        `json:"entity_id"`
	Property   string        `json:"property"`
	Identifier string        `json:"identifier,omitempty"`
	Status     CellStatus    `json:"status"`
	Organisms  string        `json:"organisms,omitempty"`
	Snippet    string        `json:"snippet,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

// ExtractionRun holds orchestration state for one invocation.
type ExtractionRun struct {
	RunID              string
	StartedAt          time.Time
	ProcessedCount     int
	Skipped            int
	CheckpointInterval int
	Checkpoints        int
	BackupPath         string
	Log                []CellResult
}

// Count returns how many processed cells ended in status.
func (r *ExtractionRun) Count(status CellStatus) int {
	n := 0
	for _, res := range r.Log {
		if res.Status == status {
			n++
		}
	}
	return n
}

// HasErrors reports whether any cell ended in status error.
func (r *ExtractionRun) HasErrors() bool {
	return r.Count(StatusError) > 0
}
