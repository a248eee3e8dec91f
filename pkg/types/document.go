// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DocumentKind classifies a resolved citation.
type DocumentKind string

const (
	DocumentFullText     DocumentKind = "full_text"
	DocumentAbstractOnly DocumentKind = "abstract_only"
	DocumentMissing      DocumentKind = "missing"
)

// CachedDocument is the locally cached text for one citation identifier.
type CachedDocument struct {
	// Identifier is the normalized DOI.
	Identifier string `json:"identifier" yaml:"identifier"`

	// Kind is full_text, abstract_only, or missing.
	Kind DocumentKind `json:"kind" yaml:"kind"`

	// Path is the file the text was read from. Empty when missing.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Title comes from Markdown frontmatter or abstract metadata, when present.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// RawText is the file body with frontmatter removed.
	RawText string `json:"-" yaml:"-"`

	// NormalizedText is RawText with whitespace runs collapsed to one space.
	NormalizedText string `json:"-" yaml:"-"`
}

// Missing reports whether no cached text exists for the identifier.
func (d *CachedDocument) Missing() bool {
	return d == nil || d.Kind == DocumentMissing
}
