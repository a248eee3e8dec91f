// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package documents

import (
	"path/filepath"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Subdirectories of the papers directory.
const (
	markdownDir  = "markdown"
	abstractsDir = "abstracts"
	metadataDir  = "metadata"
)

// Format tells the resolver how to read a file found by a convention.
type Format int

const (
	FormatMarkdown Format = iota
	FormatMetadataYAML
)

// Convention maps a DOI to a candidate path relative to the papers
// directory. Path must be pure; an empty result means the convention does
// not apply to the identifier.
type Convention struct {
	Name   string
	Kind   types.DocumentKind
	Format Format
	Path   func(doi string) string
}

var underscore = strings.NewReplacer("/", "_")

// DefaultConventions returns the naming conventions in resolution order:
// full text first, abstract-only second, short historical names last.
func DefaultConventions() []Convention {
	return []Convention{
		{
			Name: "markdown",
			Kind: types.DocumentFullText,
			Path: func(doi string) string {
				return filepath.Join(markdownDir, underscore.Replace(doi)+".md")
			},
		},
		{
			Name: "markdown-url",
			Kind: types.DocumentFullText,
			Path: func(doi string) string {
				name := strings.NewReplacer("/", "_", ":", "_").Replace("https://doi.org/" + doi)
				return filepath.Join(markdownDir, name+".md")
			},
		},
		{
			Name: "markdown-slug",
			Kind: types.DocumentFullText,
			Path: func(doi string) string {
				return filepath.Join(markdownDir, Slug(doi)+".md")
			},
		},
		{
			Name: "abstract",
			Kind: types.DocumentAbstractOnly,
			Path: func(doi string) string {
				return filepath.Join(abstractsDir, underscore.Replace(doi)+"_abstract.md")
			},
		},
		{
			Name:   "metadata",
			Kind:   types.DocumentAbstractOnly,
			Format: FormatMetadataYAML,
			Path: func(doi string) string {
				return filepath.Join(metadataDir, Slug(doi)+".yaml")
			},
		},
		{
			Name: "markdown-short",
			Kind: types.DocumentFullText,
			Path: func(doi string) string {
				i := strings.Index(doi, "/")
				if i < 0 || i == len(doi)-1 {
					return ""
				}
				return filepath.Join(markdownDir, underscore.Replace(doi[i+1:])+".md")
			},
		},
	}
}
