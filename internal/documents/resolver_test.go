// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package documents

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

func writeDoc(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolveConventionPriority(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		wantRel  string
		wantKind types.DocumentKind
	}{
		{
			name:     "underscore markdown",
			files:    map[string]string{"markdown/10.1128_jb.1.md": "full"},
			wantRel:  "markdown/10.1128_jb.1.md",
			wantKind: types.DocumentFullText,
		},
		{
			name:     "url markdown",
			files:    map[string]string{"markdown/https___doi.org_10.1128_jb.1.md": "full"},
			wantRel:  "markdown/https___doi.org_10.1128_jb.1.md",
			wantKind: types.DocumentFullText,
		},
		{
			name:     "slug markdown",
			files:    map[string]string{"markdown/10.1128-jb.1.md": "full"},
			wantRel:  "markdown/10.1128-jb.1.md",
			wantKind: types.DocumentFullText,
		},
		{
			name: "full text preferred over abstract",
			files: map[string]string{
				"abstracts/10.1128_jb.1_abstract.md": "abstract",
				"markdown/10.1128-jb.1.md":           "full",
			},
			wantRel:  "markdown/10.1128-jb.1.md",
			wantKind: types.DocumentFullText,
		},
		{
			name:     "abstract markdown",
			files:    map[string]string{"abstracts/10.1128_jb.1_abstract.md": "abstract"},
			wantRel:  "abstracts/10.1128_jb.1_abstract.md",
			wantKind: types.DocumentAbstractOnly,
		},
		{
			name:     "abstract metadata",
			files:    map[string]string{"metadata/10.1128-jb.1.yaml": "title: T\nabstract: A\n"},
			wantRel:  "metadata/10.1128-jb.1.yaml",
			wantKind: types.DocumentAbstractOnly,
		},
		{
			name: "abstract preferred over short name",
			files: map[string]string{
				"markdown/jb.1.md":                   "short",
				"abstracts/10.1128_jb.1_abstract.md": "abstract",
			},
			wantRel:  "abstracts/10.1128_jb.1_abstract.md",
			wantKind: types.DocumentAbstractOnly,
		},
		{
			name:     "short historical name",
			files:    map[string]string{"markdown/jb.1.md": "short"},
			wantRel:  "markdown/jb.1.md",
			wantKind: types.DocumentFullText,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for rel, content := range tt.files {
				writeDoc(t, dir, rel, content)
			}
			doc, err := NewResolver(dir).Resolve("doi:10.1128/jb.1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, doc.Kind)
			assert.Equal(t, filepath.Join(dir, tt.wantRel), doc.Path)
			assert.Equal(t, "10.1128/jb.1", doc.Identifier)
		})
	}
}

func TestResolvePreservesCaseOnDisk(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "markdown/10.1128_JB.00123-10.md", "Growth of E. coli.")

	doc, err := NewResolver(dir).Resolve("10.1128/JB.00123-10")
	require.NoError(t, err)
	assert.Equal(t, types.DocumentFullText, doc.Kind)
	assert.Equal(t, "10.1128/jb.00123-10", doc.Identifier)
}

func TestResolveMissingIsNotAnError(t *testing.T) {
	r := NewResolver(t.TempDir())
	doc, err := r.Resolve("10.9999/none")
	require.NoError(t, err)
	assert.True(t, doc.Missing())
	assert.Equal(t, types.DocumentMissing, doc.Kind)
	assert.Empty(t, doc.NormalizedText)
}

func TestResolveCachesText(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "markdown/10.1_a.md", "Growth at\n\n  pH 7.0.")
	r := NewResolver(dir)

	first, err := r.Resolve("10.1/a")
	require.NoError(t, err)
	assert.Equal(t, "Growth at pH 7.0.", first.NormalizedText)

	require.NoError(t, os.Remove(path))
	for _, id := range []string{"10.1/a", "doi:10.1/A", "https://doi.org/10.1/a"} {
		doc, err := r.Resolve(id)
		require.NoError(t, err)
		assert.Same(t, first, doc)
	}
	assert.Equal(t, 1, r.Reads())
}

func TestResolveFrontmatter(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "markdown/10.1_a.md",
		"---\ntitle: \"Growth of Bacillus subtilis\"\npaper_id: \"10.1-a\"\n---\n\n# Results\n\nCells grew.\n")

	doc, err := NewResolver(dir).Resolve("10.1/a")
	require.NoError(t, err)
	assert.Equal(t, "Growth of Bacillus subtilis", doc.Title)
	assert.Equal(t, "# Results Cells grew.", doc.NormalizedText)
	assert.NotContains(t, doc.RawText, "paper_id")
}

func TestResolveMetadataText(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "metadata/10.1-a.yaml",
		"id: 10.1-a\ntitle: Buffer chemistry\nabstract: |\n  HEPES was used at 30 mM.\n")

	doc, err := NewResolver(dir).Resolve("10.1/a")
	require.NoError(t, err)
	assert.Equal(t, "Buffer chemistry", doc.Title)
	assert.Equal(t, "Buffer chemistry. HEPES was used at 30 mM.", doc.NormalizedText)
}

func TestResolveParseErrorIsReturned(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "metadata/10.1-a.yaml", "title: [unclosed\n")

	r := NewResolver(dir)
	_, err := r.Resolve("10.1/a")
	require.Error(t, err)

	writeDoc(t, dir, "metadata/10.1-a.yaml", "title: fixed\nabstract: ok\n")
	doc, err := r.Resolve("10.1/a")
	require.NoError(t, err, "failures are not cached")
	assert.Equal(t, "fixed", doc.Title)
}

func TestResolveCustomConventions(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "txt/a.txt", "plain")
	r := NewResolver(dir, WithConventions([]Convention{{
		Name: "txt",
		Kind: types.DocumentFullText,
		Path: func(doi string) string { return filepath.Join("txt", doi[len("10.1/"):]+".txt") },
	}}))
	doc, err := r.Resolve("10.1/a")
	require.NoError(t, err)
	assert.Equal(t, "plain", doc.RawText)
}
