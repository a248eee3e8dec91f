// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package records

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// --- test helpers ---

func seedStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "media.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE ingredients (
			id TEXT PRIMARY KEY,
			name TEXT,
			ph REAL,
			ph_citation TEXT,
			solubility TEXT,
			solubility_citation TEXT,
			notes TEXT
		)`,
		`INSERT INTO ingredients VALUES ('glc', 'glucose', 7.0, '10.1/a', '909 g/L', '10.1/b; doi:10.1/c', 'x')`,
		`INSERT INTO ingredients VALUES ('hepes', 'HEPES', NULL, '10.1/d', '30 mM', '', NULL)`,
		`INSERT INTO ingredients VALUES ('nacl', 'NaCl', 6.5, NULL, '', NULL, NULL)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(context.Background(), types.StoreConfig{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// --- schema ---

func TestOpenDiscoversProperties(t *testing.T) {
	s := openStore(t, seedStore(t))
	assert.Equal(t, []string{"ph", "solubility"}, s.Properties())

	cols, err := s.columns(context.Background())
	require.NoError(t, err)
	for _, c := range []string{"ph_organism", "ph_evidence", "ph_evidence_status", "solubility_organism", "solubility_evidence", "solubility_evidence_status"} {
		assert.Contains(t, cols, c)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := seedStore(t)
	s := openStore(t, path)
	require.NoError(t, s.Close())

	s2, err := Open(context.Background(), types.StoreConfig{Path: path})
	require.NoError(t, err)
	defer s2.Close()
	assert.Equal(t, []string{"ph", "solubility"}, s2.Properties())
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, types.StoreConfig{Path: filepath.Join(t.TempDir(), "none.db")})
	assert.Error(t, err)

	path := seedStore(t)
	_, err = Open(ctx, types.StoreConfig{Path: path, Table: "nope"})
	assert.ErrorIs(t, err, ErrNoTable)

	_, err = Open(ctx, types.StoreConfig{Path: path, KeyColumn: "missing"})
	assert.Error(t, err)
}

func TestOpenLocked(t *testing.T) {
	path := seedStore(t)
	openStore(t, path)

	_, err := Open(context.Background(), types.StoreConfig{Path: path})
	assert.ErrorIs(t, err, ErrStoreLocked)
}

// --- cells ---

func TestCells(t *testing.T) {
	s := openStore(t, seedStore(t))
	cells, err := s.Cells(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, cells, 2)

	assert.Equal(t, "glc", cells[0].EntityID)
	assert.Equal(t, "ph", cells[0].Property)
	assert.Equal(t, "7", cells[0].Value)
	assert.Equal(t, []string{"10.1/a"}, cells[0].CitationIdentifiers)
	assert.Equal(t, types.StatusPending, cells[0].Status)

	assert.Equal(t, "solubility", cells[1].Property)
	assert.Equal(t, "909 g/L", cells[1].Value)
	assert.Equal(t, []string{"10.1/b", "10.1/c"}, cells[1].CitationIdentifiers)
}

func TestCellsUnknownProperty(t *testing.T) {
	s := openStore(t, seedStore(t))
	_, err := s.Cells(context.Background(), []string{"name"})
	assert.ErrorIs(t, err, ErrUnknownProperty)
}

func TestWriteCells(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, seedStore(t))

	err := s.WriteCells(ctx, []types.EvidenceCell{{
		EntityID:        "glc",
		Property:        "ph",
		OrganismField:   "Escherichia coli",
		EvidenceSnippet: "grown at pH 7.0",
		Status:          types.StatusExtracted,
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Writes())

	cells, err := s.Cells(ctx, []string{"ph"})
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, "Escherichia coli", cells[0].OrganismField)
	assert.Equal(t, "grown at pH 7.0", cells[0].EvidenceSnippet)
	assert.Equal(t, types.StatusExtracted, cells[0].Status)

	assert.NoError(t, s.WriteCells(ctx, nil))
	assert.Equal(t, 1, s.Writes())

	err = s.WriteCells(ctx, []types.EvidenceCell{{EntityID: "glc", Property: "name"}})
	assert.ErrorIs(t, err, ErrUnknownProperty)
	assert.Equal(t, 1, s.Writes())
}

func TestWriteCellsUntypedIntegerKey(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "untyped.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	for _, stmt := range []string{
		`CREATE TABLE ingredients (id, ph, ph_citation)`,
		`INSERT INTO ingredients VALUES (1, '7.0', '10.1/a')`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	s := openStore(t, path)
	cells, err := s.Cells(ctx, nil)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	require.Equal(t, "1", cells[0].EntityID)

	cell := cells[0]
	cell.EvidenceSnippet = "pH 7.0"
	cell.Status = types.StatusExtracted
	require.NoError(t, s.WriteCells(ctx, []types.EvidenceCell{cell}))

	cells, err = s.Cells(ctx, nil)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, types.StatusExtracted, cells[0].Status)
	assert.Equal(t, "pH 7.0", cells[0].EvidenceSnippet)
}

func TestWriteCellsUnknownEntity(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, seedStore(t))

	err := s.WriteCells(ctx, []types.EvidenceCell{
		{EntityID: "glc", Property: "ph", Status: types.StatusExtracted},
		{EntityID: "missing", Property: "ph", Status: types.StatusExtracted},
	})
	assert.ErrorIs(t, err, ErrUnknownEntity)
	assert.Equal(t, 0, s.Writes())

	cells, err := s.Cells(ctx, []string{"ph"})
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, types.StatusPending, cells[0].Status)
}

func TestBackup(t *testing.T) {
	ctx := context.Background()
	path := seedStore(t)
	s := openStore(t, path)

	first, err := s.Backup(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "backups"), filepath.Dir(first))

	second, err := s.Backup(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	db, err := sql.Open("sqlite3", first)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM ingredients`).Scan(&n))
	assert.Equal(t, 3, n)

	_, err = os.Stat(second)
	assert.NoError(t, err)
}

// --- export ---

func TestExport(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, seedStore(t))
	require.NoError(t, s.WriteCells(ctx, []types.EvidenceCell{
		{EntityID: "glc", Property: "ph", OrganismField: "Escherichia coli", EvidenceSnippet: "pH 7.0", Status: types.StatusExtracted},
		{EntityID: "glc", Property: "solubility", Status: types.StatusNoDocument},
	}))

	var buf bytes.Buffer
	require.NoError(t, s.Export(ctx, &buf, "yaml", ExportOptions{}))
	var entries []ExportEntry
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "Escherichia coli", entries[0].Organism)

	buf.Reset()
	require.NoError(t, s.Export(ctx, &buf, "json", ExportOptions{Status: types.StatusNoDocument}))
	entries = nil
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "solubility", entries[0].Property)
	assert.Equal(t, []string{"10.1/b", "10.1/c"}, entries[0].Citations)

	assert.Error(t, s.Export(ctx, &buf, "xml", ExportOptions{}))
}
