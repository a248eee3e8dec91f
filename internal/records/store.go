// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package records reads evidence work from the tabular record store and
// writes organism and snippet results back in place. The store is a SQLite
// table with one row per entity; every column P with a sibling P_citation
// column is a property.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/evidence-engine/internal/documents"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Column suffixes for a property P.
const (
	CitationSuffix = "_citation"
	OrganismSuffix = "_organism"
	EvidenceSuffix = "_evidence"
	StatusSuffix   = "_evidence_status"
)

const backupsDir = "backups"

var (
	// ErrStoreLocked is returned when another process holds the store lock.
	ErrStoreLocked = errors.New("record store is locked by another writer")
	// ErrUnknownProperty is returned for a property with no citation column.
	ErrUnknownProperty = errors.New("unknown property")
	// ErrNoTable is returned when the records table does not exist.
	ErrNoTable = errors.New("records table not found")

	// ErrUnknownEntity is returned when a written cell matches no row.
	ErrUnknownEntity = errors.New("unknown entity")
)

// Store is an open record store. It holds an exclusive lock on the
// database for its lifetime.
type Store struct {
	db         *sql.DB
	path       string
	table      string
	key        string
	backupDir  string
	lock       *flock.Flock
	properties []string
	writes     int
}

// Open locks and opens the store described by cfg, discovers its
// properties, and adds any missing output columns.
func Open(ctx context.Context, cfg types.StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("store path is empty")
	}
	table, key := cfg.Table, cfg.KeyColumn
	if table == "" {
		table = types.DefaultTable
	}
	if key == "" {
		key = types.DefaultKeyColumn
	}
	backupDir := cfg.BackupDir
	if backupDir == "" {
		backupDir = filepath.Join(filepath.Dir(cfg.Path), backupsDir)
	}

	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("opening store %s: %w", cfg.Path, err)
	}

	lock := flock.New(cfg.Path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking store: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", cfg.Path, ErrStoreLocked)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_busy_timeout=5000")
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{
		db:        db,
		path:      cfg.Path,
		table:     table,
		key:       key,
		backupDir: backupDir,
		lock:      lock,
	}
	if err := s.prepareSchema(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database connection and the lock.
func (s *Store) Close() error {
	err := s.db.Close()
	if uerr := s.lock.Unlock(); uerr != nil && err == nil {
		err = uerr
	}
	return err
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Properties returns the discovered property names in column order.
func (s *Store) Properties() []string {
	out := make([]string, len(s.properties))
	copy(out, s.properties)
	return out
}

// Writes returns the number of cells written since Open.
func (s *Store) Writes() int { return s.writes }

func (s *Store) prepareSchema(ctx context.Context) error {
	cols, err := s.columns(ctx)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("%s: %w", s.table, ErrNoTable)
	}
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}
	if !have[s.key] {
		return fmt.Errorf("key column %q not found in %s", s.key, s.table)
	}

	for _, c := range cols {
		if isOutputColumn(c) || !have[c+CitationSuffix] {
			continue
		}
		s.properties = append(s.properties, c)
	}

	var statements []string
	for _, p := range s.properties {
		for _, suffix := range []string{OrganismSuffix, EvidenceSuffix, StatusSuffix} {
			if !have[p+suffix] {
				statements = append(statements,
					fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s TEXT`, quote(s.table), quote(p+suffix)))
			}
		}
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) columns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quote(s.table)))
	if err != nil {
		return nil, fmt.Errorf("reading table info: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scanning table info: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func isOutputColumn(c string) bool {
	for _, suffix := range []string{CitationSuffix, StatusSuffix, OrganismSuffix, EvidenceSuffix} {
		if strings.HasSuffix(c, suffix) {
			return true
		}
	}
	return false
}

// Cells returns the evidence cells for properties, or for every property
// when the list is empty. Rows with an empty value or no citation produce
// no cell. Cells are ordered by property, then by row order.
func (s *Store) Cells(ctx context.Context, properties []string) ([]types.EvidenceCell, error) {
	if len(properties) == 0 {
		properties = s.properties
	}
	for _, p := range properties {
		if !s.hasProperty(p) {
			return nil, fmt.Errorf("%q: %w", p, ErrUnknownProperty)
		}
	}

	var cells []types.EvidenceCell
	for _, p := range properties {
		pc, err := s.propertyCells(ctx, p)
		if err != nil {
			return nil, err
		}
		cells = append(cells, pc...)
	}
	return cells, nil
}

func (s *Store) propertyCells(ctx context.Context, p string) ([]types.EvidenceCell, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s FROM %s ORDER BY rowid`,
		quote(s.key), quote(p), quote(p+CitationSuffix),
		quote(p+OrganismSuffix), quote(p+EvidenceSuffix), quote(p+StatusSuffix),
		quote(s.table))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", p, err)
	}
	defer rows.Close()

	var cells []types.EvidenceCell
	for rows.Next() {
		var id, value, citation, organism, evidence, status sql.NullString
		if err := rows.Scan(&id, &value, &citation, &organism, &evidence, &status); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", p, err)
		}
		v := strings.TrimSpace(value.String)
		ids := documents.SplitIdentifiers(citation.String)
		if !id.Valid || v == "" || len(ids) == 0 {
			continue
		}
		cells = append(cells, types.EvidenceCell{
			EntityID:            id.String,
			Property:            p,
			Value:               v,
			CitationIdentifiers: ids,
			OrganismField:       organism.String,
			EvidenceSnippet:     evidence.String,
			Status:              types.ParseCellStatus(status.String),
		})
	}
	return cells, rows.Err()
}

func (s *Store) hasProperty(p string) bool {
	for _, q := range s.properties {
		if q == p {
			return true
		}
	}
	return false
}

// WriteCells writes the output columns of cells in one transaction.
func (s *Store) WriteCells(ctx context.Context, cells []types.EvidenceCell) error {
	if len(cells) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range cells {
		if !s.hasProperty(c.Property) {
			return fmt.Errorf("%q: %w", c.Property, ErrUnknownProperty)
		}
		// Keys are read back as text, so compare as text to match integer
		// keys in untyped columns.
		stmt := fmt.Sprintf(`UPDATE %s SET %s = ?, %s = ?, %s = ? WHERE CAST(%s AS TEXT) = ?`,
			quote(s.table),
			quote(c.Property+OrganismSuffix), quote(c.Property+EvidenceSuffix), quote(c.Property+StatusSuffix),
			quote(s.key))
		res, err := tx.ExecContext(ctx, stmt, c.OrganismField, c.EvidenceSnippet, string(c.Status), c.EntityID)
		if err != nil {
			return fmt.Errorf("updating %s: %w", c.Key(), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("updating %s: %w", c.Key(), err)
		}
		if n == 0 {
			return fmt.Errorf("updating %s: %q: %w", c.Key(), c.EntityID, ErrUnknownEntity)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	s.writes += len(cells)
	return nil
}

// Backup copies the database to a timestamped file in the backup directory
// and returns its path.
func (s *Store) Backup(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	stamp := time.Now().UTC().Format("20060102T150405Z")
	dest := filepath.Join(s.backupDir, fmt.Sprintf("%s-%s.db", base, stamp))
	for i := 1; fileExists(dest); i++ {
		dest = filepath.Join(s.backupDir, fmt.Sprintf("%s-%s-%d.db", base, stamp, i))
	}
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, dest); err != nil {
		return "", fmt.Errorf("backing up store: %w", err)
	}
	return dest, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// quote returns a SQLite identifier literal.
func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
