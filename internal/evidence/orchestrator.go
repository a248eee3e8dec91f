// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evidence drives extraction over evidence cells: resolve each
// citation, find organisms, locate a supporting snippet and write the result
// back to the record store with periodic checkpoints.
package evidence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/metrics"
	"github.com/pdiddy/evidence-engine/internal/organism"
	"github.com/pdiddy/evidence-engine/internal/snippet"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Resolver returns the cached document for a citation identifier.
type Resolver interface {
	Resolve(identifier string) (*types.CachedDocument, error)
}

// Store is the record store the orchestrator reads work from and writes
// results to. *records.Store satisfies it.
type Store interface {
	Cells(ctx context.Context, properties []string) ([]types.EvidenceCell, error)
	WriteCells(ctx context.Context, cells []types.EvidenceCell) error
	Backup(ctx context.Context) (string, error)
}

// Config wires an Orchestrator.
type Config struct {
	Resolver  Resolver
	Extractor *organism.Extractor
	Store     Store

	// Logger receives diagnostics; nil discards them.
	Logger *zap.Logger
	// Metrics counts outcomes; nil discards them.
	Metrics *metrics.Recorder
	// Progress receives one status line per cell; nil discards them.
	Progress io.Writer
	// RunLog receives one JSON line per cell; nil discards them.
	RunLog *RunLog

	MaxSnippetChars int
	MaxOrganisms    int
	InferFromTitle  bool
}

// RunOptions controls one invocation of Run.
type RunOptions struct {
	// RunID labels the run; a random UUID is used when empty.
	RunID string
	// CheckpointInterval is the number of processed cells between store
	// writes. Zero or less uses the default.
	CheckpointInterval int
	// Resume skips cells already in a terminal status.
	Resume bool
	// RetryErrors reprocesses cells in status error when resuming.
	RetryErrors bool
	// Properties restricts RunStore to the named properties.
	Properties []string
}

// Orchestrator processes evidence cells sequentially.
type Orchestrator struct {
	cfg Config
	log *zap.Logger
}

// New returns an Orchestrator for cfg.
func New(cfg Config) *Orchestrator {
	if cfg.MaxSnippetChars <= 0 {
		cfg.MaxSnippetChars = types.DefaultMaxSnippetChars
	}
	if cfg.MaxOrganisms <= 0 {
		cfg.MaxOrganisms = types.DefaultMaxOrganisms
	}
	if cfg.Progress == nil {
		cfg.Progress = io.Discard
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{cfg: cfg, log: log}
}

// RunStore loads cells from the store and runs them.
func (o *Orchestrator) RunStore(ctx context.Context, opts RunOptions) (*types.ExtractionRun, error) {
	cells, err := o.cfg.Store.Cells(ctx, opts.Properties)
	if err != nil {
		return nil, fmt.Errorf("loading cells: %w", err)
	}
	return o.Run(ctx, cells, opts)
}

// Run processes cells and writes results to the store every
// CheckpointInterval cells and at the end. A backup of the store is taken
// before the first write; a run that writes nothing takes no backup.
// Per-cell failures are recorded as status error and do not stop the run.
// The returned error is non-nil only when the store cannot be backed up or
// written, or ctx is cancelled; the run state up to that point is returned
// with it.
func (o *Orchestrator) Run(ctx context.Context, cells []types.EvidenceCell, opts RunOptions) (*types.ExtractionRun, error) {
	interval := opts.CheckpointInterval
	if interval <= 0 {
		interval = types.DefaultCheckpointInterval
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	run := &types.ExtractionRun{
		RunID:              runID,
		StartedAt:          time.Now().UTC(),
		CheckpointInterval: interval,
	}
	log := o.log.With(zap.String("run_id", runID))

	var dirty []types.EvidenceCell
	flush := func() error {
		if len(dirty) == 0 {
			return nil
		}
		if run.BackupPath == "" {
			path, err := o.cfg.Store.Backup(ctx)
			if err != nil {
				return fmt.Errorf("backing up store before first write: %w", err)
			}
			run.BackupPath = path
			log.Info("store backed up", zap.String("path", path))
		}
		if err := o.cfg.Store.WriteCells(ctx, dirty); err != nil {
			return fmt.Errorf("writing checkpoint: %w", err)
		}
		run.Checkpoints++
		log.Debug("checkpoint written", zap.Int("cells", len(dirty)), zap.Int("processed", run.ProcessedCount))
		dirty = dirty[:0]
		return nil
	}

	for _, cell := range cells {
		if skip(cell, opts) {
			run.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			if ferr := flush(); ferr != nil {
				return run, errors.Join(err, ferr)
			}
			return run, err
		}

		updated, res := o.processCell(cell)
		dirty = append(dirty, updated)
		run.Log = append(run.Log, res)
		run.ProcessedCount++
		o.record(log, res)

		if run.ProcessedCount%interval == 0 {
			if err := flush(); err != nil {
				return run, err
			}
		}
	}
	if err := flush(); err != nil {
		return run, err
	}

	log.Info("extraction run complete",
		zap.Int("processed", run.ProcessedCount),
		zap.Int("skipped", run.Skipped),
		zap.Int("extracted", run.Count(types.StatusExtracted)),
		zap.Int("no_document", run.Count(types.StatusNoDocument)),
		zap.Int("no_value_found", run.Count(types.StatusNoValueFound)),
		zap.Int("error", run.Count(types.StatusError)),
		zap.Int("checkpoints", run.Checkpoints))
	return run, nil
}

func skip(cell types.EvidenceCell, opts RunOptions) bool {
	if !opts.Resume || !cell.Status.Terminal() {
		return false
	}
	return !(opts.RetryErrors && cell.Status == types.StatusError)
}

func (o *Orchestrator) record(log *zap.Logger, res types.CellResult) {
	fmt.Fprintf(o.cfg.Progress, "%-14s %s/%s", res.Status, res.EntityID, res.Property)
	if res.Identifier != "" {
		fmt.Fprintf(o.cfg.Progress, " (%s)", res.Identifier)
	}
	if res.Error != "" {
		fmt.Fprintf(o.cfg.Progress, ": %s", res.Error)
	}
	fmt.Fprintln(o.cfg.Progress)

	o.cfg.Metrics.ObserveCell(res)
	if o.cfg.RunLog != nil {
		if err := o.cfg.RunLog.Write(res); err != nil {
			log.Warn("run log write failed", zap.Error(err))
		}
	}
}

// processCell runs one cell to a terminal status. Errors and panics become
// status error.
func (o *Orchestrator) processCell(cell types.EvidenceCell) (out types.EvidenceCell, res types.CellResult) {
	start := time.Now()
	out = cell
	res = types.CellResult{EntityID: cell.EntityID, Property: cell.Property}

	outcome, err := o.safeEvaluate(cell)
	if err != nil {
		outcome = cellOutcome{status: types.StatusError, identifier: outcome.identifier}
		res.Error = err.Error()
		o.log.Error("cell failed",
			zap.String("entity", cell.EntityID),
			zap.String("property", cell.Property),
			zap.String("identifier", outcome.identifier),
			zap.Error(err))
	}

	out.Status = outcome.status
	out.OrganismField = outcome.organisms
	out.EvidenceSnippet = outcome.snippet

	res.Status = outcome.status
	res.Identifier = outcome.identifier
	res.Organisms = outcome.organisms
	res.Snippet = outcome.snippet
	res.Duration = time.Since(start)
	return out, res
}

type cellOutcome struct {
	status     types.CellStatus
	identifier string
	organisms  string
	snippet    string
}

func (o *Orchestrator) safeEvaluate(cell types.EvidenceCell) (outcome cellOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Debug("cell panic", zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return o.evaluate(cell, &outcome)
}

// evaluate tries each citation in order. The first document whose text
// contains the value decides the cell. outcome.identifier tracks the
// citation being processed so failures can be attributed.
func (o *Orchestrator) evaluate(cell types.EvidenceCell, outcome *cellOutcome) (cellOutcome, error) {
	if len(cell.CitationIdentifiers) > 0 {
		outcome.identifier = cell.CitationIdentifiers[0]
	}
	found := false
	for _, id := range cell.CitationIdentifiers {
		outcome.identifier = id
		doc, err := o.cfg.Resolver.Resolve(id)
		if err != nil {
			return *outcome, fmt.Errorf("resolving %s: %w", id, err)
		}
		o.cfg.Metrics.ObserveDocument(doc.Kind)
		if doc.Missing() {
			continue
		}
		found = true

		var mentions []types.OrganismMention
		if o.cfg.InferFromTitle {
			mentions = o.cfg.Extractor.ExtractWithHint(doc.NormalizedText, doc.Title)
		} else {
			mentions = o.cfg.Extractor.Extract(doc.NormalizedText)
		}

		loc, ok := snippet.LocateAny(doc.RawText, cell.Value, names(mentions), o.cfg.MaxSnippetChars)
		if !ok || loc.Snippet == "" {
			continue
		}

		organisms := o.cfg.Extractor.ExtractContext(loc.Snippet, organism.Genera(mentions))
		if len(organisms) == 0 {
			organisms = mentions
		}
		organisms = organism.TopByOccurrence(organisms, o.cfg.MaxOrganisms)

		return cellOutcome{
			status:     types.StatusExtracted,
			identifier: id,
			organisms:  organism.Names(organisms),
			snippet:    loc.Snippet,
		}, nil
	}

	if !found {
		return cellOutcome{status: types.StatusNoDocument, identifier: outcome.identifier}, nil
	}
	return cellOutcome{status: types.StatusNoValueFound, identifier: outcome.identifier}, nil
}

func names(mentions []types.OrganismMention) []string {
	out := make([]string, len(mentions))
	for i, m := range mentions {
		out[i] = m.NormalizedName
	}
	return out
}
