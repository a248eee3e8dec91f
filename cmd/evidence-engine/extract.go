// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/documents"
	"github.com/pdiddy/evidence-engine/internal/evidence"
	"github.com/pdiddy/evidence-engine/internal/metrics"
	"github.com/pdiddy/evidence-engine/internal/organism"
	"github.com/pdiddy/evidence-engine/internal/records"
	"github.com/pdiddy/evidence-engine/internal/taxonomy"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Fill organism and evidence columns in the record store",
	Long: `Extract walks every (entity, property) cell that has a value and
citations, resolves the cited papers from the local cache, and writes the
validated organisms, a supporting snippet and a status back to the store.

The store is backed up before the first write and checkpointed every
--checkpoint cells. With --resume (the default) cells that already carry a
final status are skipped, so an interrupted run can simply be restarted.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("db", "", "SQLite record store")
	extractCmd.Flags().String("table", "", "records table (default ingredients)")
	extractCmd.Flags().String("papers-dir", "", "base directory for cached papers (default papers)")
	extractCmd.Flags().Int("checkpoint", 0, "cells between store writes (default 5)")
	extractCmd.Flags().Int("max-chars", 0, "snippet character budget (default 200)")
	extractCmd.Flags().Int("max-organisms", 0, "document-level organisms kept when the snippet names none (default 3)")
	extractCmd.Flags().StringSlice("property", nil, "restrict to these properties (repeatable)")
	extractCmd.Flags().String("run-dir", "", "directory for the per-run JSONL cell log")
	extractCmd.Flags().Bool("infer-from-title", false, "infer a single organism from the paper title when the text names none")
	extractCmd.Flags().Bool("resume", true, "skip cells that already have a final status")
	extractCmd.Flags().Bool("retry-errors", false, "reprocess cells in status error when resuming")
	extractCmd.Flags().String("metrics-file", "", "write run metrics in Prometheus text format to this file")
	extractCmd.Flags().String("run-id", "", "label for this run (default random UUID)")
	extractCmd.Flags().Bool("quiet", false, "suppress per-cell progress lines")

	rootCmd.AddCommand(extractCmd)
}

// extractKeys maps extract flags to config keys.
var extractKeys = map[string]string{
	"db":               "store.path",
	"table":            "store.table",
	"papers-dir":       "documents.papers_dir",
	"checkpoint":       "evidence.checkpoint_interval",
	"max-chars":        "evidence.max_snippet_chars",
	"max-organisms":    "evidence.max_organisms",
	"property":         "evidence.properties",
	"run-dir":          "evidence.run_dir",
	"infer-from-title": "evidence.infer_from_title",
}

// bindFlags binds each flag of cmd to its viper key. Several commands share
// keys, so binding happens when a command runs rather than in init.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, extractKeys); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Path == "" {
		return fmt.Errorf("no record store: set --db or store.path")
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := metrics.New()

	index, err := taxonomy.Load(cfg.Taxonomy.Sources, log)
	if err != nil {
		return err
	}
	rec.SetSpecies(index.SpeciesCount())

	store, err := records.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	runID, _ := cmd.Flags().GetString("run-id")
	var runLog *evidence.RunLog
	if cfg.Evidence.RunDir != "" {
		var path string
		if runID == "" {
			runID = uuid.NewString()
		}
		runLog, path, err = evidence.CreateRunLog(cfg.Evidence.RunDir, runID)
		if err != nil {
			return err
		}
		defer runLog.Close()
		log.Info("run log created", zap.String("path", path))
	}

	progress := cmd.OutOrStdout()
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		progress = nil
	}

	orch := evidence.New(evidence.Config{
		Resolver:        documents.NewResolver(cfg.Documents.PapersDir, documents.WithLogger(log)),
		Extractor:       organism.NewExtractor(index),
		Store:           store,
		Logger:          log,
		Metrics:         rec,
		Progress:        progress,
		RunLog:          runLog,
		MaxSnippetChars: cfg.Evidence.MaxSnippetChars,
		MaxOrganisms:    cfg.Evidence.MaxOrganisms,
		InferFromTitle:  cfg.Evidence.InferFromTitle,
	})

	resume, _ := cmd.Flags().GetBool("resume")
	retry, _ := cmd.Flags().GetBool("retry-errors")
	run, runErr := orch.RunStore(ctx, evidence.RunOptions{
		RunID:              runID,
		CheckpointInterval: cfg.Evidence.CheckpointInterval,
		Resume:             resume,
		RetryErrors:        retry,
		Properties:         cfg.Evidence.Properties,
	})

	if metricsFile, _ := cmd.Flags().GetString("metrics-file"); metricsFile != "" {
		if err := rec.WriteFile(metricsFile); err != nil {
			log.Warn("writing metrics failed", zap.String("path", metricsFile), zap.Error(err))
		}
	}

	if run != nil {
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), summaryTable(run))
		if run.BackupPath != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Backup: %s\n", run.BackupPath)
		}
	}
	if runErr != nil {
		return runErr
	}
	if run.HasErrors() {
		return fmt.Errorf("%d of %d cells failed", run.Count(types.StatusError), run.ProcessedCount)
	}
	return nil
}

func summaryTable(run *types.ExtractionRun) string {
	statuses := []types.CellStatus{
		types.StatusExtracted,
		types.StatusNoDocument,
		types.StatusNoValueFound,
		types.StatusError,
	}
	rows := make([][]string, 0, len(statuses)+3)
	for _, st := range statuses {
		rows = append(rows, []string{string(st), strconv.Itoa(run.Count(st))})
	}
	rows = append(rows,
		[]string{"skipped", strconv.Itoa(run.Skipped)},
		[]string{"processed", strconv.Itoa(run.ProcessedCount)},
		[]string{"checkpoints", strconv.Itoa(run.Checkpoints)},
	)
	return renderTable([]string{"Status", "Cells"}, rows, 1)
}
