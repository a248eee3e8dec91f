// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/records"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export evidence cells to YAML or JSON",
	Long: `Export writes the evidence cells of the record store to stdout or
--output as YAML or JSON. By default every cell with a final status is
written; --status and --property narrow the export.`,
	RunE: runExport,
}

var exportKeys = map[string]string{
	"db":    "store.path",
	"table": "store.table",
}

func init() {
	exportCmd.Flags().String("db", "", "SQLite record store")
	exportCmd.Flags().String("table", "", "records table (default ingredients)")
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	exportCmd.Flags().String("output", "", "write to this file instead of stdout")
	exportCmd.Flags().String("status", "", "only cells with this status")
	exportCmd.Flags().StringSlice("property", nil, "only these properties (repeatable)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, exportKeys); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Path == "" {
		return fmt.Errorf("no record store: set --db or store.path")
	}

	format, _ := cmd.Flags().GetString("format")
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	statusFlag, _ := cmd.Flags().GetString("status")
	status, err := parseStatusFilter(statusFlag)
	if err != nil {
		return err
	}
	props, _ := cmd.Flags().GetStringSlice("property")

	ctx := context.Background()
	store, err := records.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	output, _ := cmd.Flags().GetString("output")
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		out = f
	}

	opts := records.ExportOptions{Properties: props, Status: status}
	if err := store.Export(ctx, out, format, opts); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", output)
	}
	return nil
}

// parseStatusFilter accepts an empty filter or one of the cell statuses.
func parseStatusFilter(s string) (types.CellStatus, error) {
	if s == "" {
		return "", nil
	}
	st := types.CellStatus(strings.ToLower(strings.TrimSpace(s)))
	if st == types.StatusPending || st.Terminal() {
		return st, nil
	}
	return "", fmt.Errorf("unsupported status %q: use pending, extracted, no_document, no_value_found or error", s)
}
