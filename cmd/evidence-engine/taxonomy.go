// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"

	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Inspect the taxonomic name index",
}

var taxonomyCheckCmd = &cobra.Command{
	Use:   "check <name>...",
	Short: "Validate organism names against the loaded authorities",
	Long: `Check loads the configured taxonomy sources and reports, for each name,
whether it validates, the canonical species it resolves to, the validation
basis and the confidence. Genera given with --context are preferred when an
abbreviation is ambiguous.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTaxonomyCheck,
}

var taxonomyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-source species and genus counts",
	RunE:  runTaxonomyStats,
}

type checkResult struct {
	Name       string  `json:"name"`
	Valid      bool    `json:"valid"`
	Canonical  string  `json:"canonical,omitempty"`
	Basis      string  `json:"basis,omitempty"`
	Confidence float64 `json:"confidence"`
}

func init() {
	taxonomyCheckCmd.Flags().StringSlice("context", nil, "genera preferred when an abbreviation is ambiguous")
	taxonomyCheckCmd.Flags().Bool("json", false, "output results as JSON")

	taxonomyCmd.AddCommand(taxonomyCheckCmd)
	taxonomyCmd.AddCommand(taxonomyStatsCmd)
	rootCmd.AddCommand(taxonomyCmd)
}

func loadIndex() (*taxonomy.Index, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = log.Sync() }()
	return taxonomy.Load(cfg.Taxonomy.Sources, log)
}

func runTaxonomyCheck(cmd *cobra.Command, args []string) error {
	index, err := loadIndex()
	if err != nil {
		return err
	}
	preferred, _ := cmd.Flags().GetStringSlice("context")

	results := make([]checkResult, 0, len(args))
	for _, name := range args {
		v := index.IsValidWithContext(name, preferred)
		results = append(results, checkResult{
			Name:       name,
			Valid:      v.Valid,
			Canonical:  v.Canonical,
			Basis:      string(v.Basis),
			Confidence: v.Confidence,
		})
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		valid := "no"
		if r.Valid {
			valid = "yes"
		}
		rows = append(rows, []string{r.Name, valid, r.Canonical, r.Basis, strconv.FormatFloat(r.Confidence, 'f', 2, 64)})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Name", "Valid", "Canonical", "Basis", "Confidence"}, rows, 4))
	return nil
}

func runTaxonomyStats(cmd *cobra.Command, args []string) error {
	index, err := loadIndex()
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(index.Sources())+1)
	for _, src := range index.Sources() {
		rows = append(rows, []string{
			src.Name,
			string(src.Format),
			strconv.Itoa(src.Priority),
			strconv.Itoa(src.SpeciesCount),
			strconv.Itoa(src.GenusCount),
			strconv.Itoa(src.Malformed),
		})
	}
	rows = append(rows, []string{"total", "", "", strconv.Itoa(index.SpeciesCount()), strconv.Itoa(index.GenusCount()), ""})
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Source", "Format", "Priority", "Species", "Genera", "Malformed"}, rows, 2, 3, 4, 5))
	return nil
}
