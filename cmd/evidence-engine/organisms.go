// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"

	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/documents"
	"github.com/pdiddy/evidence-engine/internal/organism"
	"github.com/pdiddy/evidence-engine/internal/taxonomy"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var organismsCmd = &cobra.Command{
	Use:   "organisms <doi>",
	Short: "List validated organisms in one cached paper",
	Long: `Organisms resolves a DOI against the paper cache and lists every
organism name in its text that validates against the taxonomy, with the
number of occurrences and the validation basis.`,
	Args: cobra.ExactArgs(1),
	RunE: runOrganisms,
}

var organismsKeys = map[string]string{
	"papers-dir": "documents.papers_dir",
}

func init() {
	organismsCmd.Flags().String("papers-dir", "", "base directory for cached papers (default papers)")
	organismsCmd.Flags().Bool("infer-from-title", false, "fall back to a single organism named in the title")
	organismsCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(organismsCmd)
}

func runOrganisms(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, organismsKeys); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	index, err := taxonomy.Load(cfg.Taxonomy.Sources, log)
	if err != nil {
		return err
	}

	resolver := documents.NewResolver(cfg.Documents.PapersDir, documents.WithLogger(log))
	doc, err := resolver.Resolve(args[0])
	if err != nil {
		return err
	}
	if doc.Missing() {
		return fmt.Errorf("no cached document for %s under %s", args[0], cfg.Documents.PapersDir)
	}

	extractor := organism.NewExtractor(index)
	var mentions []types.OrganismMention
	if infer, _ := cmd.Flags().GetBool("infer-from-title"); infer {
		mentions = extractor.ExtractWithHint(doc.NormalizedText, doc.Title)
	} else {
		mentions = extractor.Extract(doc.NormalizedText)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Document  *types.CachedDocument   `json:"document"`
			Organisms []types.OrganismMention `json:"organisms"`
		}{doc, mentions})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s) %s\n", doc.Identifier, doc.Kind, doc.Path)
	if doc.Title != "" {
		fmt.Fprintf(out, "Title: %s\n", doc.Title)
	}
	if len(mentions) == 0 {
		fmt.Fprintln(out, "No organisms found.")
		return nil
	}
	rows := make([][]string, 0, len(mentions))
	for _, m := range organism.TopByOccurrence(mentions, len(mentions)) {
		rows = append(rows, []string{
			m.NormalizedName,
			m.RawSpan,
			string(m.Basis),
			strconv.FormatFloat(m.Confidence, 'f', 2, 64),
			strconv.Itoa(m.Occurrences),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Organism", "First span", "Basis", "Confidence", "Occurrences"}, rows, 3, 4))
	return nil
}
