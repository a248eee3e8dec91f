// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package records

import (
	"context"
	"fmt"
	"io"

	"github.com/segmentio/encoding/json"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// ExportEntry is one evidence cell as written by Export.
type ExportEntry struct {
	EntityID  string           `json:"entity_id" yaml:"entity_id"`
	Property  string           `json:"property" yaml:"property"`
	Value     string           `json:"value" yaml:"value"`
	Citations []string         `json:"citations" yaml:"citations"`
	Organism  string           `json:"organism" yaml:"organism"`
	Evidence  string           `json:"evidence" yaml:"evidence"`
	Status    types.CellStatus `json:"status" yaml:"status"`
}

// ExportOptions filters exported cells.
type ExportOptions struct {
	// Properties limits the export; empty means all properties.
	Properties []string
	// Status limits the export to one status; empty means every terminal
	// status.
	Status types.CellStatus
}

// Export writes evidence cells to w as "yaml" or "json".
func (s *Store) Export(ctx context.Context, w io.Writer, format string, opts ExportOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case "yaml", "":
		data, err = yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
	case "json":
		data, err = json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		data = append(data, '\n')
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
	_, err = w.Write(data)
	return err
}

func (s *Store) exportEntries(ctx context.Context, opts ExportOptions) ([]ExportEntry, error) {
	cells, err := s.Cells(ctx, opts.Properties)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	entries := make([]ExportEntry, 0, len(cells))
	for _, c := range cells {
		if opts.Status != "" && c.Status != opts.Status {
			continue
		}
		if opts.Status == "" && !c.Status.Terminal() {
			continue
		}
		entries = append(entries, ExportEntry{
			EntityID:  c.EntityID,
			Property:  c.Property,
			Value:     c.Value,
			Citations: c.CitationIdentifiers,
			Organism:  c.OrganismField,
			Evidence:  c.EvidenceSnippet,
			Status:    c.Status,
		})
	}
	return entries, nil
}
