// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package taxonomy

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/pgzip"
	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// ErrNoTaxonomy is returned when no source loads any species. An empty index
// would reject every candidate, so startup must abort instead.
var ErrNoTaxonomy = errors.New("no taxonomy source loaded any species")

// maxLineBytes bounds a single source row.
const maxLineBytes = 1 << 20

// Load reads every source in ascending Priority order and merges them into
// one Index. A source that cannot be opened or read is logged and skipped;
// malformed rows are counted per source. Load fails with ErrNoTaxonomy when
// nothing usable was loaded.
func Load(sources []types.TaxonomySource, log *zap.Logger) (*Index, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ordered := make([]types.TaxonomySource, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	b := NewBuilder()
	var loaded []types.TaxonomySource
	for _, src := range ordered {
		stats, err := loadSource(b, src)
		if err != nil {
			log.Error("taxonomy source failed",
				zap.String("source", src.Name), zap.String("path", src.Path), zap.Error(err))
			continue
		}
		if stats.Malformed > 0 {
			log.Warn("taxonomy source has malformed rows",
				zap.String("source", src.Name), zap.Int("malformed", stats.Malformed))
		}
		log.Info("taxonomy source loaded",
			zap.String("source", stats.Name),
			zap.Int("species", stats.SpeciesCount),
			zap.Int("genera", stats.GenusCount))
		if stats.SpeciesCount > 0 {
			loaded = append(loaded, stats)
		}
	}

	ix := b.Index()
	ix.sources = loaded
	if len(loaded) == 0 || ix.SpeciesCount() == 0 {
		return nil, ErrNoTaxonomy
	}
	return ix, nil
}

// loadSource reads one file completely before merging its rows into b, and
// returns the source with its statistics filled in. A source that fails
// partway contributes nothing.
func loadSource(b *Builder, src types.TaxonomySource) (types.TaxonomySource, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return src, fmt.Errorf("opening %s: %w", src.Path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(src.Path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return src, fmt.Errorf("opening gzip %s: %w", src.Path, err)
		}
		defer gz.Close()
		r = gz
	}

	genera := make(set)
	species := make(set)
	accept := func(genus, epithet string, ok bool) {
		if !ok {
			src.Malformed++
			return
		}
		genera[genus] = struct{}{}
		species[genus+" "+epithet] = struct{}{}
	}

	stage := &staging{}
	if err := readRows(r, src, stage, accept); err != nil {
		return src, fmt.Errorf("reading %s: %w", src.Path, err)
	}
	stage.mergeInto(b)
	src.SpeciesCount = len(species)
	src.GenusCount = len(genera)
	return src, nil
}

// readRows dispatches on the source format and feeds each row to b.
func readRows(r io.Reader, src types.TaxonomySource, b rowSink, accept func(genus, epithet string, ok bool)) error {
	switch src.Format {
	case types.FormatCSV:
		return readCSV(r, src, b, accept)
	case types.FormatTSV, "":
		return readDelimited(r, src, "\t", b, accept)
	case types.FormatPSV:
		return readDelimited(r, src, "|", b, accept)
	case types.FormatNames:
		return readNames(r, src, b, accept)
	default:
		return fmt.Errorf("unsupported taxonomy format %q", src.Format)
	}
}

func readDelimited(r io.Reader, src types.TaxonomySource, sep string, b rowSink, accept func(string, string, bool)) error {
	gc, ec := columns(src)
	first := true
	return readLines(r, func(line string) {
		if first && src.HasHeader {
			first = false
			return
		}
		first = false
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			return
		}
		addRow(b, strings.Split(line, sep), gc, ec, accept)
	}, func() { accept("", "", false) })
}

// readLines calls fn for every line of r without its line terminator. A line
// longer than maxLineBytes is skipped and reported through tooLong.
func readLines(r io.Reader, fn func(line string), tooLong func()) error {
	br := bufio.NewReaderSize(r, maxLineBytes)
	for {
		line, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			for errors.Is(err, bufio.ErrBufferFull) {
				_, err = br.ReadSlice('\n')
			}
			tooLong()
		} else if len(line) > 0 {
			fn(strings.TrimRight(string(line), "\r\n"))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func readCSV(r io.Reader, src types.TaxonomySource, b rowSink, accept func(string, string, bool)) error {
	gc, ec := columns(src)
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				accept("", "", false)
				continue
			}
			return err
		}
		if first && src.HasHeader {
			first = false
			continue
		}
		first = false
		addRow(b, rec, gc, ec, accept)
	}
}

func readNames(r io.Reader, src types.TaxonomySource, b rowSink, accept func(string, string, bool)) error {
	first := true
	return readLines(r, func(line string) {
		if first && src.HasHeader {
			first = false
			return
		}
		first = false
		if src.NameColumn > 0 {
			cols := strings.Split(line, "\t")
			if src.NameColumn >= len(cols) {
				accept("", "", false)
				return
			}
			line = cols[src.NameColumn]
		}
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			return
		}
		if !b.AddName(line) {
			accept("", "", false)
			return
		}
		fields := strings.Fields(line)
		genus, epithet := fields[0], fields[1]
		if genus == "Candidatus" && len(fields) > 2 {
			genus, epithet = fields[1], fields[2]
		}
		accept(strings.Trim(genus, "[]'\""), epithet, true)
	}, func() { accept("", "", false) })
}

func addRow(b rowSink, cols []string, gc, ec int, accept func(string, string, bool)) {
	if gc >= len(cols) || ec >= len(cols) {
		accept("", "", false)
		return
	}
	genus := strings.TrimSpace(cols[gc])
	epithet := strings.TrimSpace(cols[ec])
	if !b.Add(genus, epithet) {
		accept("", "", false)
		return
	}
	fields := strings.Fields(epithet)
	accept(strings.Trim(genus, "[]'\""), fields[0], true)
}

func columns(src types.TaxonomySource) (genus, epithet int) {
	genus, epithet = src.GenusColumn, src.EpithetColumn
	if genus == 0 && epithet == 0 {
		epithet = 1
	}
	return genus, epithet
}
