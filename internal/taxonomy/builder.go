// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package taxonomy

import (
	"regexp"
	"strings"

	"github.com/pdiddy/evidence-engine/internal/textnorm"
)

var (
	genusRe   = regexp.MustCompile(`^[A-Z][a-z]+$`)
	epithetRe = regexp.MustCompile(`^[a-z][a-z-]+$`)
)

// infraspecificMarkers are kept as part of a species key when a source row
// carries them; any other trailing text (authorship, years) is dropped.
var infraspecificMarkers = map[string]bool{
	"subsp.":  true,
	"ssp.":    true,
	"var.":    true,
	"serovar": true,
	"pv.":     true,
	"bv.":     true,
	"f.":      true,
}

// Builder accumulates names into an Index. Rows are merged additively; a
// Builder is not safe for concurrent use.
type Builder struct {
	ix  *Index
	seq int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{ix: newIndex()}
}

// AddName adds a full scientific name ("Genus epithet [infraspecific]").
// It returns false for rows that are not binomials or whose first token is
// not a capitalized genus; such rows are malformed and ignored.
func (b *Builder) AddName(name string) bool {
	tokens := strings.Fields(textnorm.Name(name))
	if len(tokens) < 2 {
		return false
	}
	return b.add(tokens[0], tokens[1:])
}

// Add adds a genus with its epithet cell (which may carry infraspecific
// ranks after the epithet).
func (b *Builder) Add(genus, epithet string) bool {
	tokens := strings.Fields(textnorm.Name(epithet))
	if len(tokens) == 0 {
		return false
	}
	return b.add(textnorm.Name(genus), tokens)
}

func (b *Builder) add(genus string, rest []string) bool {
	genus, rest, ok := normalizeRow(genus, rest)
	if !ok {
		return false
	}
	b.insert(genus, rest)
	return true
}

// normalizeRow returns the genus and name tokens a row contributes, or false
// when the row is not a binomial with a capitalized genus.
func normalizeRow(genus string, rest []string) (string, []string, bool) {
	if len(rest) == 0 {
		return "", nil, false
	}
	if genus == "Candidatus" && len(rest) >= 2 {
		genus, rest = strings.TrimSpace(rest[0]), rest[1:]
	}
	genus = strings.Trim(genus, "[]'\"")
	if !genusRe.MatchString(genus) || !epithetRe.MatchString(rest[0]) {
		return "", nil, false
	}
	return genus, rest, true
}

func (b *Builder) insert(genus string, rest []string) {
	epithet := rest[0]
	ix := b.ix
	if _, ok := ix.validGenera[genus]; !ok {
		ix.validGenera[genus] = struct{}{}
		abbrev := genus[:1] + "."
		ix.genusAbbrev[genus] = abbrev
		ix.abbrevGenera[abbrev] = append(ix.abbrevGenera[abbrev], genus)
		ix.genusRank[genus] = b.seq
		b.seq++
	}
	eps, ok := ix.genusEpithets[genus]
	if !ok {
		eps = make(set)
		ix.genusEpithets[genus] = eps
	}
	eps[epithet] = struct{}{}
	ix.validSpecies[genus+" "+epithet] = struct{}{}

	if len(rest) >= 3 && infraspecificMarkers[strings.ToLower(rest[1])] {
		ix.validSpecies[genus+" "+strings.Join(rest[:3], " ")] = struct{}{}
	}
}

// rowSink receives parsed rows. Builder adds them directly; staging holds
// them until a source has been read completely.
type rowSink interface {
	Add(genus, epithet string) bool
	AddName(name string) bool
}

type stagedRow struct {
	genus string
	rest  []string
}

// staging buffers the rows of one source so a source that fails partway
// leaves the Builder untouched.
type staging struct {
	rows []stagedRow
}

func (s *staging) Add(genus, epithet string) bool {
	tokens := strings.Fields(textnorm.Name(epithet))
	return s.stage(textnorm.Name(genus), tokens)
}

func (s *staging) AddName(name string) bool {
	tokens := strings.Fields(textnorm.Name(name))
	if len(tokens) < 2 {
		return false
	}
	return s.stage(tokens[0], tokens[1:])
}

func (s *staging) stage(genus string, rest []string) bool {
	genus, rest, ok := normalizeRow(genus, rest)
	if !ok {
		return false
	}
	s.rows = append(s.rows, stagedRow{genus: genus, rest: rest})
	return true
}

// mergeInto adds every staged row to b in read order.
func (s *staging) mergeInto(b *Builder) {
	for _, r := range s.rows {
		b.insert(r.genus, r.rest)
	}
}

// Index returns the built index. The Builder must not be used afterwards.
func (b *Builder) Index() *Index {
	ix := b.ix
	b.ix = nil
	return ix
}

// FromNames builds an index from full scientific names in one pass. Names
// that are not binomials are skipped.
func FromNames(names ...string) *Index {
	b := NewBuilder()
	for _, n := range names {
		b.AddName(n)
	}
	return b.Index()
}
