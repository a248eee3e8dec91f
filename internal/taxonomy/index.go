// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package taxonomy builds the in-memory name index used to validate organism
// candidates. The index is assembled once from one or more authority files
// and is read-only afterwards, so a single *Index can be shared by every
// extractor without locking.
package taxonomy

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/evidence-engine/internal/textnorm"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Confidence levels assigned by each validation path.
const (
	ConfidenceExact         = 1.0
	ConfidenceAbbreviated   = 0.9
	ConfidenceStrainStrip   = 0.85
	ConfidenceGenusStrain   = 0.95
	ConfidenceGenusTrailing = 0.8
)

// Validation is the outcome of checking one name against the index.
type Validation struct {
	Valid      bool
	Confidence float64
	// Canonical is the matched name as stored in the index.
	Canonical string
	Basis     types.ValidationBasis
}

type set map[string]struct{}

// Index holds species and genus lookups merged from every loaded source.
type Index struct {
	validSpecies  set
	validGenera   set
	genusEpithets map[string]set
	genusAbbrev   map[string]string
	// abbrevGenera maps "E." to genera in load order.
	abbrevGenera map[string][]string
	// genusRank is the load sequence of the first row that introduced a genus.
	genusRank map[string]int
	sources   []types.TaxonomySource
}

func newIndex() *Index {
	return &Index{
		validSpecies:  make(set),
		validGenera:   make(set),
		genusEpithets: make(map[string]set),
		genusAbbrev:   make(map[string]string),
		abbrevGenera:  make(map[string][]string),
		genusRank:     make(map[string]int),
	}
}

// SpeciesCount returns the number of distinct species keys.
func (ix *Index) SpeciesCount() int { return len(ix.validSpecies) }

// GenusCount returns the number of distinct genera.
func (ix *Index) GenusCount() int { return len(ix.validGenera) }

// Sources returns the sources that loaded, with their load statistics.
func (ix *Index) Sources() []types.TaxonomySource {
	out := make([]types.TaxonomySource, len(ix.sources))
	copy(out, ix.sources)
	return out
}

// HasGenus reports whether genus is a known genus.
func (ix *Index) HasGenus(genus string) bool {
	_, ok := ix.validGenera[genus]
	return ok
}

// HasSpecies reports whether name is an exact species key.
func (ix *Index) HasSpecies(name string) bool {
	_, ok := ix.validSpecies[textnorm.Whitespace(name)]
	return ok
}

// Abbreviation returns the "G." form registered for genus.
func (ix *Index) Abbreviation(genus string) (string, bool) {
	a, ok := ix.genusAbbrev[genus]
	return a, ok
}

// GeneraFor returns every genus sharing the abbreviation, in load order.
func (ix *Index) GeneraFor(abbrev string) []string {
	g := ix.abbrevGenera[abbrev]
	out := make([]string, len(g))
	copy(out, g)
	return out
}

// abbrevTokenRe matches a genus abbreviation token such as "E.".
var abbrevTokenRe = regexp.MustCompile(`^[A-Z]\.$`)

// gluedAbbrevRe matches "E.coli" with the space missing.
var gluedAbbrevRe = regexp.MustCompile(`^([A-Z]\.)([a-z].*)$`)

// IsValid checks name against the index. See IsValidWithContext.
func (ix *Index) IsValid(name string) Validation {
	return ix.IsValidWithContext(name, nil)
}

// IsValidWithContext checks name against the index. preferredGenera lists
// genera spelled out in full in the surrounding document; they win ties
// when an abbreviation expands to more than one valid species.
//
// Order of checks: exact species; abbreviated binomial (every genus sharing
// the initial is tried, then trailing strain text is stripped and the
// expansion retried); full genus with a known leading epithet followed by
// strain or serovar text. Anything else is invalid.
func (ix *Index) IsValidWithContext(name string, preferredGenera []string) Validation {
	s := textnorm.Name(name)
	if s == "" {
		return Validation{}
	}
	if _, ok := ix.validSpecies[s]; ok {
		return Validation{Valid: true, Confidence: ConfidenceExact, Canonical: s, Basis: types.BasisExactSpecies}
	}

	tokens := splitTokens(s)
	if len(tokens) < 2 || !startsLower(tokens[1]) {
		return Validation{}
	}

	if abbrevTokenRe.MatchString(tokens[0]) {
		return ix.validateAbbreviated(tokens[0], tokens[1:], preferredGenera)
	}

	if _, ok := ix.validGenera[tokens[0]]; ok {
		return ix.validateGenusWithTrailing(tokens[0], tokens[1:])
	}
	return Validation{}
}

// ExpandAbbreviation returns the full binomial for an abbreviated name such
// as "E. coli", or false when no genus sharing the initial has that epithet.
func (ix *Index) ExpandAbbreviation(abbreviated string) (string, bool) {
	return ix.ExpandAbbreviationWithContext(abbreviated, nil)
}

// ExpandAbbreviationWithContext is ExpandAbbreviation with document-context
// genera used to break ties.
func (ix *Index) ExpandAbbreviationWithContext(abbreviated string, preferredGenera []string) (string, bool) {
	tokens := splitTokens(textnorm.Name(abbreviated))
	if len(tokens) < 2 || !abbrevTokenRe.MatchString(tokens[0]) || !startsLower(tokens[1]) {
		return "", false
	}
	v := ix.validateAbbreviated(tokens[0], tokens[1:], preferredGenera)
	if !v.Valid {
		return "", false
	}
	return v.Canonical, true
}

func (ix *Index) validateAbbreviated(abbrev string, rest []string, preferred []string) Validation {
	genera := ix.abbrevGenera[abbrev]
	if len(genera) == 0 {
		return Validation{}
	}

	if canonical, ok := ix.expand(genera, strings.Join(rest, " "), preferred); ok {
		return Validation{Valid: true, Confidence: ConfidenceAbbreviated, Canonical: canonical, Basis: types.BasisAbbreviatedExpansion}
	}

	stripped := StripStrain(rest)
	if len(stripped) > 0 && len(stripped) < len(rest) {
		if canonical, ok := ix.expand(genera, strings.Join(stripped, " "), preferred); ok {
			return Validation{Valid: true, Confidence: ConfidenceStrainStrip, Canonical: canonical, Basis: types.BasisStrainStripped}
		}
	}
	return Validation{}
}

// expand returns the tie-broken genus+rest that exists as a species.
func (ix *Index) expand(genera []string, rest string, preferred []string) (string, bool) {
	var matches []string
	for _, g := range genera {
		if _, ok := ix.validSpecies[g+" "+rest]; ok {
			matches = append(matches, g)
		}
	}
	if len(matches) == 0 {
		return "", false
	}
	return ix.pickGenus(matches, preferred) + " " + rest, true
}

// pickGenus breaks ties between genera that all validate: a genus named in
// full in the same document first, then the most specific source (earliest
// load rank), then the genus with more known epithets, then name order.
func (ix *Index) pickGenus(matches []string, preferred []string) string {
	if len(matches) == 1 {
		return matches[0]
	}
	pref := make(set, len(preferred))
	for _, p := range preferred {
		pref[p] = struct{}{}
	}
	ranked := make([]string, len(matches))
	copy(ranked, matches)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		_, pa := pref[a]
		_, pb := pref[b]
		if pa != pb {
			return pa
		}
		if ix.genusRank[a] != ix.genusRank[b] {
			return ix.genusRank[a] < ix.genusRank[b]
		}
		if len(ix.genusEpithets[a]) != len(ix.genusEpithets[b]) {
			return len(ix.genusEpithets[a]) > len(ix.genusEpithets[b])
		}
		return a < b
	})
	return ranked[0]
}

func (ix *Index) validateGenusWithTrailing(genus string, rest []string) Validation {
	if len(rest) < 2 {
		return Validation{}
	}
	epithets := ix.genusEpithets[genus]
	if _, ok := epithets[rest[0]]; !ok {
		return Validation{}
	}

	// Prefer the longest infraspecific name the index knows, e.g.
	// "Salmonella enterica subsp. enterica" before "Salmonella enterica".
	if len(rest) > 3 && infraspecificMarkers[strings.ToLower(rest[1])] {
		full := genus + " " + strings.Join(rest[:3], " ")
		if _, ok := ix.validSpecies[full]; ok {
			return Validation{Valid: true, Confidence: ConfidenceGenusStrain, Canonical: full, Basis: types.BasisStrainStripped}
		}
	}

	conf := ConfidenceGenusTrailing
	if IsStrainDesignation(rest[1:]) {
		conf = ConfidenceGenusStrain
	}
	return Validation{Valid: true, Confidence: conf, Canonical: genus + " " + rest[0], Basis: types.BasisStrainStripped}
}

// splitTokens splits a normalized name on spaces and separates a glued
// abbreviation ("E.coli" -> "E.", "coli").
func splitTokens(s string) []string {
	if s == "" {
		return nil
	}
	tokens := strings.Split(s, " ")
	if m := gluedAbbrevRe.FindStringSubmatch(tokens[0]); m != nil {
		tokens = append([]string{m[1], m[2]}, tokens[1:]...)
	}
	return tokens
}

func startsLower(s string) bool {
	return s != "" && s[0] >= 'a' && s[0] <= 'z'
}
