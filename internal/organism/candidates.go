// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package organism

import (
	"regexp"
	"sort"
)

// Family identifies the pattern that produced a candidate span.
type Family int

const (
	// FamilyBinomial is "Genus epithet".
	FamilyBinomial Family = iota
	// FamilyAbbreviated is "G. epithet".
	FamilyAbbreviated
	// FamilyDesignated is either form followed by a strain or serovar
	// designation.
	FamilyDesignated
)

func (f Family) String() string {
	switch f {
	case FamilyBinomial:
		return "binomial"
	case FamilyAbbreviated:
		return "abbreviated"
	case FamilyDesignated:
		return "designated"
	default:
		return "unknown"
	}
}

// Candidate is an organism-shaped span found without taxonomic knowledge.
type Candidate struct {
	Text   string
	Start  int
	End    int
	Family Family
	// Abbreviated is true when the span starts with "G.".
	Abbreviated bool
}

const (
	binomialExpr    = `[A-Z][a-z]+\s+[a-z][a-z-]+`
	abbreviatedExpr = `[A-Z]\.\s?[a-z][a-z-]+`
	keywordExpr     = `(?:serovar|serotype|strain|str\.|subsp\.|ssp\.|pv\.|pathovar|biovar|bv\.|var\.|sv\.)\s+[A-Za-z0-9][A-Za-z0-9-]*`
	// A bare strain code carries a digit ("K-12", "PAO1", "O157:H7"), so a
	// following capitalized word such as the next genus is never taken.
	strainCodeExpr  = `(?:[0-9][A-Za-z0-9]*|[A-Z][A-Za-z]*[-:/.]?[0-9][A-Za-z0-9]*)(?:[-:/.][A-Za-z0-9]+)*`
	collectionExpr  = `[A-Z]{2,6}\s+[0-9][A-Za-z0-9-]*`
	designationExpr = `(?:\s+` + keywordExpr + `){1,2}|\s+` + collectionExpr + `|\s+` + strainCodeExpr
)

var (
	binomialRe    = regexp.MustCompile(`\b` + binomialExpr + `\b`)
	abbreviatedRe = regexp.MustCompile(`\b` + abbreviatedExpr + `\b`)
	designationRe = regexp.MustCompile(`^(?:` + designationExpr + `)`)
	abbrevStartRe = regexp.MustCompile(`^[A-Z]\.`)
)

// Candidates scans text for organism-shaped spans in all three families.
// Spans may overlap; the result is ordered by start offset, then by
// descending length.
func Candidates(text string) []Candidate {
	var out []Candidate
	add := func(re *regexp.Regexp, fam Family) {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			span := text[loc[0]:loc[1]]
			out = append(out, Candidate{
				Text:        span,
				Start:       loc[0],
				End:         loc[1],
				Family:      fam,
				Abbreviated: abbrevStartRe.MatchString(span),
			})
		}
	}
	add(binomialRe, FamilyBinomial)
	add(abbreviatedRe, FamilyAbbreviated)

	// Designations extend a base span, so they are matched at each base end
	// rather than scanned independently.
	for _, base := range out {
		loc := designationRe.FindStringIndex(text[base.End:])
		if loc == nil {
			continue
		}
		end := base.End + loc[1]
		out = append(out, Candidate{
			Text:        text[base.Start:end],
			Start:       base.Start,
			End:         end,
			Family:      FamilyDesignated,
			Abbreviated: base.Abbreviated,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End > out[j].End
	})
	return out
}
