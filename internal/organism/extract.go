// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package organism finds organism names in free text. Candidate spans are
// generated by pattern alone and then validated against a taxonomic index;
// spans that do not validate are dropped, never returned as guesses.
package organism

import (
	"sort"
	"strings"

	"github.com/pdiddy/evidence-engine/internal/taxonomy"
	"github.com/pdiddy/evidence-engine/internal/textnorm"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// ConfidenceInferred is assigned to a mention synthesized from a title hint.
const ConfidenceInferred = 0.75

// Validator checks a candidate name. *taxonomy.Index satisfies it.
type Validator interface {
	IsValidWithContext(name string, preferredGenera []string) taxonomy.Validation
}

// Extractor validates candidate spans against a Validator.
type Extractor struct {
	v Validator
}

// NewExtractor returns an Extractor backed by v.
func NewExtractor(v Validator) *Extractor {
	return &Extractor{v: v}
}

// Extract returns the distinct validated organism mentions in text, in order
// of first appearance. It returns nil when nothing validates.
func (e *Extractor) Extract(text string) []types.OrganismMention {
	return e.ExtractContext(text, nil)
}

// ExtractContext is Extract with extra genera that should win abbreviation
// ties, typically the genera already found in the enclosing document.
func (e *Extractor) ExtractContext(text string, preferredGenera []string) []types.OrganismMention {
	text = textnorm.Whitespace(text)
	if text == "" {
		return nil
	}
	cands := Candidates(text)
	if len(cands) == 0 {
		return nil
	}

	// Full genus names in the text steer abbreviated expansion.
	validated := make([]validatedSpan, 0, len(cands))
	preferred := append([]string(nil), preferredGenera...)
	for _, c := range cands {
		if c.Abbreviated {
			continue
		}
		if v := e.v.IsValidWithContext(c.Text, nil); v.Valid {
			validated = append(validated, validatedSpan{Candidate: c, Validation: v})
			preferred = append(preferred, Genus(v.Canonical))
		}
	}
	for _, c := range cands {
		if !c.Abbreviated {
			continue
		}
		if v := e.v.IsValidWithContext(c.Text, preferred); v.Valid {
			validated = append(validated, validatedSpan{Candidate: c, Validation: v})
		}
	}
	return mentions(resolveOverlaps(validated))
}

// ExtractWithHint is Extract with an inference fallback: when the text
// yields nothing and hint (a title) names exactly one organism, that
// organism is returned with basis inferred and reduced confidence.
func (e *Extractor) ExtractWithHint(text, hint string) []types.OrganismMention {
	if found := e.Extract(text); len(found) > 0 {
		return found
	}
	hinted := e.Extract(hint)
	if len(hinted) != 1 {
		return nil
	}
	m := hinted[0]
	m.Basis = types.BasisInferred
	m.Confidence = ConfidenceInferred
	m.Occurrences = 0
	return []types.OrganismMention{m}
}

// Genus returns the first token of a canonical name.
func Genus(name string) string {
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}

// Genera returns the distinct genera of mentions in order.
func Genera(mentions []types.OrganismMention) []string {
	seen := make(map[string]bool, len(mentions))
	var out []string
	for _, m := range mentions {
		g := Genus(m.NormalizedName)
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

// TopByOccurrence returns at most n mentions ordered by descending
// occurrence count; ties keep first-appearance order.
func TopByOccurrence(mentions []types.OrganismMention, n int) []types.OrganismMention {
	out := append([]types.OrganismMention(nil), mentions...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Occurrences > out[j].Occurrences
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Names joins the normalized names of mentions with ", ".
func Names(mentions []types.OrganismMention) string {
	names := make([]string, len(mentions))
	for i, m := range mentions {
		names[i] = m.NormalizedName
	}
	return strings.Join(names, ", ")
}

type validatedSpan struct {
	Candidate
	taxonomy.Validation
}

// resolveOverlaps keeps, for every group of overlapping spans, the span with
// the highest confidence, then the longest, then the earliest.
func resolveOverlaps(spans []validatedSpan) []validatedSpan {
	spans = mergeExtensions(spans)
	sort.SliceStable(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if la, lb := a.End-a.Start, b.End-b.Start; la != lb {
			return la > lb
		}
		return a.Start < b.Start
	})
	var kept []validatedSpan
	for _, s := range spans {
		overlaps := false
		for _, k := range kept {
			if s.Start < k.End && k.Start < s.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, s)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}

// mergeExtensions folds a span into a longer span at the same offset when
// the longer one names the same organism or a more specific rank of it
// ("E. coli" into "E. coli K-12"). When both resolve to the same name the
// longer span is kept only if its extra text is a strain designation, and
// the merged span keeps the best confidence.
func mergeExtensions(spans []validatedSpan) []validatedSpan {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End > spans[j].End
	})
	var out []validatedSpan
	for _, s := range spans {
		if n := len(out); n > 0 {
			long := &out[n-1]
			if long.Start == s.Start && extends(long.Canonical, s.Canonical) {
				if s.Canonical == long.Canonical {
					if !designationTail(long.Text, s.Text) {
						*long = s
						continue
					}
					if s.Confidence > long.Confidence {
						long.Confidence = s.Confidence
						long.Basis = s.Basis
					}
				}
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// designationTail reports whether the text long adds after short is a strain
// or serovar designation.
func designationTail(long, short string) bool {
	if !strings.HasPrefix(long, short) {
		return false
	}
	return taxonomy.IsStrainDesignation(strings.Fields(long[len(short):]))
}

func extends(long, short string) bool {
	return long == short || strings.HasPrefix(long, short+" ")
}

// mentions folds spans into one mention per canonical name. The first
// appearance supplies RawSpan; the best occurrence supplies confidence and
// basis.
func mentions(spans []validatedSpan) []types.OrganismMention {
	if len(spans) == 0 {
		return nil
	}
	index := make(map[string]int, len(spans))
	var out []types.OrganismMention
	for _, s := range spans {
		if i, ok := index[s.Canonical]; ok {
			m := &out[i]
			m.Occurrences++
			if s.Confidence > m.Confidence {
				m.Confidence = s.Confidence
				m.Basis = s.Basis
			}
			continue
		}
		index[s.Canonical] = len(out)
		out = append(out, types.OrganismMention{
			RawSpan:        s.Text,
			NormalizedName: s.Canonical,
			Confidence:     s.Confidence,
			Basis:          s.Basis,
			Occurrences:    1,
		})
	}
	return out
}
