// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package snippet locates a short verbatim passage that supports a property
// value, preferring a sentence that also names the organism.
package snippet

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

const ellipsis = "..."

// Result is a located evidence passage.
type Result struct {
	// Snippet is the bounded passage.
	Snippet string
	// Sentence is the full sentence the snippet was cut from.
	Sentence string
	// Organism is the organism name found alongside the value, if any.
	Organism string
}

// Locate returns a passage of at most maxChars runes that contains value,
// preferring a sentence that also names organism. It returns false when no
// sentence contains the value. A maxChars of zero or less uses the default
// budget.
func Locate(text, value, organism string, maxChars int) (string, bool) {
	var organisms []string
	if organism != "" {
		organisms = []string{organism}
	}
	res, ok := LocateAny(text, value, organisms, maxChars)
	return res.Snippet, ok
}

// LocateAny is Locate with several candidate organisms. The first sentence
// containing the value and any of them wins; otherwise the first sentence
// containing the value alone.
func LocateAny(text, value string, organisms []string, maxChars int) (Result, bool) {
	if maxChars <= 0 {
		maxChars = types.DefaultMaxSnippetChars
	}
	valueRe := ValuePattern(value)
	if valueRe == nil {
		return Result{}, false
	}
	orgRes := make([]*regexp.Regexp, 0, len(organisms))
	for _, o := range organisms {
		if re := OrganismPattern(o); re != nil {
			orgRes = append(orgRes, re)
		}
	}

	var fallback *Result
	for _, sent := range Sentences(text) {
		values := findValue(valueRe, sent)
		if len(values) == 0 {
			continue
		}
		for i, re := range orgRes {
			orgs := re.FindAllStringIndex(sent, -1)
			if len(orgs) == 0 {
				continue
			}
			start, end, vStart, vEnd := closestPair(values, orgs)
			return Result{
				Snippet:  cut(sent, start, end, vStart, vEnd, maxChars),
				Sentence: sent,
				Organism: organisms[i],
			}, true
		}
		if fallback == nil {
			v := values[0]
			fallback = &Result{
				Snippet:  cut(sent, v[0], v[1], v[0], v[1], maxChars),
				Sentence: sent,
			}
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Result{}, false
}

// OrganismPattern matches a canonical "Genus epithet[ ...]" name as written
// or abbreviated ("E. coli"), allowing any whitespace between tokens.
func OrganismPattern(name string) *regexp.Regexp {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return nil
	}
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = regexp.QuoteMeta(t)
	}
	full := `\b` + strings.Join(quoted, `\s+`) + `\b`
	if len(tokens) == 1 {
		return regexp.MustCompile(full)
	}
	abbrev := `\b` + regexp.QuoteMeta(string([]rune(tokens[0])[:1])+".") + `\s?` + strings.Join(quoted[1:], `\s+`) + `\b`
	return regexp.MustCompile(full + `|` + abbrev)
}

// closestPair returns the union of the value and organism matches that lie
// closest together, plus the value range on its own.
func closestPair(values [][2]int, orgs [][]int) (start, end, vStart, vEnd int) {
	best := -1
	for _, v := range values {
		for _, o := range orgs {
			s, e := min(v[0], o[0]), max(v[1], o[1])
			if best < 0 || e-s < best {
				best = e - s
				start, end, vStart, vEnd = s, e, v[0], v[1]
			}
		}
	}
	return start, end, vStart, vEnd
}

// cut bounds sentence to maxChars runes. The window keeps [start, end) when
// it fits and otherwise the value range [vStart, vEnd); offsets are bytes.
func cut(sentence string, start, end, vStart, vEnd, maxChars int) string {
	if utf8.RuneCountInString(sentence) <= maxChars {
		return sentence
	}
	r := []rune(sentence)
	rs, re := runeOffset(sentence, start), runeOffset(sentence, end)
	if re-rs > maxChars {
		rs, re = runeOffset(sentence, vStart), runeOffset(sentence, vEnd)
	}
	return truncate(r, rs, re, maxChars)
}

func runeOffset(s string, byteOff int) int {
	return utf8.RuneCountInString(s[:byteOff])
}

// truncate returns at most maxChars runes of r around [start, end), cut on
// word boundaries where possible and marked with an ellipsis on each side
// that was cut.
func truncate(r []rune, start, end, maxChars int) string {
	n := len(r)
	if end-start >= maxChars {
		return strings.TrimSpace(string(r[start : start+maxChars]))
	}
	mark := utf8.RuneCountInString(ellipsis)
	for _, cost := range []int{0, mark, 2 * mark} {
		budget := maxChars - cost
		if budget < end-start {
			break
		}
		a, b := window(n, start, end, budget)
		lead, trail := a > 0, b < n
		used := b - a
		if lead {
			used += mark
		}
		if trail {
			used += mark
		}
		if used <= maxChars {
			return finish(r, a, b, start, end, lead, trail)
		}
	}
	a, b := window(n, start, end, maxChars)
	return finish(r, a, b, start, end, false, false)
}

// window centers [start, end) in a span of at most budget runes within
// [0, n), shifting the span when it runs past either edge.
func window(n, start, end, budget int) (int, int) {
	extra := budget - (end - start)
	a := start - extra/2
	b := end + (extra - extra/2)
	if a < 0 {
		b -= a
		a = 0
	}
	if b > n {
		a -= b - n
		b = n
	}
	if a < 0 {
		a = 0
	}
	return a, b
}

// finish snaps [a, b) to word boundaries without cutting into [start, end)
// and adds the ellipsis markers.
func finish(r []rune, a, b, start, end int, lead, trail bool) string {
	if a > 0 && r[a-1] != ' ' {
		for i := a; i < start; i++ {
			if r[i] == ' ' {
				a = i + 1
				break
			}
		}
	}
	if b < len(r) && r[b] != ' ' {
		for i := b - 1; i >= end; i-- {
			if r[i] == ' ' {
				b = i
				break
			}
		}
	}
	out := strings.TrimSpace(string(r[a:b]))
	if lead {
		out = ellipsis + out
	}
	if trail {
		out += ellipsis
	}
	return out
}
