// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snippet

import (
	"regexp"
	"strings"

	"github.com/pdiddy/evidence-engine/internal/textnorm"
)

// paragraphRe separates blocks of text; a blank line always ends a sentence.
var paragraphRe = regexp.MustCompile(`\n[ \t\r]*\n`)

// genusAbbrevRe matches a single-letter genus abbreviation such as "E.".
var genusAbbrevRe = regexp.MustCompile(`^[A-Z]\.$`)

// abbreviations never end a sentence. Keys are lower case.
var abbreviations = map[string]bool{
	"al.":     true,
	"e.g.":    true,
	"i.e.":    true,
	"fig.":    true,
	"figs.":   true,
	"sp.":     true,
	"spp.":    true,
	"subsp.":  true,
	"ssp.":    true,
	"str.":    true,
	"pv.":     true,
	"bv.":     true,
	"sv.":     true,
	"var.":    true,
	"vs.":     true,
	"ca.":     true,
	"cf.":     true,
	"approx.": true,
	"no.":     true,
	"ref.":    true,
	"refs.":   true,
	"eq.":     true,
	"vol.":    true,
	"resp.":   true,
	"etc.":    true,
}

// Sentences splits text into whitespace-normalized sentences. Genus
// abbreviations ("E. coli") and common scholarly abbreviations ("et al.",
// "Fig.") do not end a sentence.
func Sentences(text string) []string {
	var out []string
	for _, para := range paragraphRe.Split(text, -1) {
		p := textnorm.Whitespace(para)
		if p == "" {
			continue
		}
		out = append(out, splitParagraph(p)...)
	}
	return out
}

func splitParagraph(p string) []string {
	var out []string
	start := 0
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		end := i + 1
		// Closing quotes and brackets stay with the sentence they end.
		for end < len(p) && strings.IndexByte(`"')]`, p[end]) >= 0 {
			end++
		}
		if end < len(p) && p[end] != ' ' {
			continue
		}
		var next byte
		if end+1 < len(p) {
			next = p[end+1]
		}
		if c == '.' && protected(p[start:i+1], next) {
			continue
		}
		if next != 0 && !opensSentence(next) {
			continue
		}
		if s := strings.TrimSpace(p[start:end]); s != "" {
			out = append(out, s)
		}
		start = end
		i = end - 1
	}
	if s := strings.TrimSpace(p[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// protected reports whether the word ending segment is an abbreviation. A
// single capital ("E.") counts as a genus abbreviation only when the next
// word starts in lower case, so "vitamin B. Growth" still splits.
func protected(segment string, next byte) bool {
	word := segment
	if i := strings.LastIndexByte(segment, ' '); i >= 0 {
		word = segment[i+1:]
	}
	word = strings.TrimLeft(word, `("'[`)
	if genusAbbrevRe.MatchString(word) {
		return next >= 'a' && next <= 'z'
	}
	return abbreviations[strings.ToLower(word)]
}

// opensSentence reports whether b can start a new sentence. Lower-case
// letters cannot; anything else (capitals, digits, brackets, non-ASCII)
// can.
func opensSentence(b byte) bool {
	return b < 'a' || b > 'z'
}
