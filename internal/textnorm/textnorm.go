// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textnorm normalizes document and name text before matching.
// Documents interleave line breaks inside organism names ("Escherichia\ncoli"),
// so every comparison in the pipeline works on collapsed whitespace.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Whitespace applies NFC normalization, collapses every run of Unicode
// whitespace (including non-breaking spaces) to a single ASCII space, and
// trims both ends. Whitespace(Whitespace(s)) == Whitespace(s).
func Whitespace(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := true
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteByte(' ')
			}
			prevSpace = true
			continue
		}
		b.WriteRune(r)
		prevSpace = false
	}
	return strings.TrimRight(b.String(), " ")
}

// dashReplacer maps typographic dashes and minus signs to ASCII hyphen.
var dashReplacer = strings.NewReplacer(
	"‐", "-", // hyphen
	"‑", "-", // non-breaking hyphen
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"−", "-", // minus sign
)

// Dashes replaces typographic dash variants with '-'.
func Dashes(s string) string {
	return dashReplacer.Replace(s)
}

// Name normalizes an organism name candidate: whitespace, dashes, and
// surrounding punctuation that PDF extraction leaves behind.
func Name(s string) string {
	s = Whitespace(Dashes(s))
	return strings.TrimFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ':' || r == '(' || r == ')' || r == '"' || r == '\''
	})
}
