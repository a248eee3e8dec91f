// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snippet

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/evidence-engine/internal/textnorm"
)

// dashClass matches any hyphen, dash or minus sign.
const dashClass = `[-‐‑‒–—―−]`

var numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ValuePattern compiles the textual variants of a property value: the value
// as given, numbers with or without trailing zeros ("7.0", "7"), optional
// space between a number and its unit ("30 mM", "30mM") and any dash style
// in ranges. Values without digits match case-insensitively. It returns nil
// for an empty value.
func ValuePattern(value string) *regexp.Regexp {
	v := textnorm.Name(value)
	if v == "" {
		return nil
	}

	var b strings.Builder
	if !strings.ContainsAny(v, "0123456789") {
		b.WriteString("(?i)")
	}
	pos := 0
	for _, loc := range numberRe.FindAllStringIndex(v, -1) {
		writeLiteral(&b, v[pos:loc[0]])
		if loc[0] > 0 && isWordByte(v[loc[0]-1]) {
			b.WriteString(`\s?`)
		}
		writeNumber(&b, v[loc[0]:loc[1]])
		if loc[1] < len(v) && isWordByte(v[loc[1]]) {
			b.WriteString(`\s?`)
		}
		pos = loc[1]
	}
	writeLiteral(&b, v[pos:])
	return regexp.MustCompile(b.String())
}

func writeLiteral(b *strings.Builder, s string) {
	for _, r := range s {
		switch {
		case r == ' ':
			b.WriteString(`\s*`)
		case r == '-':
			b.WriteString(`\s*` + dashClass + `\s*`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
}

func writeNumber(b *strings.Builder, n string) {
	intPart, frac, _ := strings.Cut(n, ".")
	frac = strings.TrimRight(frac, "0")
	b.WriteString(intPart)
	if frac == "" {
		b.WriteString(`(?:\.0+)?`)
		return
	}
	b.WriteString(`\.` + frac + `0*`)
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '%' || c >= 0x80
}

// findValue returns the byte ranges where re matches s on token boundaries:
// a number is not part of a longer number and a word is not part of a
// longer word.
func findValue(re *regexp.Regexp, s string) [][2]int {
	var out [][2]int
	for _, loc := range re.FindAllStringIndex(s, -1) {
		if loc[0] == loc[1] {
			continue
		}
		if boundaryBefore(s, loc[0]) && boundaryAfter(s, loc[1]) {
			out = append(out, [2]int{loc[0], loc[1]})
		}
	}
	return out
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	first, _ := utf8.DecodeRuneInString(s[i:])
	prev, _ := utf8.DecodeLastRuneInString(s[:i])
	switch {
	case unicode.IsDigit(first):
		return !unicode.IsDigit(prev) && prev != '.' && prev != ','
	case unicode.IsLetter(first):
		return !unicode.IsLetter(prev) && !unicode.IsDigit(prev)
	}
	return true
}

func boundaryAfter(s string, i int) bool {
	if i == len(s) {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(s[:i])
	next, size := utf8.DecodeRuneInString(s[i:])
	switch {
	case unicode.IsDigit(last):
		if unicode.IsDigit(next) {
			return false
		}
		if next == '.' || next == ',' {
			after, _ := utf8.DecodeRuneInString(s[i+size:])
			return !unicode.IsDigit(after)
		}
		return true
	case unicode.IsLetter(last):
		return !unicode.IsLetter(next) && !unicode.IsDigit(next)
	}
	return true
}
