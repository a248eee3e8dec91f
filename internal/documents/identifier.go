// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package documents

import (
	"regexp"
	"strings"
)

// IdentifierType classifies a citation identifier.
type IdentifierType int

const (
	TypeUnknown IdentifierType = iota
	TypeDOI
)

func (t IdentifierType) String() string {
	switch t {
	case TypeDOI:
		return "doi"
	default:
		return "unknown"
	}
}

// doiPattern matches DOIs: "10.1128/jb.00123-10".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// doiPrefixes are stripped, case-insensitively, before classification.
var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi.org/",
	"doi:",
}

// Classify determines the identifier type and returns the identifier with
// resolver prefixes and surrounding whitespace removed. Case is preserved;
// use Normalize for the cache key.
func Classify(identifier string) (IdentifierType, string) {
	id := strings.TrimSpace(identifier)
	for {
		stripped := false
		lower := strings.ToLower(id)
		for _, p := range doiPrefixes {
			if strings.HasPrefix(lower, p) {
				id = strings.TrimSpace(id[len(p):])
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	id = strings.TrimRight(id, ".;,")
	if doiPattern.MatchString(id) {
		return TypeDOI, id
	}
	return TypeUnknown, id
}

// Normalize returns the canonical lower-case form of identifier. DOIs are
// case-insensitive, so two spellings of one DOI share a cache entry.
func Normalize(identifier string) string {
	_, id := Classify(identifier)
	return strings.ToLower(id)
}

// Slug returns the filesystem-safe stem used by the paper store for a DOI
// ("10.1128/jb.1" -> "10.1128-jb.1").
func Slug(doi string) string {
	return strings.NewReplacer("/", "-", ":", "-").Replace(doi)
}

// SplitIdentifiers splits a citation cell that may hold several identifiers
// separated by ";", ",", "|" or whitespace. Empty parts are dropped and the
// order is kept.
func SplitIdentifiers(cell string) []string {
	parts := strings.FieldsFunc(cell, func(r rune) bool {
		switch r {
		case ';', ',', '|', ' ', '\t', '\n', '\r':
			return true
		}
		return false
	})
	out := parts[:0]
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		_, id := Classify(p)
		if id == "" {
			continue
		}
		key := strings.ToLower(id)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, id)
	}
	return out
}
