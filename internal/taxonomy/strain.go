// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package taxonomy

import (
	"regexp"
	"strings"
)

// designationKeywords introduce a trailing strain, serovar, or infraspecific
// designation ("serovar Typhimurium", "str. MG1655", "pv. tomato").
var designationKeywords = map[string]bool{
	"serovar":  true,
	"serotype": true,
	"sv.":      true,
	"strain":   true,
	"str.":     true,
	"pv.":      true,
	"pathovar": true,
	"biovar":   true,
	"bv.":      true,
	"subsp.":   true,
	"ssp.":     true,
	"var.":     true,
}

// strainCodeRe matches culture or strain codes: "K-12", "PAO1", "MG1655",
// "25922", "DSM-20231T", "O157:H7".
var strainCodeRe = regexp.MustCompile(`^[A-Za-z0-9]+(?:[-/.:][A-Za-z0-9]+)*$`)

// collectionRe matches culture collection acronyms that precede a number
// ("ATCC 25922", "DSM 20231").
var collectionRe = regexp.MustCompile(`^[A-Z]{2,6}$`)

// IsStrainDesignation reports whether tokens, taken together, form a strain
// or serovar designation that may follow a species name.
func IsStrainDesignation(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	if designationKeywords[strings.ToLower(tokens[0])] {
		return len(tokens) >= 2
	}
	for _, tok := range tokens {
		if collectionRe.MatchString(tok) {
			continue
		}
		if !strainCodeRe.MatchString(tok) || !hasDigit(tok) {
			return false
		}
	}
	return hasDigit(tokens[len(tokens)-1])
}

// StripStrain removes a trailing designation from name tokens. tokens[0] is
// the species epithet and is never removed. When the tail is not a
// designation, tokens is returned unchanged.
func StripStrain(tokens []string) []string {
	for i := 1; i < len(tokens); i++ {
		if IsStrainDesignation(tokens[i:]) {
			return tokens[:i]
		}
	}
	return tokens
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
}
