// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// testIndex loads Enterococcus before Escherichia so that a naive
// "first genus with the initial" expansion would pick the wrong genus.
func testIndex() *Index {
	return FromNames(
		"Enterococcus faecalis",
		"Enterococcus faecium",
		"Escherichia coli",
		"Bacillus subtilis",
		"Bacillus cereus",
		"Pseudomonas aeruginosa",
		"Pseudomonas putida",
		"Salmonella enterica",
		"Salmonella enterica subsp. enterica",
		"Clostridium difficile",
		"Candida albicans",
	)
}

func TestIsValidExactSpecies(t *testing.T) {
	ix := testIndex()
	for _, name := range []string{"Escherichia coli", "Bacillus subtilis", "Salmonella enterica subsp. enterica"} {
		t.Run(name, func(t *testing.T) {
			v := ix.IsValid(name)
			assert.True(t, v.Valid)
			assert.Equal(t, 1.0, v.Confidence)
			assert.Equal(t, name, v.Canonical)
			assert.Equal(t, types.BasisExactSpecies, v.Basis)
		})
	}
}

func TestIsValidNormalizesWhitespace(t *testing.T) {
	v := testIndex().IsValid("Escherichia\n  coli")
	assert.True(t, v.Valid)
	assert.Equal(t, "Escherichia coli", v.Canonical)
	assert.Equal(t, types.BasisExactSpecies, v.Basis)
}

func TestIsValidAbbreviated(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		valid     bool
		canonical string
		basis     types.ValidationBasis
		conf      float64
	}{
		{"shared initial resolves to validating genus", "E. coli", true, "Escherichia coli", types.BasisAbbreviatedExpansion, ConfidenceAbbreviated},
		{"first genus for initial", "E. faecalis", true, "Enterococcus faecalis", types.BasisAbbreviatedExpansion, ConfidenceAbbreviated},
		{"glued abbreviation", "E.coli", true, "Escherichia coli", types.BasisAbbreviatedExpansion, ConfidenceAbbreviated},
		{"strain stripped", "E. coli K-12", true, "Escherichia coli", types.BasisStrainStripped, ConfidenceStrainStrip},
		{"strain code without hyphen", "P. aeruginosa PAO1", true, "Pseudomonas aeruginosa", types.BasisStrainStripped, ConfidenceStrainStrip},
		{"culture collection", "B. subtilis ATCC 6633", true, "Bacillus subtilis", types.BasisStrainStripped, ConfidenceStrainStrip},
		{"not an organism", "C. being described", false, "", "", 0},
		{"unknown epithet", "C. being", false, "", "", 0},
		{"unknown initial", "Z. mobilis", false, "", "", 0},
		{"uppercase second token", "E. Coli", false, "", "", 0},
	}
	ix := testIndex()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ix.IsValid(tt.input)
			assert.Equal(t, tt.valid, v.Valid)
			if !tt.valid {
				return
			}
			assert.Equal(t, tt.canonical, v.Canonical)
			assert.Equal(t, tt.basis, v.Basis)
			assert.InDelta(t, tt.conf, v.Confidence, 1e-9)
		})
	}
}

func TestIsValidFullGenusWithTrailing(t *testing.T) {
	ix := testIndex()

	v := ix.IsValid("Pseudomonas aeruginosa PAO1")
	require.True(t, v.Valid)
	assert.Equal(t, "Pseudomonas aeruginosa", v.Canonical)
	assert.Equal(t, types.BasisStrainStripped, v.Basis)
	assert.InDelta(t, ConfidenceGenusStrain, v.Confidence, 1e-9)

	v = ix.IsValid("Salmonella enterica subsp. enterica serovar Typhimurium")
	require.True(t, v.Valid)
	assert.Equal(t, "Salmonella enterica subsp. enterica", v.Canonical)

	v = ix.IsValid("Bacillus subtilis cells")
	require.True(t, v.Valid)
	assert.Equal(t, "Bacillus subtilis", v.Canonical)
	assert.InDelta(t, ConfidenceGenusTrailing, v.Confidence, 1e-9)

	assert.False(t, ix.IsValid("Bacillus anthracis Sterne").Valid, "epithet not in index")
	assert.False(t, ix.IsValid("Gene expression").Valid)
	assert.False(t, ix.IsValid("We studied").Valid)
}

func TestExpandAbbreviation(t *testing.T) {
	ix := testIndex()

	got, ok := ix.ExpandAbbreviation("E. coli")
	require.True(t, ok)
	assert.Equal(t, "Escherichia coli", got)

	got, ok = ix.ExpandAbbreviation("P. putida")
	require.True(t, ok)
	assert.Equal(t, "Pseudomonas putida", got)

	_, ok = ix.ExpandAbbreviation("C. being")
	assert.False(t, ok)

	_, ok = ix.ExpandAbbreviation("Escherichia coli")
	assert.False(t, ok, "not an abbreviation")
}

func TestExpandAbbreviationTieBreak(t *testing.T) {
	// Both "Bacillus cereus" and "Burkholderia cereus"
	// validate for "B. cereus"; Burkholderia is loaded first.
	ix := FromNames(
		"Burkholderia cereus",
		"Bacillus cereus",
		"Bacillus subtilis",
		"Bacillus licheniformis",
	)

	got, ok := ix.ExpandAbbreviation("B. cereus")
	require.True(t, ok)
	assert.Equal(t, "Burkholderia cereus", got, "earliest load rank wins without context")

	got, ok = ix.ExpandAbbreviationWithContext("B. cereus", []string{"Bacillus"})
	require.True(t, ok)
	assert.Equal(t, "Bacillus cereus", got, "genus named in the document wins")

	assert.Equal(t, []string{"Burkholderia", "Bacillus"}, ix.GeneraFor("B."))
}

func TestPickGenusByEpithetCount(t *testing.T) {
	b := NewBuilder()
	require.True(t, b.AddName("Alpha rara"))
	require.True(t, b.AddName("Aqua rara"))
	require.True(t, b.AddName("Aqua vulgaris"))
	ix := b.Index()
	// Equalize ranks so the epithet count decides.
	ix.genusRank["Aqua"] = ix.genusRank["Alpha"]

	got, ok := ix.ExpandAbbreviation("A. rara")
	require.True(t, ok)
	assert.Equal(t, "Aqua rara", got)
}

func TestBuilderRejectsMalformedRows(t *testing.T) {
	b := NewBuilder()
	assert.False(t, b.AddName("escherichia coli"), "lower-case genus")
	assert.False(t, b.AddName("Escherichia"), "not a binomial")
	assert.False(t, b.AddName("E. coli"), "abbreviated genus")
	assert.False(t, b.AddName("Escherichia Coli"), "capitalized epithet")
	assert.False(t, b.AddName("Escherichia 123"), "numeric epithet")
	assert.True(t, b.AddName("Candidatus Pelagibacter ubique"))
	assert.True(t, b.AddName("[Clostridium] scindens"))
	assert.True(t, b.AddName("Escherichia coli (Migula 1895) Castellani and Chalmers 1919"))

	ix := b.Index()
	assert.True(t, ix.HasSpecies("Pelagibacter ubique"))
	assert.True(t, ix.HasSpecies("Clostridium scindens"))
	assert.True(t, ix.HasSpecies("Escherichia coli"))
	assert.False(t, ix.HasSpecies("Escherichia coli (Migula 1895) Castellani and Chalmers 1919"))
	abbrev, ok := ix.Abbreviation("Escherichia")
	assert.True(t, ok)
	assert.Equal(t, "E.", abbrev)
}

func TestIsValidExactProperty(t *testing.T) {
	names := []string{"Escherichia coli", "Bacillus subtilis", "Candida albicans", "Clostridium difficile"}
	ix := FromNames(names...)
	for _, n := range names {
		v := ix.IsValid(n)
		assert.Equal(t, Validation{Valid: true, Confidence: 1.0, Canonical: n, Basis: types.BasisExactSpecies}, v)
	}
}
