// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType IdentifierType
		wantNorm string
	}{
		{"bare DOI", "10.1128/JB.00123-10", TypeDOI, "10.1128/JB.00123-10"},
		{"doi prefix", "doi:10.1128/jb.1", TypeDOI, "10.1128/jb.1"},
		{"upper-case prefix", "DOI: 10.1128/jb.1", TypeDOI, "10.1128/jb.1"},
		{"resolver URL", "https://doi.org/10.1016/j.foo.2020.01.001", TypeDOI, "10.1016/j.foo.2020.01.001"},
		{"dx resolver URL", "http://dx.doi.org/10.1016/x", TypeDOI, "10.1016/x"},
		{"trailing punctuation", "10.1016/x.", TypeDOI, "10.1016/x"},
		{"whitespace", "  10.1016/x  ", TypeDOI, "10.1016/x"},
		{"not a DOI", "PMC12345", TypeUnknown, "PMC12345"},
		{"empty", "", TypeUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotNorm := Classify(tt.input)
			if gotType != tt.wantType {
				t.Errorf("Classify(%q) type = %v, want %v", tt.input, gotType, tt.wantType)
			}
			if gotNorm != tt.wantNorm {
				t.Errorf("Classify(%q) norm = %q, want %q", tt.input, gotNorm, tt.wantNorm)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "10.1128/jb.00123-10", Normalize("https://doi.org/10.1128/JB.00123-10"))
	assert.Equal(t, Normalize("doi:10.1/ABC"), Normalize("10.1/abc"))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "10.1128-jb.1", Slug("10.1128/jb.1"))
	assert.Equal(t, "10.1002-(sici)1097-0290-(19960105)49-1", Slug("10.1002/(sici)1097-0290:(19960105)49/1"))
}

func TestSplitIdentifiers(t *testing.T) {
	tests := []struct {
		cell string
		want []string
	}{
		{"10.1/a", []string{"10.1/a"}},
		{"10.1/a; 10.2/b", []string{"10.1/a", "10.2/b"}},
		{"10.1/a|10.2/b,10.3/c", []string{"10.1/a", "10.2/b", "10.3/c"}},
		{"doi: 10.1/a 10.1/A", []string{"10.1/a"}},
		{"", []string{}},
		{" ; ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got := SplitIdentifiers(tt.cell)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
