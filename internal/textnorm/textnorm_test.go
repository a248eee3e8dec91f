// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhitespace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already normal", "Escherichia coli", "Escherichia coli"},
		{"line break inside name", "Escherichia\ncoli", "Escherichia coli"},
		{"mixed runs", "  Bacillus \t\n  subtilis  ", "Bacillus subtilis"},
		{"non-breaking space", "E. coli", "E. coli"},
		{"empty", "", ""},
		{"only spaces", " \n\t ", ""},
		{"decomposed accent", "Candida albicans é", "Candida albicans é"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Whitespace(tt.in))
		})
	}
}

func TestWhitespaceIdempotent(t *testing.T) {
	inputs := []string{
		"Growth of E. coli K-12\n was measured at pH 7.0",
		"    a b  ",
		"single",
		"",
		"tabs\t\tand\r\nnewlines",
	}
	for _, in := range inputs {
		once := Whitespace(in)
		assert.Equal(t, once, Whitespace(once), "input %q", in)
	}
}

func TestName(t *testing.T) {
	assert.Equal(t, "E. coli K-12", Name("(E. coli K–12),"))
	assert.Equal(t, "Bacillus subtilis", Name(" Bacillus\nsubtilis; "))
}
