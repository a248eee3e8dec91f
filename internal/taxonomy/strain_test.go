// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package taxonomy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsStrainDesignation(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"K-12", true},
		{"PAO1", true},
		{"MG1655", true},
		{"O157:H7", true},
		{"ATCC 25922", true},
		{"DSM 20231T", true},
		{"serovar Typhimurium", true},
		{"str. MG1655", true},
		{"pv. tomato", true},
		{"serovar", false},
		{"cells", false},
		{"was measured", false},
		{"ATCC", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStrainDesignation(strings.Fields(tt.in)))
		})
	}
}

func TestStripStrain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"coli K-12", "coli"},
		{"aeruginosa PAO1", "aeruginosa"},
		{"enterica subsp. enterica serovar Typhimurium", "enterica"},
		{"subtilis ATCC 6633", "subtilis"},
		{"coli", "coli"},
		{"coli cells", "coli cells"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := strings.Join(StripStrain(strings.Fields(tt.in)), " ")
			assert.Equal(t, tt.want, got)
		})
	}
}
