package genealogy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetermineRelationshipType(t *testing.T) {
	tests := []struct {
		requested string
		expected  string
	}{
		{"", "BIOLOGICAL"},
		{"ADOPTED", "ADOPTED"},
		{"BIOLOGICAL", "ADOPTED"},
		{"anything-else", "ADOPTED"},
	}

	for _, tt := range tests {
		t.Run(tt.requested, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetermineRelationshipType(tt.requested))
		})
	}
}
