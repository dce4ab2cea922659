package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/factstore/datomize/pkg/datom"
)

func TestPatternMatches(t *testing.T) {
	d := datom.Datom{Op: datom.OpAssert, E: datom.ID(1), A: ":test/name", V: "grue"}

	tests := []struct {
		name    string
		pattern Pattern
		want    bool
	}{
		{"all wildcards", Pattern{}, true},
		{"entity bound", Pattern{E: datom.ID(1)}, true},
		{"entity mismatch", Pattern{E: datom.ID(2)}, false},
		{"attribute bound", Pattern{A: ":test/name"}, true},
		{"attribute mismatch", Pattern{A: ":test/other"}, false},
		{"value bound", Pattern{V: "grue"}, true},
		{"value mismatch", Pattern{V: "wumpus"}, false},
		{"fully bound", Pattern{E: datom.ID(1), A: ":test/name", V: "grue"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pattern.Matches(d))
		})
	}
}

func TestPatternValueNormalization(t *testing.T) {
	d := datom.Datom{Op: datom.OpAssert, E: datom.ID(1), A: ":test/count", V: int64(3)}
	assert.True(t, Pattern{V: 3}.Matches(d))
}
