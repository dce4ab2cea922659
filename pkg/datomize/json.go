package datomize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/factstore/datomize/pkg/datom"
)

// FromJSON parses a JSON object into an Entity. Top-level keys become
// attribute keywords (a missing leading colon is restored); numbers decode
// as int64 when integral and float64 otherwise, so large integers survive
// the trip.
func FromJSON(data []byte) (Entity, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse entity document: %w", err)
	}

	out := make(Entity, len(raw))
	for k, v := range raw {
		if !strings.HasPrefix(k, ":") {
			k = ":" + k
		}
		out[datom.Keyword(k)] = convertJSON(v)
	}
	return out, nil
}
