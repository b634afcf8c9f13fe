package dataset

import (
	"fmt"
	"strings"
)

// NormalizeColumns strips leading and trailing whitespace from every header.
// It is applied once, by New, before anything else inspects column names.
// Headers that collide after trimming, or trim to nothing, are a *SchemaError.
func NormalizeColumns(header []string) ([]string, error) {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	var collisions []string
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			return nil, &SchemaError{Reason: fmt.Sprintf("column %d has an empty name", i+1)}
		}
		if first, dup := seen[name]; dup {
			collisions = append(collisions, fmt.Sprintf("%q (columns %d and %d)", name, first+1, i+1))
		} else {
			seen[name] = i
		}
		out[i] = name
	}
	if len(collisions) > 0 {
		return nil, &SchemaError{Collisions: collisions}
	}
	return out, nil
}
