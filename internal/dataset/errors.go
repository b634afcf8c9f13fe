package dataset

import (
	"fmt"
	"strings"
)

// IngestionError indicates the input file is missing, unreadable, or not tabular.
type IngestionError struct {
	Path string
	Err  error
}

func (e *IngestionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("ingest %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("ingest: %v", e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// SchemaError indicates the header is unusable: a required column is absent,
// two headers collide after trimming, or a header is blank.
type SchemaError struct {
	Missing    []string
	Collisions []string
	Reason     string
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required columns: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Collisions) > 0 {
		parts = append(parts, "columns collide after trimming whitespace: "+strings.Join(e.Collisions, ", "))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	if len(parts) == 0 {
		return "schema error"
	}
	return "schema error: " + strings.Join(parts, "; ")
}
