package model

import "fmt"

// EmptySelectionError indicates a stage that needs rows or features was
// handed none.
type EmptySelectionError struct {
	What string // "rows" or "features"
}

func (e *EmptySelectionError) Error() string {
	return fmt.Sprintf("empty selection: no %s to fit a model on", e.What)
}

// FitError indicates the regression rejected the model specification.
type FitError struct {
	Formula string
	Reason  string
	Err     error
}

func (e *FitError) Error() string {
	msg := "model fit failed"
	if e.Formula != "" {
		msg += " for " + e.Formula
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FitError) Unwrap() error { return e.Err }

// ConfigError indicates a caller-supplied selection names something that is
// not selectable, such as a feature outside the candidate list.
type ConfigError struct {
	Field   string
	Invalid []string
	Allowed []string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q; choose from %q", e.Field, e.Invalid, e.Allowed)
}
