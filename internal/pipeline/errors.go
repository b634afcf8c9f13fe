package pipeline

import (
	"errors"

	"github.com/KaramelBytes/mitelab-cli/internal/dataset"
	"github.com/KaramelBytes/mitelab-cli/internal/model"
)

// Error kinds reported at the command boundary.
const (
	KindIngestion      = "ingestion"
	KindSchema         = "schema"
	KindEmptySelection = "empty-selection"
	KindFit            = "fit"
	KindConfig         = "config"
)

// ErrorKind classifies err into one of the Kind constants, or "" for
// anything else.
func ErrorKind(err error) string {
	var (
		ie *dataset.IngestionError
		se *dataset.SchemaError
		ee *model.EmptySelectionError
		fe *model.FitError
		ce *model.ConfigError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ie):
		return KindIngestion
	case errors.As(err, &se):
		return KindSchema
	case errors.As(err, &ee):
		return KindEmptySelection
	case errors.As(err, &fe):
		return KindFit
	case errors.As(err, &ce):
		return KindConfig
	}
	return ""
}

// UserMessage renders err as a user-facing message prefixed by its kind.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch ErrorKind(err) {
	case KindIngestion:
		return "Could not read the data file: " + err.Error()
	case KindSchema:
		return "The data file does not have the expected columns: " + err.Error()
	case KindEmptySelection:
		return "Nothing to analyse with the current selection: " + err.Error()
	case KindFit:
		return "Model error: " + err.Error()
	case KindConfig:
		return "Invalid selection: " + err.Error()
	}
	return err.Error()
}
