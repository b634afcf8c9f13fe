package pipeline

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/mitelab-cli/internal/dataset"
	"github.com/KaramelBytes/mitelab-cli/internal/model"
)

// State is the outcome class of the model tab.
type State string

const (
	// StateNeutral means nothing was fitted because nothing was selected.
	StateNeutral State = "neutral"
	StateFitted  State = "fitted"
	StateFailed  State = "failed"
)

// Messages shown for the neutral outcomes.
const (
	MsgNoFeatures    = "Select at least one weather factor to build a model."
	MsgNoSignificant = "No weather factor is significant at p < 0.05."
)

// ModelOutcome is the typed result of the model tab.
type ModelOutcome struct {
	State       State
	Features    []string
	Formula     model.Formula
	Fit         *model.Fit
	Significant []string
	Message     string
	Err         error
}

// ModelStage fits Mite against features over view. An empty feature list
// short-circuits to the neutral outcome without building a formula.
func ModelStage(view *dataset.Dataset, features []string) ModelOutcome {
	out := ModelOutcome{Features: features}
	if len(features) == 0 {
		out.State = StateNeutral
		out.Message = MsgNoFeatures
		return out
	}
	f, err := model.BuildFormula(dataset.ColMite, features)
	if err != nil {
		return failed(out, err)
	}
	out.Formula = f
	fit, err := model.FitOLS(view, f)
	if err != nil {
		return failed(out, err)
	}
	out.State = StateFitted
	out.Fit = fit
	out.Significant = fit.SignificantFactors(model.SignificanceLevel)
	if len(out.Significant) == 0 {
		out.Message = MsgNoSignificant
	} else {
		out.Message = fmt.Sprintf("Significant weather factors (p < %.2f): %s", model.SignificanceLevel, strings.Join(out.Significant, ", "))
	}
	return out
}

func failed(out ModelOutcome, err error) ModelOutcome {
	out.State = StateFailed
	out.Err = err
	out.Message = UserMessage(err)
	return out
}
