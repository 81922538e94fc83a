package validate

import (
	"time"

	"github.com/finxtract/finxtract/internal/model"
)

// Validator runs the full deterministic rule set against a run's
// normalized candidates and returns results keyed by CandidateID,
// matching AgentState.ValidationResults' shape.
type Validator struct{}

// New builds a Validator.
func New() *Validator {
	return &Validator{}
}

// Validate runs unit, range, arithmetic, and year-over-year checks over
// every candidate and returns a map from CandidateID to the concatenation
// of every rule's finding for that candidate.
func (v *Validator) Validate(candidates []model.CandidateValue) map[string][]model.ValidationResult {
	results := make(map[string][]model.ValidationResult)

	for _, c := range candidates {
		results[c.CandidateID] = append(results[c.CandidateID], CheckUnit(c))
	}

	for _, periodCandidates := range groupByPeriod(candidates) {
		for _, c := range periodCandidates {
			results[c.CandidateID] = append(results[c.CandidateID], CheckRange(c, periodCandidates))
		}
		for _, r := range CheckArithmetic(periodCandidates) {
			results[r.CandidateID] = append(results[r.CandidateID], r)
		}
	}

	for _, r := range CheckYoY(candidates) {
		results[r.CandidateID] = append(results[r.CandidateID], r)
	}

	return results
}

func groupByPeriod(candidates []model.CandidateValue) map[string][]model.CandidateValue {
	groups := make(map[string][]model.CandidateValue)
	for _, c := range candidates {
		key := ""
		if c.PeriodEndDate != nil {
			key = c.PeriodEndDate.Format(time.RFC3339)
		}
		groups[key] = append(groups[key], c)
	}
	return groups
}

