package validate

import (
	"fmt"

	"github.com/finxtract/finxtract/internal/label"
	"github.com/finxtract/finxtract/internal/model"
)

// CheckRange validates one candidate against RangeRegistry by computing
// its ratio to the period's revenue and comparing that ratio, not the
// raw value, against the registered bounds. A metric with no registered
// bounds, a period with no revenue candidate, or zero revenue (the ratio
// is undefined) always passes.
//
// periodCandidates is every candidate sharing c's period; revenue is
// found within it by plain first match.
func CheckRange(c model.CandidateValue, periodCandidates []model.CandidateValue) model.ValidationResult {
	bounds, ok := boundsFor(c.MetricName)
	if !ok {
		return model.ValidationResult{
			CandidateID: c.CandidateID,
			RuleName:    "range_check",
			Status:      model.StatusValid,
		}
	}

	revenue, ok := findMetric(periodCandidates, label.Revenue)
	if !ok || revenue.Value.IsZero() {
		return model.ValidationResult{
			CandidateID: c.CandidateID,
			RuleName:    "range_check",
			Status:      model.StatusValid,
		}
	}

	ratio := c.Value.Div(revenue.Value)
	if ratio.LessThan(bounds.Min) || ratio.GreaterThan(bounds.Max) {
		return model.ValidationResult{
			CandidateID: c.CandidateID,
			RuleName:    "range_check",
			Status:      model.StatusInvalid,
			Severity:    model.SeverityMajor,
			Message:     fmt.Sprintf("%s/revenue ratio %s outside plausible range [%s, %s]", c.MetricName, ratio.StringFixed(2), bounds.Min, bounds.Max),
			Details: map[string]string{
				"ratio": ratio.String(),
				"min":   bounds.Min.String(),
				"max":   bounds.Max.String(),
			},
		}
	}

	return model.ValidationResult{
		CandidateID: c.CandidateID,
		RuleName:    "range_check",
		Status:      model.StatusValid,
	}
}

// findMetric returns the first candidate in candidates with the given
// metric name. No preference between table-path and text-path candidates
// is applied, just first match.
func findMetric(candidates []model.CandidateValue, metricName string) (model.CandidateValue, bool) {
	for _, c := range candidates {
		if c.MetricName == metricName {
			return c, true
		}
	}
	return model.CandidateValue{}, false
}
