package validate

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finxtract/finxtract/internal/model"
)

var decimalHundred = decimal.NewFromInt(100)

// CheckYoY locates, for each candidate with a period end date, the
// candidate one year earlier for the same metric — same month and day,
// year minus one — and flags the signed change
// between them against YoYBoundsRegistry. A candidate with no period end
// date, no prior-year match, or a metric absent from the bounds registry
// always passes: the comparison either cannot be made or carries no
// enforced tolerance.
func CheckYoY(candidates []model.CandidateValue) []model.ValidationResult {
	results := make([]model.ValidationResult, 0, len(candidates))
	for _, c := range candidates {
		prev, ok := findPriorYear(candidates, c)
		if !ok {
			results = append(results, model.ValidationResult{
				CandidateID: c.CandidateID,
				RuleName:    "yoy_check",
				Status:      model.StatusValid,
			})
			continue
		}
		results = append(results, checkPair(c, prev))
	}
	return results
}

// findPriorYear returns the candidate sharing current's metric whose
// period end date is exactly one year earlier by the rule
// isOneYearEarlier encodes, if any.
func findPriorYear(candidates []model.CandidateValue, current model.CandidateValue) (model.CandidateValue, bool) {
	if current.PeriodEndDate == nil {
		return model.CandidateValue{}, false
	}
	for _, c := range candidates {
		if c.CandidateID == current.CandidateID || c.MetricName != current.MetricName || c.PeriodEndDate == nil {
			continue
		}
		if isOneYearEarlier(*current.PeriodEndDate, *c.PeriodEndDate) {
			return c, true
		}
	}
	return model.CandidateValue{}, false
}

// isOneYearEarlier reports whether candidate falls exactly one year
// before current, matched on calendar month and day. To avoid silently
// treating a leap-year filing as having no prior-year comparison at all,
// Feb 29 is allowed to match Feb 28 one year earlier and vice versa —
// the only month/day pair that can legitimately shift under the
// Gregorian calendar.
func isOneYearEarlier(current, candidate time.Time) bool {
	if candidate.Year() != current.Year()-1 {
		return false
	}
	if candidate.Month() == current.Month() && candidate.Day() == current.Day() {
		return true
	}
	if current.Month() == time.February && candidate.Month() == time.February {
		if (current.Day() == 29 && candidate.Day() == 28) || (current.Day() == 28 && candidate.Day() == 29) {
			return true
		}
	}
	return false
}

func checkPair(current, previous model.CandidateValue) model.ValidationResult {
	base := model.ValidationResult{CandidateID: current.CandidateID, RuleName: "yoy_check"}

	if previous.Value.IsZero() {
		base.Status = model.StatusValid
		base.Message = fmt.Sprintf("%s prior-year value is zero, cannot compute change", current.MetricName)
		return base
	}

	change := current.Value.Sub(previous.Value).Div(previous.Value.Abs())

	bounds, ok := yoyBoundsFor(current.MetricName)
	if !ok {
		base.Status = model.StatusValid
		base.Message = fmt.Sprintf("%s changed %s%% year over year (no bounds registered)", current.MetricName, change.Mul(decimalHundred).StringFixed(1))
		return base
	}

	if change.LessThan(bounds.Min) || change.GreaterThan(bounds.Max) {
		base.Status = model.StatusInvalid
		base.Severity = model.SeverityMajor
		base.Message = fmt.Sprintf("%s changed %s%% year over year, outside [%s%%, %s%%]",
			current.MetricName, change.Mul(decimalHundred).StringFixed(1), bounds.Min.Mul(decimalHundred).StringFixed(0), bounds.Max.Mul(decimalHundred).StringFixed(0))
		return base
	}

	base.Status = model.StatusValid
	return base
}
