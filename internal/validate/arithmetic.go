package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finxtract/finxtract/internal/model"
)

// CheckArithmetic evaluates every IdentityRegistry entry against one
// period's candidates (all candidates sharing the same PeriodEndDate),
// returning one ValidationResult per candidate whose metric is an
// identity's LHS — each occurrence is checked individually, so a period
// with two conflicting total_assets figures gets a finding on both.
// Operands are located by plain first match within the period, the same
// convention CheckRange uses for its revenue lookup. Identities with a
// missing operand are skipped entirely — there is nothing to validate.
func CheckArithmetic(periodCandidates []model.CandidateValue) []model.ValidationResult {
	var results []model.ValidationResult
	for _, c := range periodCandidates {
		for _, identity := range IdentityRegistry {
			if identity.LHS != c.MetricName {
				continue
			}

			computed, complete := sumOperands(periodCandidates, identity)
			if !complete {
				continue
			}

			// |observed - expected| <= tolerance * |expected|
			diff := c.Value.Sub(computed).Abs()
			denom := computed.Abs()
			ratio := diff
			if !denom.IsZero() {
				ratio = diff.Div(denom)
			}

			result := model.ValidationResult{
				CandidateID: c.CandidateID,
				RuleName:    identity.Name,
			}
			if ratio.GreaterThan(identity.Tolerance) {
				result.Status = model.StatusNeedsReview
				result.Severity = model.SeverityMajor
				result.Message = fmt.Sprintf("%s: reported %s, computed %s (diff %s)", identity.Name, c.Value, computed, diff)
			} else {
				result.Status = model.StatusValid
			}
			results = append(results, result)
		}
	}
	return results
}

func sumOperands(periodCandidates []model.CandidateValue, identity Identity) (computed decimal.Decimal, complete bool) {
	complete = true
	sum := decimal.Zero
	for _, metric := range identity.RHSPositive {
		c, ok := findMetric(periodCandidates, metric)
		if !ok {
			complete = false
			continue
		}
		sum = sum.Add(c.Value)
	}
	for _, metric := range identity.RHSNegative {
		c, ok := findMetric(periodCandidates, metric)
		if !ok {
			complete = false
			continue
		}
		sum = sum.Sub(c.Value)
	}
	return sum, complete
}
