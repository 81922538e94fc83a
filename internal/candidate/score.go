package candidate

import (
	"github.com/finxtract/finxtract/internal/model"
)

// Confidence scoring weights: a table cell read against a labeled
// row/column is a more reliable signal than a number recovered from
// narrative prose; a candidate found inside one of the three primary
// statements outranks one from notes or commentary; a resolved period
// and a rich evidence trail each add further trust, the latter capped.
const (
	baseTableCell       = 0.40
	baseTextBlock       = 0.20
	sectionPrimaryBonus = 0.20
	sectionOtherBonus   = 0.10
	periodKnownBonus    = 0.20
	evidenceWeight      = 0.03
	maxEvidenceBonus    = 0.20
)

func isPrimaryStatement(st model.SectionType) bool {
	switch st {
	case model.SectionIncomeStatement, model.SectionBalanceSheet, model.SectionCashFlow:
		return true
	default:
		return false
	}
}

// Score computes a candidate's confidence from its source, section,
// period resolution, and evidence density. The maximum attainable score
// is exactly 1.0: a table cell in a primary statement with a known
// period end date and seven or more populated evidence fields.
func Score(c model.CandidateValue) float64 {
	score := baseTextBlock
	if c.Source == model.SourceTableCell {
		score = baseTableCell
	}

	if isPrimaryStatement(c.SectionType) {
		score += sectionPrimaryBonus
	} else {
		score += sectionOtherBonus
	}

	if c.PeriodEndDate != nil {
		score += periodKnownBonus
	}

	bonus := evidenceWeight * float64(c.Evidence.NonNullFieldCount())
	if bonus > maxEvidenceBonus {
		bonus = maxEvidenceBonus
	}
	score += bonus

	if score > 1.0 {
		score = 1.0
	}
	return score
}
