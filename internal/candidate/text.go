package candidate

import (
	"regexp"
	"strings"

	"github.com/finxtract/finxtract/internal/label"
	"github.com/finxtract/finxtract/internal/model"
	"github.com/finxtract/finxtract/internal/period"
	"github.com/finxtract/finxtract/internal/scale"
)

// reNarrativeFigure finds a labeled monetary or percentage figure inside a
// sentence, e.g. "Revenue increased to £120.5 million" or "Operating
// margin was 18.2%". Group 1 is the label clause preceding the figure,
// group 2 is the numeric token itself (including symbol/parens/percent),
// group 3 is an optional trailing scale word.
var reNarrativeFigure = regexp.MustCompile(
	`(?i)([A-Za-z][A-Za-z ,'-]{2,60}?)\s+(?:was|were|of|to|at|stood at|increased to|decreased to|rose to|fell to)\s+` +
		`([£$€]?\(?-?[\d,]+(?:\.\d+)?\)?%?)\s*(thousand|million|billion)?`)

// FromText generates candidates from narrative TextBlocks within a
// section. A figure with no period context anywhere in the enclosing
// block's text is skipped rather than guessed at, since attributing it
// to the wrong period would silently corrupt a time series.
func FromText(blocks []model.TextBlock, sectionID string, sectionType model.SectionType) []model.CandidateValue {
	var candidates []model.CandidateValue

	for _, block := range blocks {
		if block.BlockType != model.BlockBody {
			continue
		}
		blockPeriod, periodOK := findPeriodInText(block.Text)
		if !periodOK {
			continue
		}

		for _, match := range reNarrativeFigure.FindAllStringSubmatch(block.Text, -1) {
			labelClause, numericToken, scaleWord := match[1], match[2], match[3]

			canonical := label.Standardize(labelClause)
			if !label.IsCanonical(canonical) {
				continue
			}

			parsed, ok := ParseNumericToken(numericToken)
			if !ok {
				continue
			}

			scaleName := parsed.ScaleHint
			if scaleWord != "" {
				scaleName = scale.Detect(scaleWord)
			}
			if scaleName == "" {
				scaleName = scale.Actual
			}

			currency := parsed.CurrencyHint
			if currency == "" {
				currency = DefaultCurrency
			}

			endDate := blockPeriod.EndDate
			evidence := model.Evidence{
				RawLabel:    strings.TrimSpace(labelClause),
				RawValue:    numericToken,
				Page:        block.PageNumber,
				PeriodLabel: period.NormalizeLabel(blockPeriod),
				SectionID:   sectionID,
				BlockID:     block.BlockID,
			}

			candidates = append(candidates, model.CandidateValue{
				CandidateID:         model.NewID("cand"),
				MetricName:          canonical,
				Value:               parsed.Value,
				Currency:            currency,
				Scale:               scaleName,
				PeriodEndDate:       &endDate,
				SectionType:         sectionType,
				Source:              model.SourceTextBlock,
				Evidence:            evidence,
				ExtractionTimestamp: now(),
			})
		}
	}

	for i := range candidates {
		candidates[i].ConfidenceScore = Score(candidates[i])
	}
	return candidates
}

// reInlinePeriodHint catches the period phrases most likely to appear
// alongside a narrative figure: "for the year ended...", "in FY2023",
// "during the six months ended...".
var reInlinePeriodHint = regexp.MustCompile(`(?i)(?:for the |in |during the )?((?:year|six months?|FY\s?\d{2,4}|Q[1-4]\s?\d{2,4}|H[12]\s?\d{2,4})[^.;]{0,40})`)

func findPeriodInText(text string) (period.Period, bool) {
	for _, match := range reInlinePeriodHint.FindAllStringSubmatch(text, -1) {
		if p, ok := period.Parse(strings.TrimSpace(match[1])); ok {
			return p, true
		}
	}
	// fall back to scanning the whole block for any recognizable period
	// label, since the hint regex above is necessarily incomplete.
	for _, word := range strings.Fields(text) {
		if p, ok := period.Parse(word); ok {
			return p, true
		}
	}
	return period.Period{}, false
}
