package candidate

import (
	"time"

	"github.com/finxtract/finxtract/internal/label"
	"github.com/finxtract/finxtract/internal/model"
	"github.com/finxtract/finxtract/internal/period"
)

// FromTable generates candidates from one table, interpreting its first
// header row as per-column period labels and each data row's first cell
// as the line-item label, with the remaining cells as that line item's
// value under each period column. Columns whose header does not parse as
// a period are skipped; row labels are standardized but never filtered —
// a line item outside the canonical vocabulary is emitted under its
// cleaned label, since a table cell in a located statement is the
// primary extraction source and dropping it would lose a real figure.
func FromTable(table model.TableBlock, sectionID string, sectionType model.SectionType) []model.CandidateValue {
	if len(table.Headers) == 0 || len(table.Data) == 0 {
		return nil
	}

	periodHeader := table.Headers[0]
	periodByColumn := make(map[int]period.Period)
	for col, h := range periodHeader {
		if col == 0 {
			continue // column 0 is the line-item label, not a period
		}
		if p, ok := period.Parse(h); ok {
			periodByColumn[col] = p
		}
	}

	var candidates []model.CandidateValue
	for rowIdx, row := range table.Data {
		if len(row) == 0 {
			continue
		}
		canonical := label.Standardize(row[0])
		if canonical == "" {
			continue
		}

		for col := 1; col < len(row); col++ {
			p, ok := periodByColumn[col]
			if !ok {
				continue
			}
			parsed, ok := ParseNumericToken(row[col])
			if !ok {
				continue
			}

			currency := table.Metadata.Currency
			if currency == "" {
				currency = parsed.CurrencyHint
			}
			if currency == "" {
				currency = DefaultCurrency
			}
			scaleName := table.Metadata.Scale
			if scaleName == "" {
				scaleName = parsed.ScaleHint
			}
			if scaleName == "" {
				scaleName = DefaultScale
			}

			endDate := p.EndDate
			evidence := model.Evidence{
				TableID:     table.TableID,
				RowIndex:    rowIdx,
				ColumnIndex: col,
				RawLabel:    row[0],
				RawValue:    row[col],
				Page:        table.PageNumber,
				PeriodLabel: period.NormalizeLabel(p),
				SectionID:   sectionID,
			}

			candidates = append(candidates, model.CandidateValue{
				CandidateID:         model.NewID("cand"),
				MetricName:          canonical,
				Value:               parsed.Value,
				Currency:            currency,
				Scale:               scaleName,
				PeriodEndDate:       &endDate,
				SectionType:         sectionType,
				Source:              model.SourceTableCell,
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

// Table and text cells that declare neither a currency nor a scale are
// presumed to follow the dominant convention of UK filings: pounds
// sterling, stated in millions.
const (
	DefaultCurrency = "GBP"
	DefaultScale    = "millions"
)

// now is indirected so callers can stub it in tests; the real pipeline
// never depends on wall-clock value, only on ExtractionTimestamp being
// monotonically informative for debugging.
var now = time.Now
