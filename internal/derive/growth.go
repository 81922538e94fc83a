// Package derive computes metrics that are not extracted directly but
// calculated from other metrics already in a run: year-over-year growth
// rates and the standard profitability/leverage/liquidity ratio set.
package derive

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finxtract/finxtract/internal/label"
	"github.com/finxtract/finxtract/internal/model"
)

// growthTargets are the headline metrics YoY growth is derived for, with
// the display name each derived metric carries.
var growthTargets = []struct {
	metric      string
	displayName string
}{
	{label.Revenue, "Revenue Growth"},
	{label.EBITDA, "EBITDA Growth"},
	{label.NetIncome, "Net Income Growth"},
	{label.OperatingProfit, "Operating Profit Growth"},
}

// GrowthRate computes (current - previous) / |previous| as a decimal
// fraction (0.10 = 10% growth), returning ok=false when previous is zero
// since the ratio is undefined rather than merely large.
func GrowthRate(current, previous decimal.Decimal) (decimal.Decimal, bool) {
	if previous.IsZero() {
		return decimal.Zero, false
	}
	return current.Sub(previous).Div(previous.Abs()), true
}

// GrowthRates derives a "<name> YoY" metric for each consecutive period
// pair of each growth target, in ascending period order. A rate outside
// the configured bounds is logged as a warning but still emitted.
func (d *Deriver) GrowthRates(metrics []model.FinancialMetric) []model.FinancialMetric {
	targeted := make(map[string]string, len(growthTargets))
	for _, t := range growthTargets {
		targeted[t.metric] = t.displayName
	}

	var derived []model.FinancialMetric
	for _, points := range groupByMetricChronological(metrics) {
		if len(points) < 2 {
			continue
		}
		displayName, ok := targeted[points[0].MetricName]
		if !ok {
			continue
		}

		for i := 1; i < len(points); i++ {
			rate, ok := GrowthRate(points[i].Value, points[i-1].Value)
			if !ok {
				continue
			}

			if rate.LessThan(d.yoyMin) || rate.GreaterThan(d.yoyMax) {
				if d.logger != nil {
					d.logger.Warn().
						Str("metric", points[0].MetricName).
						Str("growth_rate", rate.StringFixed(4)).
						Msg("growth rate outside configured bounds, emitting anyway")
				}
			}

			derived = append(derived, model.FinancialMetric{
				CandidateID:      model.NewID("derived"),
				MetricName:       displayName + " YoY",
				Value:            rate,
				Currency:         "", // a ratio, not a currency amount
				Scale:            "actual",
				PeriodEndDate:    points[i].PeriodEndDate,
				SectionType:      points[i].SectionType,
				EntityType:       points[i].EntityType,
				ExtractionMethod: model.MethodCalculated,
				Notes:            fmt.Sprintf("derived: (%s_t - %s_t-1) / |%s_t-1|", points[0].MetricName, points[0].MetricName, points[0].MetricName),
			})
		}
	}
	return derived
}
