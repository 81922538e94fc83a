package derive

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/ternarybob/arbor"

	"github.com/finxtract/finxtract/internal/model"
)

// Deriver computes the derived metric set over a run's adjudicated
// metrics. YoY growth bounds are advisory: a growth rate outside them is
// logged as a warning but still emitted, since an extreme-but-real swing
// is information, not an error.
type Deriver struct {
	logger arbor.ILogger
	yoyMin decimal.Decimal
	yoyMax decimal.Decimal
}

// New builds a Deriver with the configured YoY growth bounds
// (common.DefaultYoYGrowthMin/Max unless overridden).
func New(logger arbor.ILogger, yoyMin, yoyMax decimal.Decimal) *Deriver {
	return &Deriver{logger: logger, yoyMin: yoyMin, yoyMax: yoyMax}
}

// All computes every derived metric for a run: per-period profitability,
// leverage, and liquidity ratios, plus year-over-year growth rates for
// the headline metrics with more than one period's worth of values.
// Derived metrics are emitted in ascending period order within each
// group.
func (d *Deriver) All(metrics []model.FinancialMetric) []model.FinancialMetric {
	var derived []model.FinancialMetric

	for _, periodMetrics := range ByPeriod(metrics) {
		derived = append(derived, Ratios(periodMetrics)...)
	}

	derived = append(derived, d.GrowthRates(metrics)...)

	return derived
}

func groupByMetricChronological(metrics []model.FinancialMetric) [][]model.FinancialMetric {
	byMetric := make(map[string][]model.FinancialMetric)
	var order []string
	for _, m := range metrics {
		if _, seen := byMetric[m.MetricName]; !seen {
			order = append(order, m.MetricName)
		}
		byMetric[m.MetricName] = append(byMetric[m.MetricName], m)
	}

	out := make([][]model.FinancialMetric, 0, len(order))
	for _, name := range order {
		points := byMetric[name]
		sort.SliceStable(points, func(i, j int) bool {
			if points[i].PeriodEndDate == nil || points[j].PeriodEndDate == nil {
				return false
			}
			return points[i].PeriodEndDate.Before(*points[j].PeriodEndDate)
		})
		out = append(out, points)
	}
	return out
}
