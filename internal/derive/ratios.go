package derive

import (
	"sort"

	"github.com/finxtract/finxtract/internal/label"
	"github.com/finxtract/finxtract/internal/model"
)

// Derived ratio display names, one per profitability/leverage/liquidity
// category.
const (
	RatioEBITDAMargin    = "EBITDA Margin"
	RatioNetMargin       = "Net Margin"
	RatioOperatingMargin = "Operating Margin"
	RatioDebtToEBITDA    = "Net Debt / EBITDA"
	RatioDebtToEquity    = "Debt-to-Equity"
	RatioCurrentRatio    = "Current Ratio"
	RatioCashRatio       = "Cash Ratio"
)

// ratioDef describes one ratio as numerator/denominator canonical metric
// names, letting Ratios iterate a table instead of hand-coding each
// computation's period-matching logic seven times over. numeratorKeys
// are tried in order; the first one present in the period wins (the
// net-debt-or-total-debt and cash-key-variants fallbacks).
type ratioDef struct {
	name          string
	numeratorKeys []string
	denominator   string
	formula       string
}

var ratioRegistry = []ratioDef{
	{RatioEBITDAMargin, []string{label.EBITDA}, label.Revenue, "EBITDA / Revenue"},
	{RatioNetMargin, []string{label.NetIncome}, label.Revenue, "Net Income / Revenue"},
	{RatioOperatingMargin, []string{label.OperatingProfit}, label.Revenue, "Operating Profit / Revenue"},
	{RatioDebtToEBITDA, []string{label.NetDebt, label.TotalDebt}, label.EBITDA, "Net Debt / EBITDA"},
	{RatioDebtToEquity, []string{label.TotalDebt}, label.TotalEquity, "Total Debt / Total Equity"},
	{RatioCurrentRatio, []string{label.CurrentAssets}, label.CurrentLiabilities, "Current Assets / Current Liabilities"},
	{RatioCashRatio, label.CashKeys, label.CurrentLiabilities, "Cash / Current Liabilities"},
}

// Ratios computes every registered ratio for one period's metrics,
// indexed by canonical metric name, skipping any ratio whose numerator
// or denominator is absent from that period or whose denominator is
// zero.
func Ratios(periodMetrics []model.FinancialMetric) []model.FinancialMetric {
	byMetric := make(map[string]model.FinancialMetric, len(periodMetrics))
	for _, m := range periodMetrics {
		if _, seen := byMetric[m.MetricName]; !seen {
			byMetric[m.MetricName] = m
		}
	}

	var derived []model.FinancialMetric
	for _, def := range ratioRegistry {
		var num model.FinancialMetric
		found := false
		for _, key := range def.numeratorKeys {
			if m, ok := byMetric[key]; ok {
				num = m
				found = true
				break
			}
		}
		den, ok := byMetric[def.denominator]
		if !found || !ok || den.Value.IsZero() {
			continue
		}

		derived = append(derived, model.FinancialMetric{
			CandidateID:      model.NewID("derived"),
			MetricName:       def.name,
			Value:            num.Value.Div(den.Value),
			Scale:            "actual",
			PeriodEndDate:    num.PeriodEndDate,
			SectionType:      num.SectionType,
			EntityType:       num.EntityType,
			ExtractionMethod: model.MethodCalculated,
			Notes:            "derived ratio: " + def.formula,
		})
	}
	return derived
}

// ByPeriod groups a run's metrics by PeriodEndDate so Ratios can be
// applied one period at a time. Groups are returned in ascending period
// order (metrics without a period end date first), not map iteration
// order, so Deriver.All's output is reproducible across identical runs.
func ByPeriod(metrics []model.FinancialMetric) [][]model.FinancialMetric {
	groups := make(map[string][]model.FinancialMetric)
	var order []string
	for _, m := range metrics {
		key := ""
		if m.PeriodEndDate != nil {
			key = m.PeriodEndDate.Format("2006-01-02")
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], m)
	}
	sort.Strings(order)

	out :=make([][]model.FinancialMetric, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key])
	}
	return out
}
