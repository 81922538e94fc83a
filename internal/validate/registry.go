// Package validate applies deterministic rules against normalized
// candidates: unit sanity, plausible-range bounds, year-over-year
// movement checks, and arithmetic identities between related line items.
// Every rule is expressed as data in a registry rather than as bespoke
// code per metric, following the same priority-table idiom as package
// label's standardization rules — new bounds or identities are added by
// extending a table, not by writing a new function.
package validate

import (
	"github.com/shopspring/decimal"

	"github.com/finxtract/finxtract/internal/label"
)

// Bounds is a plausible range for one canonical metric's ratio to revenue
// in the same period. A metric absent from the registry is not
// range-checked, and a period with no revenue candidate to divide by is
// likewise skipped rather than guessed at.
type Bounds struct {
	Metric string
	Min    decimal.Decimal
	Max    decimal.Decimal
}

// RangeRegistry holds ratio-to-revenue bounds for metrics a filing
// commonly reports, carried over from the deterministic validator this
// rule is grounded on (see internal/validate/range.go). Bounds are
// deliberately loose — their purpose is to catch extraction faults (a
// misplaced decimal point, a scale mismatch) rather than to flag
// genuinely unusual but real figures. Revenue itself is absent: its
// ratio to itself is always 1 and carries no signal.
var RangeRegistry = []Bounds{
	{label.GrossProfit, decimal.NewFromFloat(0.0), decimal.NewFromFloat(1.0)},
	{label.OperatingProfit, decimal.NewFromFloat(-0.5), decimal.NewFromFloat(1.0)},
	{label.NetIncome, decimal.NewFromFloat(-1.0), decimal.NewFromFloat(1.0)},
	{label.EBITDA, decimal.NewFromFloat(-0.5), decimal.NewFromFloat(1.5)},
	{label.CurrentAssets, decimal.NewFromFloat(0.0), decimal.NewFromFloat(10.0)},
	{label.TotalAssets, decimal.NewFromFloat(0.0), decimal.NewFromFloat(50.0)},
	{label.CurrentLiabilities, decimal.NewFromFloat(0.0), decimal.NewFromFloat(10.0)},
	{label.TotalLiabilities, decimal.NewFromFloat(0.0), decimal.NewFromFloat(50.0)},
	{label.TotalEquity, decimal.NewFromFloat(-5.0), decimal.NewFromFloat(50.0)},
}

func boundsFor(metric string) (Bounds, bool) {
	for _, b := range RangeRegistry {
		if b.Metric == metric {
			return b, true
		}
	}
	return Bounds{}, false
}

// YoYBounds is a plausible range for one canonical metric's signed
// year-over-year change, expressed as a fraction of the prior period's
// magnitude. A metric absent from the registry still has its prior-year
// candidate located and its change computed (CheckYoY reports it), but
// no bound is enforced against it.
type YoYBounds struct {
	Metric string
	Min    decimal.Decimal
	Max    decimal.Decimal
}

// YoYBoundsRegistry lists per-metric swing tolerances rather than one
// ratio applied uniformly across metrics. Steadier lines like revenue
// tolerate far less swing than net income, which can legitimately move
// from a small loss to a large profit year over year.
var YoYBoundsRegistry = []YoYBounds{
	{label.Revenue, decimal.NewFromFloat(-0.50), decimal.NewFromFloat(2.0)},
	{label.GrossProfit, decimal.NewFromFloat(-0.70), decimal.NewFromFloat(3.0)},
	{label.OperatingProfit, decimal.NewFromFloat(-2.0), decimal.NewFromFloat(5.0)},
	{label.NetIncome, decimal.NewFromFloat(-3.0), decimal.NewFromFloat(10.0)},
	{label.TotalAssets, decimal.NewFromFloat(-0.30), decimal.NewFromFloat(1.0)},
	{label.TotalEquity, decimal.NewFromFloat(-0.50), decimal.NewFromFloat(1.5)},
}

func yoyBoundsFor(metric string) (YoYBounds, bool) {
	for _, b := range YoYBoundsRegistry {
		if b.Metric == metric {
			return b, true
		}
	}
	return YoYBounds{}, false
}

// Identity is an arithmetic relationship between canonical metrics,
// expressed as lhs = sum(rhsPositive) - sum(rhsNegative), checked within
// Tolerance of the computed value.
type Identity struct {
	Name        string
	LHS         string
	RHSPositive []string
	RHSNegative []string
	Tolerance   decimal.Decimal
}

// DefaultIdentityTolerance is the fraction of the expected value an
// observed figure may miss an arithmetic identity by before being
// flagged.
var DefaultIdentityTolerance = decimal.NewFromFloat(0.05)

// IdentityRegistry lists the arithmetic identities checked per period:
// total assets and total liabilities as the sum of their current and
// non-current components, gross profit = revenue - cost of sales, and
// operating profit = gross profit - operating expenses. The accounting
// equation (assets = liabilities + equity) rides along as a second
// identity for total_assets when its operands are present.
var IdentityRegistry = []Identity{
	{
		Name:        "total_assets_components",
		LHS:         label.TotalAssets,
		RHSPositive: []string{label.CurrentAssets, label.NonCurrentAssets},
		RHSNegative: nil,
		Tolerance:   DefaultIdentityTolerance,
	},
	{
		Name:        "total_liabilities_components",
		LHS:         label.TotalLiabilities,
		RHSPositive: []string{label.CurrentLiabilities, label.NonCurrentLiabilities},
		RHSNegative: nil,
		Tolerance:   DefaultIdentityTolerance,
	},
	{
		Name:        "gross_profit_identity",
		LHS:         label.GrossProfit,
		RHSPositive: []string{label.Revenue},
		RHSNegative: []string{label.CostOfSales},
		Tolerance:   DefaultIdentityTolerance,
	},
	{
		Name:        "operating_profit_identity",
		LHS:         label.OperatingProfit,
		RHSPositive: []string{label.GrossProfit},
		RHSNegative: []string{label.OperatingExpenses},
		Tolerance:   DefaultIdentityTolerance,
	},
	{
		Name:        "accounting_equation",
		LHS:         label.TotalAssets,
		RHSPositive: []string{label.TotalLiabilities, label.TotalEquity},
		RHSNegative: nil,
		Tolerance:   DefaultIdentityTolerance,
	},
}
