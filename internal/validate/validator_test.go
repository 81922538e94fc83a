package validate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finxtract/finxtract/internal/label"
	"github.com/finxtract/finxtract/internal/model"
)

func TestCheckRange_WithinBounds(t *testing.T) {
	period := []model.CandidateValue{
		{CandidateID: "rev", MetricName: label.Revenue, Value: decimal.NewFromInt(1000)},
		{CandidateID: "c1", MetricName: label.NetIncome, Value: decimal.NewFromInt(100)},
	}
	r := CheckRange(period[1], period)
	assert.Equal(t, model.StatusValid, r.Status)
}

func TestCheckRange_OutOfBounds(t *testing.T) {
	period := []model.CandidateValue{
		{CandidateID: "rev", MetricName: label.Revenue, Value: decimal.NewFromInt(1000)},
		{CandidateID: "c1", MetricName: label.NetIncome, Value: decimal.NewFromInt(5000)},
	}
	r := CheckRange(period[1], period)
	assert.Equal(t, model.StatusInvalid, r.Status)
}

func TestCheckRange_UnregisteredMetricAlwaysValid(t *testing.T) {
	period := []model.CandidateValue{
		{CandidateID: "rev", MetricName: label.Revenue, Value: decimal.NewFromInt(1000)},
		{CandidateID: "c1", MetricName: "something_unregistered", Value: decimal.NewFromInt(999999999)},
	}
	r := CheckRange(period[1], period)
	assert.Equal(t, model.StatusValid, r.Status)
}

func TestCheckRange_NoRevenueInPeriodAlwaysValid(t *testing.T) {
	period := []model.CandidateValue{
		{CandidateID: "c1", MetricName: label.NetIncome, Value: decimal.NewFromInt(5000)},
	}
	r := CheckRange(period[0], period)
	assert.Equal(t, model.StatusValid, r.Status)
}

func TestCheckUnit_UnknownCurrency(t *testing.T) {
	c := model.CandidateValue{CandidateID: "c1", Currency: "XYZ"}
	r := CheckUnit(c)
	assert.Equal(t, model.StatusInvalid, r.Status)
	assert.Equal(t, model.SeverityCritical, r.Severity)
}

func TestCheckUnit_EmptyIsValid(t *testing.T) {
	c := model.CandidateValue{CandidateID: "c1"}
	r := CheckUnit(c)
	assert.Equal(t, model.StatusValid, r.Status)
}

func TestCheckArithmetic_GrossProfitHolds(t *testing.T) {
	period := []model.CandidateValue{
		{CandidateID: "rev", MetricName: label.Revenue, Value: decimal.NewFromInt(1000), ConfidenceScore: 0.9},
		{CandidateID: "cos", MetricName: label.CostOfSales, Value: decimal.NewFromInt(400), ConfidenceScore: 0.9},
		{CandidateID: "gp", MetricName: label.GrossProfit, Value: decimal.NewFromInt(600), ConfidenceScore: 0.9},
	}
	results := CheckArithmetic(period)
	require.Len(t, results, 1)
	assert.Equal(t, model.StatusValid, results[0].Status)
}

func TestCheckArithmetic_GrossProfitViolation(t *testing.T) {
	period := []model.CandidateValue{
		{CandidateID: "rev", MetricName: label.Revenue, Value: decimal.NewFromInt(1000), ConfidenceScore: 0.9},
		{CandidateID: "cos", MetricName: label.CostOfSales, Value: decimal.NewFromInt(400), ConfidenceScore: 0.9},
		{CandidateID: "gp", MetricName: label.GrossProfit, Value: decimal.NewFromInt(900), ConfidenceScore: 0.9},
	}
	results := CheckArithmetic(period)
	require.Len(t, results, 1)
	assert.Equal(t, model.StatusNeedsReview, results[0].Status)
}

func TestCheckArithmetic_TotalAssetsComponentsTieOut(t *testing.T) {
	period := []model.CandidateValue{
		{CandidateID: "ca", MetricName: label.CurrentAssets, Value: decimal.NewFromInt(300), ConfidenceScore: 0.9},
		{CandidateID: "nca", MetricName: label.NonCurrentAssets, Value: decimal.NewFromInt(700), ConfidenceScore: 0.9},
		{CandidateID: "ta", MetricName: label.TotalAssets, Value: decimal.NewFromInt(1000), ConfidenceScore: 0.9},
	}
	results := CheckArithmetic(period)
	require.Len(t, results, 1)
	assert.Equal(t, "total_assets_components", results[0].RuleName)
	assert.Equal(t, model.StatusValid, results[0].Status)
}

func TestCheckArithmetic_TotalAssetsComponentsOutsideTolerance(t *testing.T) {
	period := []model.CandidateValue{
		{CandidateID: "ca", MetricName: label.CurrentAssets, Value: decimal.NewFromInt(300), ConfidenceScore: 0.9},
		{CandidateID: "nca", MetricName: label.NonCurrentAssets, Value: decimal.NewFromInt(700), ConfidenceScore: 0.9},
		{CandidateID: "ta", MetricName: label.TotalAssets, Value: decimal.NewFromInt(1060), ConfidenceScore: 0.9},
	}
	results := CheckArithmetic(period)
	require.Len(t, results, 1)
	assert.Equal(t, model.StatusNeedsReview, results[0].Status)

	// a single rule violation aggregates to needs_review, routing the
	// candidate to adjudication
	assert.Equal(t, model.StatusNeedsReview, model.AggregateStatus(results))
	assert.True(t, model.NeedsAdjudication(model.AggregateStatus(results)))
}

func TestCheckArithmetic_EveryDuplicateLHSCandidateChecked(t *testing.T) {
	period := []model.CandidateValue{
		{CandidateID: "ca", MetricName: label.CurrentAssets, Value: decimal.NewFromInt(300), ConfidenceScore: 0.9},
		{CandidateID: "nca", MetricName: label.NonCurrentAssets, Value: decimal.NewFromInt(700), ConfidenceScore: 0.9},
		{CandidateID: "ta1", MetricName: label.TotalAssets, Value: decimal.NewFromInt(1000), ConfidenceScore: 0.9},
		{CandidateID: "ta2", MetricName: label.TotalAssets, Value: decimal.NewFromInt(1200), ConfidenceScore: 0.4},
	}
	results := CheckArithmetic(period)
	require.Len(t, results, 2)

	byID := make(map[string]model.ValidationResult)
	for _, r := range results {
		byID[r.CandidateID] = r
	}
	assert.Equal(t, model.StatusValid, byID["ta1"].Status)
	assert.Equal(t, model.StatusNeedsReview, byID["ta2"].Status)
}

func TestCheckArithmetic_IncompleteOperandsSkipsIdentity(t *testing.T) {
	period := []model.CandidateValue{
		{CandidateID: "gp", MetricName: label.GrossProfit, Value: decimal.NewFromInt(600), ConfidenceScore: 0.9},
	}
	results := CheckArithmetic(period)
	assert.Empty(t, results)
}

func TestCheckYoY_NoPriorYearCandidateAlwaysValid(t *testing.T) {
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	points := []model.CandidateValue{{CandidateID: "c1", MetricName: label.Revenue, Value: decimal.NewFromInt(100), PeriodEndDate: &end}}
	results := CheckYoY(points)
	require.Len(t, results, 1)
	assert.Equal(t, model.StatusValid, results[0].Status)
}

func TestCheckYoY_FlagsExtremeMovement(t *testing.T) {
	prior := time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC)
	current := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	points := []model.CandidateValue{
		{CandidateID: "c1", MetricName: label.Revenue, Value: decimal.NewFromInt(100), PeriodEndDate: &prior},
		{CandidateID: "c2", MetricName: label.Revenue, Value: decimal.NewFromInt(10000), PeriodEndDate: &current},
	}
	results := CheckYoY(points)
	require.Len(t, results, 2)
	assert.Equal(t, model.StatusInvalid, results[1].Status)
}

func TestCheckYoY_NonAdjacentCalendarDatesNotCompared(t *testing.T) {
	unrelated := time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC)
	current := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	points := []model.CandidateValue{
		{CandidateID: "c1", MetricName: label.Revenue, Value: decimal.NewFromInt(100), PeriodEndDate: &unrelated},
		{CandidateID: "c2", MetricName: label.Revenue, Value: decimal.NewFromInt(10000), PeriodEndDate: &current},
	}
	results := CheckYoY(points)
	require.Len(t, results, 2)
	assert.Equal(t, model.StatusValid, results[0].Status)
	assert.Equal(t, model.StatusValid, results[1].Status)
}

func TestCheckYoY_Feb29MatchesFeb28OneYearEarlier(t *testing.T) {
	prior := time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)
	leap := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	points := []model.CandidateValue{
		{CandidateID: "c1", MetricName: label.Revenue, Value: decimal.NewFromInt(100), PeriodEndDate: &prior},
		{CandidateID: "c2", MetricName: label.Revenue, Value: decimal.NewFromInt(110), PeriodEndDate: &leap},
	}
	results := CheckYoY(points)
	require.Len(t, results, 2)
	assert.Equal(t, model.StatusValid, results[1].Status)
}

func TestAggregateStatus_AddingViolationNeverImprovesStatus(t *testing.T) {
	rank := map[model.ValidationStatus]int{
		model.StatusValid: 0, model.StatusNeedsReview: 1, model.StatusInvalid: 2,
	}
	violation := model.ValidationResult{Status: model.StatusInvalid}

	results := []model.ValidationResult{{Status: model.StatusValid}}
	for i := 0; i < 3; i++ {
		before := model.AggregateStatus(results)
		results = append(results, violation)
		after := model.AggregateStatus(results)
		assert.GreaterOrEqual(t, rank[after], rank[before])
	}
}

func TestValidator_Validate_AggregatesAllRules(t *testing.T) {
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	candidates := []model.CandidateValue{
		{CandidateID: "c1", MetricName: label.Revenue, Value: decimal.NewFromInt(500), Currency: "GBP", PeriodEndDate: &end},
	}
	v := New()
	results := v.Validate(candidates)
	require.Contains(t, results, "c1")
	assert.NotEmpty(t, results["c1"])
}
