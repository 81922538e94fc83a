package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finxtract/finxtract/internal/currency"
	"github.com/finxtract/finxtract/internal/model"
)

func TestApply_ConvertsCurrencyAndScale(t *testing.T) {
	table := currency.NewStaticTable([]currency.Rate{{From: "USD", To: "GBP", Rate: decimal.NewFromFloat(0.8)}})
	svc := New(table, "GBP", "millions", nil)

	candidates := []model.CandidateValue{
		{MetricName: "revenue", Value: decimal.NewFromInt(100), Currency: "USD", Scale: "thousands"},
	}

	normalized, series, _ := svc.Apply(candidates)
	require.Len(t, normalized, 1)
	assert.Equal(t, "GBP", normalized[0].Currency)
	assert.Equal(t, "millions", normalized[0].Scale)
	// 100 USD thousands -> 80 GBP thousands -> 0.08 GBP millions
	assert.True(t, decimal.NewFromFloat(0.08).Equal(normalized[0].Value))

	require.Len(t, series, 1)
	assert.Equal(t, "revenue", series[0].MetricName)
}

func TestApply_UnknownCurrencyPassesThroughUnchanged(t *testing.T) {
	table := currency.NewStaticTable(nil)
	svc := New(table, "GBP", "millions", nil)
	normalized, _, _ := svc.Apply([]model.CandidateValue{
		{MetricName: "revenue", Value: decimal.NewFromInt(1), Currency: "JPY", Scale: "millions"},
	})
	require.Len(t, normalized, 1)
	assert.Equal(t, "JPY", normalized[0].Currency)
	assert.True(t, decimal.NewFromInt(1).Equal(normalized[0].Value))
}

func TestApply_Idempotent(t *testing.T) {
	table := currency.NewStaticTable([]currency.Rate{{From: "USD", To: "GBP", Rate: decimal.NewFromFloat(0.8)}})
	svc := New(table, "GBP", "millions", nil)

	candidates := []model.CandidateValue{
		{CandidateID: "c1", MetricName: "revenue", Value: decimal.NewFromInt(100), Currency: "USD", Scale: "thousands"},
	}
	once, _, _ := svc.Apply(candidates)
	twice, _, _ := svc.Apply(once)
	require.Len(t, twice, 1)
	assert.True(t, once[0].Value.Equal(twice[0].Value))
	assert.Equal(t, once[0].Currency, twice[0].Currency)
	assert.Equal(t, once[0].Scale, twice[0].Scale)
}

func TestApply_PreservesOriginals(t *testing.T) {
	table := currency.NewStaticTable([]currency.Rate{{From: "USD", To: "GBP", Rate: decimal.NewFromFloat(0.8)}})
	svc := New(table, "GBP", "millions", nil)
	svc.PreserveOriginals = true

	normalized, _, originals := svc.Apply([]model.CandidateValue{
		{CandidateID: "c1", MetricName: "revenue", Value: decimal.NewFromInt(100), Currency: "USD", Scale: "millions"},
	})
	require.Len(t, normalized, 1)
	require.Contains(t, originals, "c1")
	assert.Equal(t, "USD", originals["c1"].Currency)
	assert.True(t, decimal.NewFromInt(100).Equal(originals["c1"].Value))
}

func TestGroupByPeriod_FiscalYearKeys(t *testing.T) {
	y22 := time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC)
	y23 := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	groups := GroupByPeriod([]model.CandidateValue{
		{CandidateID: "a", PeriodEndDate: &y23},
		{CandidateID: "b", PeriodEndDate: &y22},
		{CandidateID: "c", PeriodEndDate: &y23},
	})
	require.Len(t, groups, 2)
	assert.Equal(t, "FY2023", groups[0].Key)
	assert.Len(t, groups[0].Candidates, 2)
	assert.Equal(t, "FY2022", groups[1].Key)
}

func TestIsConsistent(t *testing.T) {
	svc := New(currency.NewStaticTable(nil), "GBP", "millions", nil)
	assert.True(t, svc.IsConsistent([]model.FinancialMetric{
		{Currency: "GBP", Scale: "millions"},
		{Currency: "", Scale: ""},
	}))
	assert.False(t, svc.IsConsistent([]model.FinancialMetric{
		{Currency: "USD", Scale: "millions"},
	}))
}

func TestFindConflicts_DetectsDisagreement(t *testing.T) {
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	candidates := []model.CandidateValue{
		{MetricName: "revenue", Value: decimal.NewFromInt(100), PeriodEndDate: &end},
		{MetricName: "revenue", Value: decimal.NewFromInt(150), PeriodEndDate: &end},
	}
	conflicts := FindConflicts(candidates, 0.01)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "revenue", conflicts[0].MetricName)
}

func TestFindConflicts_WithinToleranceNoConflict(t *testing.T) {
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	candidates := []model.CandidateValue{
		{MetricName: "revenue", Value: decimal.NewFromInt(100), PeriodEndDate: &end},
		{MetricName: "revenue", Value: decimal.NewFromFloat(100.05), PeriodEndDate: &end},
	}
	conflicts := FindConflicts(candidates, 0.01)
	assert.Empty(t, conflicts)
}

func TestFindConflicts_SingleCandidateNoConflict(t *testing.T) {
	candidates := []model.CandidateValue{
		{MetricName: "revenue", Value: decimal.NewFromInt(100)},
	}
	assert.Empty(t, FindConflicts(candidates, 0.01))
}
