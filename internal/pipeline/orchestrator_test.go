package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finxtract/finxtract/internal/blockify"
	"github.com/finxtract/finxtract/internal/currency"
	"github.com/finxtract/finxtract/internal/derive"
	"github.com/finxtract/finxtract/internal/model"
	"github.com/finxtract/finxtract/internal/normalize"
	"github.com/finxtract/finxtract/internal/parse"
	"github.com/finxtract/finxtract/internal/section"
	"github.com/finxtract/finxtract/internal/validate"
)

type fakeParser struct {
	result parse.Result
}

func (f fakeParser) Name() string { return f.result.Backend }
func (f fakeParser) Parse(ctx context.Context, pdfPath string) (parse.Result, error) {
	return f.result, nil
}

func TestOrchestrator_Run_SkipsAdjudicationWhenNoConflicts(t *testing.T) {
	parser := fakeParser{result: parse.Result{
		Backend: parse.BackendBalancedPDFCPU,
		TextBlocks: []model.TextBlock{
			{BlockID: "h1", Text: "Consolidated income statement", PageNumber: 1, BlockType: model.BlockHeading},
		},
		TableBlocks: []model.TableBlock{
			{
				TableID:    "t1",
				PageNumber: 1,
				Headers:    [][]string{{"", "FY2023"}},
				Data:       [][]string{{"Revenue", "1,000"}},
				Metadata:   model.TableMetadata{Currency: "GBP", Scale: "millions"},
			},
		},
	}}

	orch := New(
		[]parse.Parser{parser},
		blockify.New(blockify.DefaultPolicy),
		section.New(nil),
		normalize.New(currency.NewStaticTable(nil), "GBP", "millions", nil),
		validate.New(),
		nil,
		derive.New(nil, decimal.NewFromFloat(-0.5), decimal.NewFromFloat(2.0)),
		nil,
	)

	state := orch.Run(context.Background(), "run1", "fake.pdf", model.DocumentMetadata{DocumentID: "doc1"})

	assert.Equal(t, model.RunDone, state.State)
	require.NotEmpty(t, state.ValidatedMetrics)
	assert.Equal(t, "revenue", state.ValidatedMetrics[0].MetricName)
}

func TestGroupsNeedingAdjudication_SingletonFlaggedCandidateFormsGroup(t *testing.T) {
	candidates := []model.CandidateValue{
		{CandidateID: "c1", MetricName: "revenue", Value: decimal.NewFromInt(100), Currency: "XYZ"},
	}
	results := map[string][]model.ValidationResult{
		"c1": {{CandidateID: "c1", RuleName: "unit_consistency", Status: model.StatusInvalid, Severity: model.SeverityCritical}},
	}

	groups := groupsNeedingAdjudication(candidates, results)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Candidates, 1)
	assert.Equal(t, "c1", groups[0].Candidates[0].CandidateID)
}

func TestGroupsNeedingAdjudication_AllValidCandidatesExcluded(t *testing.T) {
	candidates := []model.CandidateValue{
		{CandidateID: "c1", MetricName: "revenue", Value: decimal.NewFromInt(100)},
	}
	results := map[string][]model.ValidationResult{
		"c1": {{CandidateID: "c1", RuleName: "unit_consistency", Status: model.StatusValid}},
	}

	groups := groupsNeedingAdjudication(candidates, results)
	assert.Empty(t, groups)
}

func TestGroupsNeedingAdjudication_ValueDisagreementWithoutRuleFlagStillGroups(t *testing.T) {
	when := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	candidates := []model.CandidateValue{
		{CandidateID: "c1", MetricName: "revenue", Value: decimal.NewFromInt(100), PeriodEndDate: &when},
		{CandidateID: "c2", MetricName: "revenue", Value: decimal.NewFromInt(200), PeriodEndDate: &when},
	}
	results := map[string][]model.ValidationResult{
		"c1": {{CandidateID: "c1", Status: model.StatusValid}},
		"c2": {{CandidateID: "c2", Status: model.StatusValid}},
	}

	groups := groupsNeedingAdjudication(candidates, results)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Candidates, 2)
}

func TestNeedsAdjudication_BareValueDisagreementTriggersBranch(t *testing.T) {
	orch := New(nil, nil, nil, nil, nil, nil, nil, nil)

	when := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	state := model.NewAgentState("run1", model.DocumentMetadata{DocumentID: "doc1"})
	state.Candidates = []model.CandidateValue{
		{CandidateID: "c1", MetricName: "revenue", Value: decimal.NewFromInt(100), PeriodEndDate: &when},
		{CandidateID: "c2", MetricName: "revenue", Value: decimal.NewFromInt(200), PeriodEndDate: &when},
	}
	state.ValidationResults = map[string][]model.ValidationResult{
		"c1": {{CandidateID: "c1", RuleName: "unit_check", Status: model.StatusValid}},
		"c2": {{CandidateID: "c2", RuleName: "unit_check", Status: model.StatusValid}},
	}

	// no rule flagged either candidate, so the status-only view sees no
	// conflict, but the values disagree and must still route to the
	// adjudicator
	assert.False(t, state.HasConflicts())
	assert.True(t, orch.needsAdjudication(state))
}

func TestNeedsAdjudication_AgreeingValidCandidatesSkip(t *testing.T) {
	orch := New(nil, nil, nil, nil, nil, nil, nil, nil)

	when := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	state := model.NewAgentState("run1", model.DocumentMetadata{DocumentID: "doc1"})
	state.Candidates = []model.CandidateValue{
		{CandidateID: "c1", MetricName: "revenue", Value: decimal.NewFromInt(100), PeriodEndDate: &when},
		{CandidateID: "c2", MetricName: "revenue", Value: decimal.NewFromInt(100), PeriodEndDate: &when},
	}
	state.ValidationResults = map[string][]model.ValidationResult{
		"c1": {{CandidateID: "c1", RuleName: "unit_check", Status: model.StatusValid}},
		"c2": {{CandidateID: "c2", RuleName: "unit_check", Status: model.StatusValid}},
	}

	assert.False(t, orch.needsAdjudication(state))
}

func TestBestPerGroup_HighestConfidenceWins(t *testing.T) {
	when := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	candidates := []model.CandidateValue{
		{CandidateID: "low", MetricName: "revenue", Value: decimal.NewFromInt(100), PeriodEndDate: &when, ConfidenceScore: 0.4},
		{CandidateID: "high", MetricName: "revenue", Value: decimal.NewFromInt(100), PeriodEndDate: &when, ConfidenceScore: 0.9},
		{CandidateID: "other", MetricName: "ebitda", Value: decimal.NewFromInt(25), PeriodEndDate: &when, ConfidenceScore: 0.5},
	}
	winners := bestPerGroup(candidates)
	require.Len(t, winners, 2)
	assert.Equal(t, "high", winners[0].CandidateID)
	assert.Equal(t, "other", winners[1].CandidateID)
}

func TestBlocksInPageRange(t *testing.T) {
	blocks := []model.TextBlock{
		{BlockID: "a", PageNumber: 1},
		{BlockID: "b", PageNumber: 3},
		{BlockID: "c", PageNumber: 5},
	}
	out := blocksInPageRange(blocks, 2, 4)
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].BlockID)
}

func TestCandidateToMetric_PreservesSourceAsExtractionMethod(t *testing.T) {
	c := model.CandidateValue{CandidateID: "c1", MetricName: "revenue", Value: decimal.NewFromInt(1), Source: model.SourceTableCell}
	m := candidateToMetric(c)
	assert.Equal(t, model.MethodTable, m.ExtractionMethod)
}

func TestSummarize_CountsTimingsAndMetrics(t *testing.T) {
	state := model.NewAgentState("run1", model.DocumentMetadata{DocumentID: "doc1"})
	state.RecordTiming("parse", 10*time.Millisecond)
	state.ValidatedMetrics = []model.FinancialMetric{{CandidateID: "c1"}}

	summary := Summarize(state)
	assert.Equal(t, "run1", summary.RunID)
	assert.Equal(t, 1, summary.ValidatedMetrics)
	assert.Equal(t, 10*time.Millisecond, summary.TotalDuration)
}
