package adjudicate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finxtract/finxtract/internal/model"
	"github.com/finxtract/finxtract/internal/normalize"
)

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`{"a":1}`))
}

func TestParseVerdict_CleanJSON(t *testing.T) {
	v, err := parseVerdict(`{"selected_candidate_id":"c1","value":"100","confidence":0.9,"reasoning":"matches table"}`)
	require.NoError(t, err)
	assert.Equal(t, "c1", v.SelectedCandidateID)
	assert.Equal(t, 0.9, v.Confidence)
}

func TestParseVerdict_FencedJSON(t *testing.T) {
	v, err := parseVerdict("```json\n{\"selected_candidate_id\":\"c2\",\"value\":\"50\",\"confidence\":0.8,\"reasoning\":\"ok\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "c2", v.SelectedCandidateID)
}

func TestResolveVerdict_MatchesCandidate(t *testing.T) {
	group := normalize.ConsistencyGroup{
		MetricName: "revenue",
		Candidates: []model.CandidateValue{
			{CandidateID: "c1", MetricName: "revenue", Value: decimal.NewFromInt(100)},
			{CandidateID: "c2", MetricName: "revenue", Value: decimal.NewFromInt(200)},
		},
	}
	metric, ok := resolveVerdict(group, verdict{SelectedCandidateID: "c2", Confidence: 0.8, Reasoning: "best evidence"})
	require.True(t, ok)
	assert.Equal(t, "c2", metric.CandidateID)
	assert.Equal(t, "best evidence", metric.LLMReasoning)
}

func TestResolveVerdict_AlternativeValueOverridesCandidate(t *testing.T) {
	group := normalize.ConsistencyGroup{
		MetricName: "revenue",
		Candidates: []model.CandidateValue{
			{CandidateID: "c1", MetricName: "revenue", Value: decimal.NewFromInt(100), Currency: "GBP", Scale: "millions"},
		},
	}
	metric, ok := resolveVerdict(group, verdict{SelectedCandidateID: "c1", AlternativeValue: "123.4", Reasoning: "table cell was misread"})
	require.True(t, ok)
	assert.True(t, decimal.NewFromFloat(123.4).Equal(metric.Value))
	assert.Equal(t, "GBP", metric.Currency)
	assert.Equal(t, "millions", metric.Scale)
}

func TestResolveVerdict_UnparseableAlternativeValueKeepsOriginal(t *testing.T) {
	group := normalize.ConsistencyGroup{
		Candidates: []model.CandidateValue{
			{CandidateID: "c1", Value: decimal.NewFromInt(100)},
		},
	}
	metric, ok := resolveVerdict(group, verdict{SelectedCandidateID: "c1", AlternativeValue: "not-a-number"})
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(100).Equal(metric.Value))
}

func TestResolveVerdict_UnknownIDFails(t *testing.T) {
	group := normalize.ConsistencyGroup{
		Candidates: []model.CandidateValue{{CandidateID: "c1", Value: decimal.NewFromInt(100)}},
	}
	_, ok := resolveVerdict(group, verdict{SelectedCandidateID: "does-not-exist"})
	assert.False(t, ok)
}

func TestFallbackMetric_PicksHighestConfidence(t *testing.T) {
	group := normalize.ConsistencyGroup{
		Candidates: []model.CandidateValue{
			{CandidateID: "c1", Value: decimal.NewFromInt(100), ConfidenceScore: 0.5},
			{CandidateID: "c2", Value: decimal.NewFromInt(200), ConfidenceScore: 0.9},
		},
	}
	metric := fallbackMetric(group)
	assert.Equal(t, "c2", metric.CandidateID)
	assert.Contains(t, metric.Notes, "fell back")
}

func TestBuildPrompt_IncludesMetricCandidatesAndIssues(t *testing.T) {
	group := normalize.ConsistencyGroup{
		MetricName: "revenue",
		Candidates: []model.CandidateValue{{CandidateID: "c1", Value: decimal.NewFromInt(100)}},
	}
	issues := map[string][]model.ValidationResult{
		"c1": {
			{CandidateID: "c1", RuleName: "unit_check", Status: model.StatusInvalid, Severity: model.SeverityCritical, Message: `unrecognized currency "XYZ"`},
			{CandidateID: "c1", RuleName: "range_check", Status: model.StatusValid},
		},
	}
	prompt := buildPrompt(group, issues)
	assert.Contains(t, prompt, "revenue")
	assert.Contains(t, prompt, "c1")
	assert.Contains(t, prompt, "selected_candidate_id")
	assert.Contains(t, prompt, "unrecognized currency")
	assert.NotContains(t, prompt, "range_check") // passing rules are not shown
}
