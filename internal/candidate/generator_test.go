package candidate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finxtract/finxtract/internal/model"
)

func TestParseNumericToken_ParensNegative(t *testing.T) {
	p, ok := ParseNumericToken("(1,234.5)")
	require.True(t, ok)
	assert.True(t, p.WasNegative)
	assert.True(t, decimal.NewFromFloat(-1234.5).Equal(p.Value))
}

func TestParseNumericToken_CurrencyAndPercent(t *testing.T) {
	p, ok := ParseNumericToken("£120.5")
	require.True(t, ok)
	assert.Equal(t, "GBP", p.CurrencyHint)
	assert.True(t, decimal.NewFromFloat(120.5).Equal(p.Value))

	p2, ok := ParseNumericToken("18.2%")
	require.True(t, ok)
	assert.True(t, p2.WasPercent)
}

func TestParseNumericToken_ParensWithEmbeddedMinusStillNegative(t *testing.T) {
	p, ok := ParseNumericToken("(-100)")
	require.True(t, ok)
	assert.True(t, p.WasNegative)
	assert.True(t, decimal.NewFromInt(-100).Equal(p.Value))
}

func TestParseNumericToken_Rejects(t *testing.T) {
	for _, bad := range []string{"", "-", "n/a", "N/A", "abc", "12ab"} {
		_, ok := ParseNumericToken(bad)
		assert.False(t, ok, "expected %q to be rejected", bad)
	}
}

func TestScore_TableCellOutranksTextBlock(t *testing.T) {
	evidence := model.Evidence{TableID: "t1", RowIndex: 1, ColumnIndex: 1}
	tableScore := Score(model.CandidateValue{Source: model.SourceTableCell, Evidence: evidence})
	textScore := Score(model.CandidateValue{Source: model.SourceTextBlock, Evidence: evidence})
	assert.Greater(t, tableScore, textScore)
}

func TestScore_WeightComposition(t *testing.T) {
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	richEvidence := model.Evidence{
		TableID: "t1", RowIndex: 1, ColumnIndex: 1, RawLabel: "x", RawValue: "y",
		Page: 1, PeriodLabel: "FY2023", SectionID: "s1", BlockID: "b1",
	}

	// table cell + primary statement + known period + capped evidence = 1.0
	full := Score(model.CandidateValue{
		Source:        model.SourceTableCell,
		SectionType:   model.SectionIncomeStatement,
		PeriodEndDate: &end,
		Evidence:      richEvidence,
	})
	assert.InDelta(t, 1.0, full, 1e-9)

	// text block in notes with no period and no evidence = 0.20 + 0.10
	sparse := Score(model.CandidateValue{
		Source:      model.SourceTextBlock,
		SectionType: model.SectionNotes,
	})
	assert.InDelta(t, 0.30, sparse, 1e-9)
}

func TestFromTable_BasicExtraction(t *testing.T) {
	fixedTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixedTime }
	defer func() { now = time.Now }()

	table := model.TableBlock{
		TableID:    "t1",
		PageNumber: 3,
		Headers:    [][]string{{"", "FY2023", "FY2022"}},
		Data: [][]string{
			{"Revenue", "1,234", "1,098"},
			{"Unrecognized line", "99", "88"},
		},
		Metadata: model.TableMetadata{Currency: "GBP", Scale: "millions"},
	}

	candidates := FromTable(table, "sec1", model.SectionIncomeStatement)
	require.Len(t, candidates, 4)
	assert.Equal(t, "revenue", candidates[0].MetricName)
	assert.True(t, decimal.NewFromInt(1234).Equal(candidates[0].Value))
	assert.Equal(t, "GBP", candidates[0].Currency)
	assert.Equal(t, "millions", candidates[0].Scale)

	// a row outside the canonical vocabulary is still extracted, carrying
	// its cleaned label rather than being dropped
	assert.Equal(t, "unrecognized line", candidates[2].MetricName)
	assert.True(t, decimal.NewFromInt(99).Equal(candidates[2].Value))
	assert.Equal(t, "Unrecognized line", candidates[2].Evidence.RawLabel)
}

func TestFromTable_EmptyTable(t *testing.T) {
	assert.Nil(t, FromTable(model.TableBlock{}, "sec1", model.SectionIncomeStatement))
}

func TestFromTable_ParenthesizedCellDefaultsToNegativeGBPMillions(t *testing.T) {
	table := model.TableBlock{
		TableID:    "t1",
		PageNumber: 5,
		Headers:    [][]string{{"", "2023"}},
		Data:       [][]string{{"Operating expenses", "(250.5)"}},
	}

	candidates := FromTable(table, "sec1", model.SectionIncomeStatement)
	require.Len(t, candidates, 1)
	assert.Equal(t, "operating_expenses", candidates[0].MetricName)
	assert.True(t, decimal.NewFromFloat(-250.5).Equal(candidates[0].Value))
	assert.Equal(t, "GBP", candidates[0].Currency)
	assert.Equal(t, "millions", candidates[0].Scale)
}

func TestParseNumericToken_ScaleAndCurrencyWordHints(t *testing.T) {
	p, ok := ParseNumericToken("1.2bn")
	require.True(t, ok)
	assert.Equal(t, "billions", p.ScaleHint)
	assert.True(t, decimal.NewFromFloat(1.2).Equal(p.Value))

	p2, ok := ParseNumericToken("GBP 250 thousand")
	require.True(t, ok)
	assert.Equal(t, "GBP", p2.CurrencyHint)
	assert.Equal(t, "thousands", p2.ScaleHint)
	assert.True(t, decimal.NewFromInt(250).Equal(p2.Value))
}

func TestFromText_RequiresPeriodContext(t *testing.T) {
	blocks := []model.TextBlock{
		{BlockID: "b1", BlockType: model.BlockBody, Text: "Revenue was £120.5 million, with no period mentioned.", PageNumber: 2},
	}
	candidates := FromText(blocks, "sec1", model.SectionIncomeStatement)
	assert.Empty(t, candidates)
}

func TestFromText_WithPeriodContext(t *testing.T) {
	blocks := []model.TextBlock{
		{BlockID: "b1", BlockType: model.BlockBody, Text: "For the year ended 31 December 2023, revenue was £120.5 million.", PageNumber: 2},
	}
	candidates := FromText(blocks, "sec1", model.SectionIncomeStatement)
	require.Len(t, candidates, 1)
	assert.Equal(t, "revenue", candidates[0].MetricName)
}
