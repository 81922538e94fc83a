package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardize_Revenue(t *testing.T) {
	assert.Equal(t, Revenue, Standardize("Turnover"))
	assert.Equal(t, Revenue, Standardize("Revenue"))
	assert.Equal(t, Revenue, Standardize("Total Revenue"))
	assert.Equal(t, Revenue, Standardize("Net Sales"))
}

func TestStandardize_NetIncome(t *testing.T) {
	assert.Equal(t, NetIncome, Standardize("Profit for the year"))
	assert.Equal(t, NetIncome, Standardize("Net income attributable to shareholders"))
}

func TestStandardize_PrioritySpecificBeforeGeneral(t *testing.T) {
	// "Operating profit" must not fall through to the broader revenue/income
	// patterns; the operating-profit rule sits above them in priority.
	assert.Equal(t, OperatingProfit, Standardize("Operating profit"))

	// "Non-current assets" must not be swallowed by the current-assets rule.
	assert.Equal(t, NonCurrentAssets, Standardize("Non-current assets"))
	assert.Equal(t, CurrentAssets, Standardize("Current assets"))
}

func TestStandardize_QualifiersStripped(t *testing.T) {
	assert.Equal(t, Revenue, Standardize("Revenue (1)"))
	assert.Equal(t, Revenue, Standardize("Revenue*"))
	assert.Equal(t, Revenue, Standardize("Revenue (continuing operations)"))
}

func TestStandardize_UnrecognizedReturnsCleanedInput(t *testing.T) {
	assert.Equal(t, "foobar", Standardize("foobar"))
	assert.Equal(t, "some unrelated line", Standardize("  Some   Unrelated  Line "))
}

func TestStandardize_Idempotent(t *testing.T) {
	for _, in := range []string{"Turnover", "foobar", "Profit for the year", "Total Equity (restated)"} {
		once := Standardize(in)
		assert.Equal(t, once, Standardize(once), "input %q", in)
	}
}

func TestAddVariant(t *testing.T) {
	assert.Equal(t, "group trading income", Standardize("Group trading income"))
	AddVariant(Revenue, "group trading income")
	assert.Equal(t, Revenue, Standardize("Group trading income"))
	assert.True(t, IsCanonical(Revenue))
}

func TestKnownCanonicals_NoDuplicates(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range KnownCanonicals() {
		assert.False(t, seen[c], "duplicate canonical %q", c)
		seen[c] = true
	}
	assert.Contains(t, KnownCanonicals(), Revenue)
}
