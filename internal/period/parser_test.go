package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FYLabel(t *testing.T) {
	p, ok := Parse("FY2023")
	require.True(t, ok)
	assert.Equal(t, FiscalYear, p.Type)
	assert.Equal(t, 2023, p.FiscalYear)
	assert.Equal(t, time.December, p.EndDate.Month())
}

func TestParse_YearEndedDMY(t *testing.T) {
	p, ok := Parse("Year ended 31 December 2023")
	require.True(t, ok)
	assert.Equal(t, FiscalYear, p.Type)
	assert.Equal(t, 2023, p.FiscalYear)
	assert.Equal(t, 31, p.EndDate.Day())
	assert.Equal(t, time.December, p.EndDate.Month())
}

func TestParse_YearEndedMDY(t *testing.T) {
	p, ok := Parse("Year ended December 31, 2023")
	require.True(t, ok)
	assert.Equal(t, 2023, p.FiscalYear)
	assert.Equal(t, 31, p.EndDate.Day())
}

func TestParse_QuarterLabel(t *testing.T) {
	p, ok := Parse("Q1 2024")
	require.True(t, ok)
	assert.Equal(t, Quarter, p.Type)
	assert.Equal(t, 1, p.Quarter)
	assert.Equal(t, 2024, p.FiscalYear)
	assert.Equal(t, time.January, p.StartDate.Month())
	assert.Equal(t, time.March, p.EndDate.Month())
}

func TestParse_FYShortRange(t *testing.T) {
	p, ok := Parse("2023-24")
	require.True(t, ok)
	assert.Equal(t, FiscalYear, p.Type)
	assert.Equal(t, 2024, p.FiscalYear)
}

func TestParse_SixMonthsEnded(t *testing.T) {
	p, ok := Parse("Six months ended 30 June 2023")
	require.True(t, ok)
	assert.Equal(t, HalfYear, p.Type)
	assert.Equal(t, 1, p.Half)
	assert.Equal(t, 2023, p.FiscalYear)
}

func TestParse_HLabel(t *testing.T) {
	p, ok := Parse("H2 2023")
	require.True(t, ok)
	assert.Equal(t, HalfYear, p.Type)
	assert.Equal(t, 2, p.Half)
}

func TestParse_FYLabelTwoDigitRollsOverToPreviousCentury(t *testing.T) {
	p, ok := Parse("FY99")
	require.True(t, ok)
	assert.Equal(t, 1999, p.FiscalYear)
}

func TestParse_BareYearColumnHeader(t *testing.T) {
	p, ok := Parse("2023")
	require.True(t, ok)
	assert.Equal(t, FiscalYear, p.Type)
	assert.Equal(t, 2023, p.FiscalYear)
}

func TestParse_Unrecognized(t *testing.T) {
	_, ok := Parse("not a period at all")
	assert.False(t, ok)
}

func TestParse_Empty(t *testing.T) {
	_, ok := Parse("   ")
	assert.False(t, ok)
}

func TestNormalizeLabel(t *testing.T) {
	p, _ := Parse("Q1 2024")
	assert.Equal(t, "Q1-2024", NormalizeLabel(p))

	p2, _ := Parse("FY2023")
	assert.Equal(t, "FY2023", NormalizeLabel(p2))
}

func TestNormalizeLabel_RoundTrip(t *testing.T) {
	for _, label := range []string{"FY2023", "Q3 2022", "H1 2024", "Six months ended 30 June 2023"} {
		p, ok := Parse(label)
		require.True(t, ok, label)

		again, ok := Parse(NormalizeLabel(p))
		require.True(t, ok, NormalizeLabel(p))
		assert.Equal(t, p.Type, again.Type, label)
		assert.Equal(t, p.FiscalYear, again.FiscalYear, label)
		assert.Equal(t, p.Quarter, again.Quarter, label)
		assert.Equal(t, p.Half, again.Half, label)
	}
}

func TestFiscalYearEnd(t *testing.T) {
	labels := []string{
		"Year ended 31 December 2022",
		"Year ended 31 December 2023",
		"FY2021",
	}
	month, day, ok := FiscalYearEnd(labels)
	require.True(t, ok)
	assert.Equal(t, time.December, month)
	assert.Equal(t, 31, day)
}

func TestFiscalYearEnd_NoMatches(t *testing.T) {
	_, _, ok := FiscalYearEnd([]string{"garbage", "nope"})
	assert.False(t, ok)
}
