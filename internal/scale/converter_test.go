package scale

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	assert.Equal(t, Thousands, Detect("All figures in £'000 unless stated"))
	assert.Equal(t, Millions, Detect("Amounts shown in millions"))
	assert.Equal(t, Billions, Detect("$bn"))
	assert.Equal(t, Actual, Detect("No scale declared here"))
}

func TestDetect_Aliases(t *testing.T) {
	cases := map[string]string{
		"£m":          Millions,
		"mn":          Millions,
		"(m)":         Millions,
		"000,000s":    Millions,
		"$k":          Thousands,
		"k":           Thousands,
		"'000s":       Thousands,
		"(b)":         Billions,
		"bn":          Billions,
		"€bn":         Billions,
		"in billions": Billions,
	}
	for in, want := range cases {
		assert.Equal(t, want, Detect(in), "input %q", in)
	}
}

func TestToBaseUnits(t *testing.T) {
	got := ToBaseUnits(decimal.NewFromInt(5), Millions)
	assert.True(t, decimal.NewFromInt(5_000_000).Equal(got))
}

func TestToBaseUnits_UnknownScale(t *testing.T) {
	got := ToBaseUnits(decimal.NewFromInt(5), "bogus")
	assert.True(t, decimal.NewFromInt(5).Equal(got))
}

func TestConvert_ThousandsToMillions(t *testing.T) {
	got := Convert(decimal.NewFromInt(1500), Thousands, Millions)
	assert.True(t, decimal.NewFromFloat(1.5).Equal(got))
}
