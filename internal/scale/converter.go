// Package scale detects and converts the reporting scale ("in thousands",
// "£'000", "in millions") that financial statements declare once, usually
// in a table header or narrative preamble, and apply implicitly to every
// figure beneath it.
package scale

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finxtract/finxtract/internal/model"
)

// Canonical scale identifiers; they mirror model.ScaleMultiplier's keys
// so callers can move between the two without a translation table.
const (
	Actual    = "actual"
	Thousands = "thousands"
	Millions  = "millions"
	Billions  = "billions"
)

// Alias coverage: spelled-out words, single-letter suffixes (k/m/b),
// two-letter suffixes (mn/bn), currency-attached forms (£m, $k, €bn),
// parenthesized letters ((m), (b)), and the zeros conventions ('000s,
// 000,000s). Ordered most-specific-first so "000,000s" resolves to
// millions before the thousands rule can claim its "000s" tail.
var scalePatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{Billions, regexp.MustCompile(`(?i)(in\s+)?billions?\b|\bbn\b|\(\s*b\s*\)|[£$€]\s*'?bn?\b|\bb\b|000,000,000s?\b`)},
	{Millions, regexp.MustCompile(`(?i)(in\s+)?millions?\b|\bmn\b|\(\s*m\s*\)|[£$€]\s*'?m\b|\bm\b|000,000s?\b`)},
	{Thousands, regexp.MustCompile(`(?i)(in\s+)?thousands?\b|\(\s*k\s*\)|[£$€]\s*'?k\b|\bk\b|'000s?\b|[£$€]\s*'?000\b`)},
}

// Detect scans a header or preamble string and returns the first matching
// scale name in most-specific-first order, defaulting to Actual when
// nothing matches — a filing that declares no scale is presumed to report
// raw units.
func Detect(headerText string) string {
	trimmed := strings.TrimSpace(headerText)
	for _, p := range scalePatterns {
		if p.pattern.MatchString(trimmed) {
			return p.name
		}
	}
	return Actual
}

// ToBaseUnits multiplies value by the named scale's multiplier. Unknown
// scale names are treated as Actual (multiplier 1), matching
// model.FinancialMetric.ToBaseUnits' behavior for consistency across the
// two call sites.
func ToBaseUnits(value decimal.Decimal, scaleName string) decimal.Decimal {
	mul, ok := model.ScaleMultiplier[scaleName]
	if !ok {
		mul = decimal.NewFromInt(1)
	}
	return value.Mul(mul)
}

// Convert rescales a value already expressed in fromScale into toScale,
// e.g. 1500 thousands -> 1.5 millions.
func Convert(value decimal.Decimal, fromScale, toScale string) decimal.Decimal {
	base := ToBaseUnits(value, fromScale)
	toMul, ok := model.ScaleMultiplier[toScale]
	if !ok || toMul.IsZero() {
		return base
	}
	return base.Div(toMul)
}
